package files

import (
	"time"

	"docintake-backend/internal/shared/storage/object"
)

// FileSummary is the listing representation of a stored document.
type FileSummary struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Category    string    `json:"category"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// RenameRequest is the payload for renaming a stored document.
type RenameRequest struct {
	NewName string `json:"newName" binding:"required"`
}

func toSummary(info object.ObjectInfo) FileSummary {
	return FileSummary{
		ID:          info.ID,
		FileName:    info.FileName,
		ContentType: info.Metadata[object.MetaContentType],
		Category:    info.Metadata[object.MetaCategory],
		SizeBytes:   info.SizeBytes,
		UploadedAt:  info.UploadedAt,
	}
}
