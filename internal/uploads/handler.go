package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docintake-backend/internal/ingest"
	"docintake-backend/internal/scheduled"
	"docintake-backend/internal/shared/auth"
	"docintake-backend/internal/shared/server/middleware"
	"docintake-backend/internal/shared/server/respond"
)

const maxUploadSize = 50 << 20 // whole multipart request

// Handler accepts batch uploads and routes each file to the immediate
// pipeline or the scheduled queue.
type Handler struct {
	Pipeline *ingest.Pipeline
	Queue    scheduled.Repo
	Now      func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(pipeline *ingest.Pipeline, queue scheduled.Repo) *Handler {
	return &Handler{Pipeline: pipeline, Queue: queue, Now: time.Now}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
}

// FileOutcome reports one file's result within a batch.
type FileOutcome struct {
	FileName string `json:"fileName"`
	Status   string `json:"status"` // uploaded, scheduled, or failed
	Category string `json:"category,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *Handler) upload(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		if single := form.File["file"]; len(single) > 0 {
			files = single
		}
	}
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded.", nil)
		return
	}

	category := strings.TrimSpace(c.PostForm("category"))

	var dueAt time.Time
	if raw := strings.TrimSpace(c.PostForm("scheduledTime")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "scheduledTime must be RFC3339", nil)
			return
		}
		dueAt = parsed
	}

	now := h.Now()
	deferred := !dueAt.IsZero() && dueAt.After(now)

	outcomes := make([]FileOutcome, 0, len(files))
	failedCount := 0
	for _, fileHeader := range files {
		var outcome FileOutcome
		if strings.TrimSpace(fileHeader.Filename) == "" {
			// Never reaches the pipeline or the queue: failure records and
			// pending uploads always name a real file.
			outcome = FileOutcome{Status: "failed", Error: "file name is required"}
			failedCount++
			outcomes = append(outcomes, outcome)
			continue
		}
		if deferred {
			outcome = h.schedule(c, fileHeader, category, dueAt, identity)
		} else {
			outcome = h.ingest(c, fileHeader, category, identity)
		}
		if outcome.Status == "failed" {
			failedCount++
		}
		outcomes = append(outcomes, outcome)
	}

	message := "Files processed."
	switch {
	case deferred && failedCount == 0:
		message = fmt.Sprintf("Files scheduled for %s.", dueAt.UTC().Format(time.RFC3339))
	case failedCount == 0:
		message = "Files uploaded and categorized."
	case failedCount == len(outcomes):
		message = "All files failed."
	default:
		message = fmt.Sprintf("%d of %d files failed.", failedCount, len(outcomes))
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"message": message,
		"results": outcomes,
	})
}

func (h *Handler) ingest(c *gin.Context, fileHeader *multipart.FileHeader, category string, identity *auth.Identity) FileOutcome {
	data, err := readFile(fileHeader)
	if err != nil {
		return FileOutcome{FileName: fileHeader.Filename, Status: "failed", Error: "unable to read file"}
	}

	doc, err := h.Pipeline.Ingest(c.Request.Context(), ingest.IngestInput{
		FileName:         fileHeader.Filename,
		ContentType:      fileHeader.Header.Get("Content-Type"),
		Data:             data,
		CategoryOverride: category,
		Identity:         identity,
	})
	if err != nil {
		return FileOutcome{FileName: fileHeader.Filename, Status: "failed", Error: outcomeError(err)}
	}
	return FileOutcome{FileName: doc.FileName, Status: "uploaded", Category: doc.Category}
}

func (h *Handler) schedule(c *gin.Context, fileHeader *multipart.FileHeader, category string, dueAt time.Time, identity *auth.Identity) FileOutcome {
	data, err := readFile(fileHeader)
	if err != nil {
		return FileOutcome{FileName: fileHeader.Filename, Status: "failed", Error: "unable to read file"}
	}

	item := scheduled.PendingUpload{
		ID:          uuid.NewString(),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		Category:    category,
		DueAt:       dueAt.UTC(),
		CreatedAt:   h.Now().UTC(),
	}
	if identity != nil {
		item.UserID = identity.UserID
		item.UserEmail = identity.Email
	}

	if err := h.Queue.Enqueue(c.Request.Context(), item); err != nil {
		return FileOutcome{FileName: fileHeader.Filename, Status: "failed", Error: "failed to schedule upload"}
	}
	return FileOutcome{FileName: fileHeader.Filename, Status: "scheduled"}
}

func readFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func outcomeError(err error) string {
	if errors.Is(err, ingest.ErrInvalidFileType) {
		return ingest.InvalidFileTypeMessage
	}
	return err.Error()
}
