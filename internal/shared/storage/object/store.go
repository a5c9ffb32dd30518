package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no object exists for the given id.
var ErrNotFound = errors.New("object not found")

// Metadata is the arbitrary key-value bag attached to an object at write time.
type Metadata map[string]string

// Well-known metadata keys written by the ingestion pipeline.
const (
	MetaContentType   = "contentType"
	MetaCategory      = "category"
	MetaExtractedText = "extractedText"
	// MetaStaging marks payloads retained only for failure retries; they are
	// hidden from document listings.
	MetaStaging = "staging"
)

// ObjectInfo is the listing summary for a stored object.
type ObjectInfo struct {
	ID         string
	FileName   string
	SizeBytes  int64
	Metadata   Metadata
	UploadedAt time.Time
}

// ObjectStore is the contract for durable, streamed storage of file bytes plus
// metadata. Implementations assign the object id.
type ObjectStore interface {
	// Save streams the reader into a new object and returns its generated id.
	Save(ctx context.Context, fileName string, meta Metadata, r io.Reader) (id string, sizeBytes int64, err error)
	// Open returns the object's bytes, or ErrNotFound.
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	// Stat returns the object's summary, or ErrNotFound.
	Stat(ctx context.Context, id string) (ObjectInfo, error)
	// Delete removes the object, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Rename changes the object's file name, or returns ErrNotFound.
	Rename(ctx context.Context, id string, newName string) error
	// List returns summaries of objects whose metadata matches every filter
	// entry, newest first. A nil or empty filter matches everything.
	List(ctx context.Context, filter Metadata) ([]ObjectInfo, error)
}

// Matches reports whether the object's metadata satisfies every filter entry.
func (o ObjectInfo) Matches(filter Metadata) bool {
	for k, v := range filter {
		if o.Metadata[k] != v {
			return false
		}
	}
	return true
}
