package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"docintake-backend/internal/shared/storage/object"
	"docintake-backend/internal/shared/util"
)

const metaSuffix = ".meta.json"

// Store implements ObjectStore on the local filesystem. Each object is a
// payload file named by its id plus a JSON metadata sidecar.
type Store struct {
	baseDir string
}

// New creates a local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

type sidecar struct {
	FileName   string            `json:"fileName"`
	SizeBytes  int64             `json:"sizeBytes"`
	Metadata   map[string]string `json:"metadata"`
	UploadedAt time.Time         `json:"uploadedAt"`
}

// Save streams the reader to disk and writes the metadata sidecar.
func (s *Store) Save(ctx context.Context, fileName string, meta object.Metadata, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, fmt.Errorf("sanitize file name: %w", err)
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("mkdir: %w", err)
	}

	id := uuid.NewString()
	payloadPath := filepath.Join(s.baseDir, id)

	f, err := os.OpenFile(payloadPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("open file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(payloadPath)
		return "", 0, fmt.Errorf("write body: %w", err)
	}

	side := sidecar{
		FileName:   sanitized,
		SizeBytes:  size,
		Metadata:   copyMeta(meta),
		UploadedAt: time.Now().UTC(),
	}
	if err := s.writeSidecar(id, side); err != nil {
		os.Remove(payloadPath)
		return "", 0, err
	}
	return id, size, nil
}

// Open opens a stored object's payload for reading.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.payloadPath(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Stat returns the object summary from its sidecar.
func (s *Store) Stat(ctx context.Context, id string) (object.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return object.ObjectInfo{}, err
	}
	return s.readInfo(id)
}

// Delete removes the payload and sidecar.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.payloadPath(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return object.ErrNotFound
		}
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	os.Remove(path + metaSuffix)
	return nil
}

// Rename updates the stored file name in the sidecar.
func (s *Store) Rename(ctx context.Context, id string, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sanitized, err := util.SanitizeFileName(newName)
	if err != nil {
		return fmt.Errorf("sanitize file name: %w", err)
	}
	side, err := s.readSidecar(id)
	if err != nil {
		return err
	}
	side.FileName = sanitized
	return s.writeSidecar(id, side)
}

// List scans sidecars and returns matching summaries, newest first.
func (s *Store) List(ctx context.Context, filter object.Metadata) ([]object.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []object.ObjectInfo{}, nil
		}
		return nil, err
	}

	out := make([]object.ObjectInfo, 0, len(dirEntries))
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, metaSuffix)
		info, err := s.readInfo(id)
		if err != nil {
			continue
		}
		if info.Matches(filter) {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (s *Store) payloadPath(id string) (string, error) {
	clean := filepath.Clean(id)
	if clean == "." || strings.Contains(clean, "..") || strings.ContainsAny(clean, `/\`) {
		return "", object.ErrNotFound
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *Store) readSidecar(id string) (sidecar, error) {
	path, err := s.payloadPath(id)
	if err != nil {
		return sidecar{}, err
	}
	data, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return sidecar{}, object.ErrNotFound
		}
		return sidecar{}, err
	}
	var side sidecar
	if err := json.Unmarshal(data, &side); err != nil {
		return sidecar{}, fmt.Errorf("decode sidecar %s: %w", id, err)
	}
	return side, nil
}

func (s *Store) writeSidecar(id string, side sidecar) error {
	path, err := s.payloadPath(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(side)
	if err != nil {
		return fmt.Errorf("encode sidecar %s: %w", id, err)
	}
	if err := os.WriteFile(path+metaSuffix, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func (s *Store) readInfo(id string) (object.ObjectInfo, error) {
	side, err := s.readSidecar(id)
	if err != nil {
		return object.ObjectInfo{}, err
	}
	return object.ObjectInfo{
		ID:         id,
		FileName:   side.FileName,
		SizeBytes:  side.SizeBytes,
		Metadata:   side.Metadata,
		UploadedAt: side.UploadedAt,
	}, nil
}

func copyMeta(meta object.Metadata) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

var _ object.ObjectStore = (*Store)(nil)
