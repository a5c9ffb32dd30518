package files

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docintake-backend/internal/audit"
	"docintake-backend/internal/shared/storage/object"
	localstore "docintake-backend/internal/shared/storage/object/local"
)

func setup(t *testing.T) (*gin.Engine, *localstore.Store, *audit.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := localstore.New(t.TempDir())
	auditRepo := audit.NewMemoryRepo()
	h := NewHandler(store, &audit.Service{Repo: auditRepo})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, store, auditRepo
}

func seed(t *testing.T, store *localstore.Store, name, category, body string) string {
	t.Helper()
	id, _, err := store.Save(context.Background(), name, object.Metadata{
		object.MetaContentType: "application/pdf",
		object.MetaCategory:    category,
	}, strings.NewReader(body))
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return id
}

type listResponse struct {
	Files []FileSummary `json:"files"`
}

func getList(t *testing.T, r *gin.Engine, path string) listResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", path, w.Code)
	}
	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestListAllFiles(t *testing.T) {
	r, store, _ := setup(t)
	seed(t, store, "a.pdf", "billing", "a")
	seed(t, store, "b.pdf", "uncategorized", "b")

	resp := getList(t, r, "/api/v1/files")
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(resp.Files))
	}
}

func TestListByCategory(t *testing.T) {
	r, store, _ := setup(t)
	seed(t, store, "a.pdf", "billing", "a")
	seed(t, store, "b.pdf", "uncategorized", "b")

	resp := getList(t, r, "/api/v1/files/billing")
	if len(resp.Files) != 1 || resp.Files[0].FileName != "a.pdf" {
		t.Fatalf("unexpected listing %+v", resp.Files)
	}

	// "all" behaves like the unfiltered listing.
	resp = getList(t, r, "/api/v1/files/all")
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 files for \"all\", got %d", len(resp.Files))
	}
}

func TestListHidesStagedPayloads(t *testing.T) {
	r, store, _ := setup(t)
	seed(t, store, "a.pdf", "billing", "a")
	if _, _, err := store.Save(context.Background(), "staged.pdf", object.Metadata{
		object.MetaContentType: "application/pdf",
		object.MetaStaging:     "true",
	}, strings.NewReader("staged")); err != nil {
		t.Fatalf("save staged: %v", err)
	}

	resp := getList(t, r, "/api/v1/files")
	if len(resp.Files) != 1 || resp.Files[0].FileName != "a.pdf" {
		t.Fatalf("staged payloads must be hidden, got %+v", resp.Files)
	}
}

func TestDownloadFile(t *testing.T) {
	r, store, _ := setup(t)
	id := seed(t, store, "scan.pdf", "billing", "%PDF-1.4 body")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/file/"+id, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q", got)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "scan.pdf") {
		t.Fatalf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if w.Body.String() != "%PDF-1.4 body" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestDownloadMissingFile(t *testing.T) {
	r, _, _ := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/file/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRenameFile(t *testing.T) {
	r, store, auditRepo := setup(t)
	id := seed(t, store, "scan.pdf", "billing", "body")

	body := bytes.NewBufferString(`{"newName":"invoice.pdf"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/file/"+id, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	info, err := store.Stat(context.Background(), id)
	if err != nil || info.FileName != "invoice.pdf" {
		t.Fatalf("rename not applied: %+v err=%v", info, err)
	}

	entries, _ := auditRepo.List(context.Background(), 10, 0)
	if len(entries) != 1 || entries[0].Action != audit.ActionRename || entries[0].Status != audit.StatusSuccess {
		t.Fatalf("expected rename audit entry, got %+v", entries)
	}
}

func TestRenameMissingBody(t *testing.T) {
	r, store, _ := setup(t)
	id := seed(t, store, "scan.pdf", "billing", "body")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/file/"+id, bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDeleteFile(t *testing.T) {
	r, store, auditRepo := setup(t)
	id := seed(t, store, "scan.pdf", "billing", "body")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/file/"+id, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if _, err := store.Stat(context.Background(), id); err == nil {
		t.Fatalf("file should be gone")
	}

	entries, _ := auditRepo.List(context.Background(), 10, 0)
	if len(entries) != 1 || entries[0].Action != audit.ActionDelete || entries[0].Status != audit.StatusSuccess {
		t.Fatalf("expected delete audit entry, got %+v", entries)
	}
	if entries[0].FileName != "scan.pdf" {
		t.Fatalf("audit entry should carry the file name, got %q", entries[0].FileName)
	}
}

func TestDeleteMissingFileIsAudited(t *testing.T) {
	r, _, auditRepo := setup(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/file/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	entries, _ := auditRepo.List(context.Background(), 10, 0)
	if len(entries) != 1 || entries[0].Status != audit.StatusFailed {
		t.Fatalf("missing delete should leave a failed audit entry, got %+v", entries)
	}
}
