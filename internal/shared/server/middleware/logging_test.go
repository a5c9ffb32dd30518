package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = origStdout
	}()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read log output: %v", err)
	}
	return buf.String()
}

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Auth(), Logging())
	router.GET("/file/:id", func(c *gin.Context) {
		c.Set("fileId", c.Param("id"))
		c.Set("fileName", "scan.pdf")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	out := captureStdout(t, func() {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/file/doc-1", nil))
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "method", "path", "status", "duration_ms", "file_id"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["file_id"] != "doc-1" {
		t.Fatalf("unexpected file_id: %v", payload["file_id"])
	}
	if payload["file_name"] != "scan.pdf" {
		t.Fatalf("unexpected file_name: %v", payload["file_name"])
	}
	if payload["status"].(float64) != http.StatusOK {
		t.Fatalf("unexpected status: %v", payload["status"])
	}
}

func TestLoggingSkipsOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Logging())
	router.OPTIONS("/file/1", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	out := captureStdout(t, func() {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/file/1", nil))
	})
	if strings.TrimSpace(out) != "" {
		t.Fatalf("preflight requests must not be logged, got %q", out)
	}
}
