package files

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docintake-backend/internal/audit"
	"docintake-backend/internal/classify"
	"docintake-backend/internal/shared/server/middleware"
	"docintake-backend/internal/shared/server/respond"
	"docintake-backend/internal/shared/storage/object"
)

// Handler serves browse, download, rename and delete operations over stored
// documents.
type Handler struct {
	Store object.ObjectStore
	Audit *audit.Service
}

// NewHandler constructs a Handler.
func NewHandler(store object.ObjectStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

// RegisterRoutes attaches file routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/files", h.list)
	rg.GET("/files/:category", h.listByCategory)
	rg.GET("/file/:id", h.download)
	rg.PUT("/file/:id", h.rename)
	rg.DELETE("/file/:id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	h.respondList(c, nil)
}

func (h *Handler) listByCategory(c *gin.Context) {
	category := c.Param("category")
	if category == classify.CategoryAll {
		h.respondList(c, nil)
		return
	}
	h.respondList(c, object.Metadata{object.MetaCategory: category})
}

func (h *Handler) respondList(c *gin.Context, filter object.Metadata) {
	infos, err := h.Store.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list files", nil)
		return
	}
	summaries := make([]FileSummary, 0, len(infos))
	for _, info := range infos {
		if info.Metadata[object.MetaStaging] == "true" {
			continue
		}
		summaries = append(summaries, toSummary(info))
	}
	respond.JSON(c, http.StatusOK, gin.H{"files": summaries})
}

func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	c.Set("fileId", id)

	info, err := h.Store.Stat(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read file", nil)
		return
	}

	rc, err := h.Store.Open(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read file", nil)
		return
	}
	defer rc.Close()

	c.Set("fileName", info.FileName)
	contentType := info.Metadata[object.MetaContentType]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", info.FileName),
	}
	c.DataFromReader(http.StatusOK, info.SizeBytes, contentType, rc, extraHeaders)
}

func (h *Handler) rename(c *gin.Context) {
	id := c.Param("id")
	c.Set("fileId", id)
	userID := userIDFrom(c)

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "newName is required", nil)
		return
	}

	if err := h.Store.Rename(c.Request.Context(), id, req.NewName); err != nil {
		if errors.Is(err, object.ErrNotFound) {
			h.Audit.Record(c.Request.Context(), req.NewName, audit.ActionRename, audit.StatusFailed, "file not found", userID)
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		h.Audit.Record(c.Request.Context(), req.NewName, audit.ActionRename, audit.StatusFailed, err.Error(), userID)
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to rename file", nil)
		return
	}

	h.Audit.Record(c.Request.Context(), req.NewName, audit.ActionRename, audit.StatusSuccess, "", userID)
	respond.JSON(c, http.StatusOK, gin.H{"message": "File renamed.", "fileName": req.NewName})
}

func (h *Handler) remove(c *gin.Context) {
	id := c.Param("id")
	c.Set("fileId", id)
	userID := userIDFrom(c)

	info, statErr := h.Store.Stat(c.Request.Context(), id)
	fileName := id
	if statErr == nil {
		fileName = info.FileName
	}

	if err := h.Store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, object.ErrNotFound) {
			h.Audit.Record(c.Request.Context(), fileName, audit.ActionDelete, audit.StatusFailed, "file not found", userID)
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		h.Audit.Record(c.Request.Context(), fileName, audit.ActionDelete, audit.StatusFailed, err.Error(), userID)
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete file", nil)
		return
	}

	h.Audit.Record(c.Request.Context(), fileName, audit.ActionDelete, audit.StatusSuccess, "", userID)
	respond.JSON(c, http.StatusOK, gin.H{"message": "File deleted."})
}

func userIDFrom(c *gin.Context) string {
	if id := middleware.IdentityFromContext(c); id != nil {
		return id.UserID
	}
	return ""
}
