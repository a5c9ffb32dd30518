package failures

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docintake-backend/internal/shared/server/middleware"
	"docintake-backend/internal/shared/server/respond"
)

// Handler serves the failed-upload surface.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches failure routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/failed-uploads", middleware.RequireIdentity())
	grp.GET("", h.list)
	grp.POST("/:id/retry", h.retry)
	grp.DELETE("/:id", h.cancel)
}

type recordResponse struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	Action       string    `json:"action"`
	ErrorMessage string    `json:"errorMessage"`
	Retryable    bool      `json:"retryable"`
	Timestamp    time.Time `json:"timestamp"`
}

func (h *Handler) list(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	records, err := h.Svc.ListOpen(c.Request.Context(), identity)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list failed uploads", nil)
		return
	}

	resp := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, recordResponse{
			ID:           rec.ID,
			FileName:     rec.FileName,
			Action:       rec.Action,
			ErrorMessage: rec.ErrorMessage,
			Retryable:    rec.StagingKey != "",
			Timestamp:    rec.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) retry(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	doc, err := h.Svc.Retry(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "failure record not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "retry failed", err.Error())
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"message":  "File uploaded and categorized.",
		"fileName": doc.FileName,
		"category": doc.Category,
	})
}

func (h *Handler) cancel(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	if err := h.Svc.Cancel(c.Request.Context(), c.Param("id"), identity); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "failure record not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "cancel failed", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"message": "Failed upload cancelled."})
}
