package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docintake-backend/internal/shared/server/middleware"
	"docintake-backend/internal/shared/server/respond"
)

// Handler serves the audit log.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit", middleware.RequireIdentity(), h.list)
}

type entryResponse struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	UserID       string    `json:"userId,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	entries, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list audit entries", nil)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, entryResponse{
			ID:           entry.ID,
			FileName:     entry.FileName,
			Action:       entry.Action,
			Status:       entry.Status,
			ErrorMessage: entry.ErrorMessage,
			UserID:       entry.UserID,
			Timestamp:    entry.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}
