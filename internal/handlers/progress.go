package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

func (h *ProgressHandler) Get(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		RespondError(c, http.StatusBadRequest, "missing_user_id", fmt.Errorf("user id is required"))
		return
	}
	doc, err := h.progress.Get(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, "progress_read_failed", err)
		return
	}
	RespondOK(c, gin.H{"user_id": userID, "doc": doc})
}

func (h *ProgressHandler) Merge(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		RespondError(c, http.StatusBadRequest, "missing_user_id", fmt.Errorf("user id is required"))
		return
	}
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	doc, err := h.progress.Merge(c.Request.Context(), userID, patch)
	if err != nil {
		RespondServiceError(c, "progress_write_failed", err)
		return
	}
	RespondOK(c, gin.H{"user_id": userID, "doc": doc})
}
