package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/services"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

type AnalyzeHandler struct {
	log      *logger.Logger
	analysis services.AnalysisService
	progress services.ProgressService
}

func NewAnalyzeHandler(log *logger.Logger, analysis services.AnalysisService, progress services.ProgressService) *AnalyzeHandler {
	return &AnalyzeHandler{
		log:      log.With("handler", "AnalyzeHandler"),
		analysis: analysis,
		progress: progress,
	}
}

type analyzeRequest struct {
	UserID string   `json:"user_id"`
	Input  string   `json:"input"`
	Lines  []string `json:"lines"`
	Tone   string   `json:"tone"`
}

func (r *analyzeRequest) rawInput() string {
	if len(r.Lines) > 0 {
		return strings.Join(r.Lines, "\n")
	}
	return r.Input
}

type analyzeResponse struct {
	Result       types.AnalysisResult `json:"result"`
	UsedFallback bool                 `json:"used_fallback"`
}

func (h *AnalyzeHandler) Scan(c *gin.Context) {
	h.analyze(c, types.ScanMode)
}

func (h *AnalyzeHandler) Pattern(c *gin.Context) {
	h.analyze(c, types.PatternMode)
}

func (h *AnalyzeHandler) analyze(c *gin.Context, mode types.ContentMode) {
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	raw := body.rawInput()
	if strings.TrimSpace(raw) == "" {
		RespondError(c, http.StatusBadRequest, "empty_input", fmt.Errorf("input is required"))
		return
	}

	result, usedFallback, err := h.analysis.Analyze(c.Request.Context(), types.GenerationRequest{
		Mode:     mode,
		RawInput: raw,
		Tone:     body.Tone,
	})
	if err != nil {
		RespondServiceError(c, "analysis_failed", err)
		return
	}

	if h.progress != nil {
		h.progress.RecordEvent(c.Request.Context(), body.UserID, string(mode), usedFallback)
	}

	RespondOK(c, analyzeResponse{Result: result, UsedFallback: usedFallback})
}
