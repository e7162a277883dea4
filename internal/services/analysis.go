package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hollowbyte/subtext-backend/internal/analysis"
	"github.com/hollowbyte/subtext-backend/internal/platform/apierr"
	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/platform/model"
	"github.com/hollowbyte/subtext-backend/internal/prompt"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

// AnalysisService drives the scan/pattern pipeline: prompt, resilient call,
// payload recovery, normalization. The bool result reports whether the
// deterministic fallback substituted for the model.
type AnalysisService interface {
	Analyze(ctx context.Context, req types.GenerationRequest) (types.AnalysisResult, bool, error)
}

type analysisService struct {
	log     *logger.Logger
	builder *prompt.Builder
	invoker model.Invoker
}

func NewAnalysisService(log *logger.Logger, builder *prompt.Builder, invoker model.Invoker) AnalysisService {
	return &analysisService{
		log:     log.With("service", "AnalysisService"),
		builder: builder,
		invoker: invoker,
	}
}

func (s *analysisService) Analyze(ctx context.Context, req types.GenerationRequest) (types.AnalysisResult, bool, error) {
	if req.Mode != types.ScanMode && req.Mode != types.PatternMode {
		return types.AnalysisResult{}, false, apierr.New(http.StatusBadRequest, "unsupported_mode",
			fmt.Errorf("analysis does not handle mode %q", req.Mode))
	}

	built, err := s.builder.Build(req)
	if err != nil {
		return types.AnalysisResult{}, false, err
	}

	reply := s.invoker.Invoke(ctx, built.System, built.User, built.Params)

	payload, usedFallback := s.recoverPayload(req, reply)
	if usedFallback {
		s.log.WithCtx(ctx).Info("analysis degraded to fallback",
			"mode", req.Mode,
			"error_kind", string(reply.ErrorKind),
			"http_status", reply.HTTPStatus,
		)
	}

	var result types.AnalysisResult
	if req.Mode == types.ScanMode {
		result = analysis.NormalizeScan(payload, req.RawInput, req.Tone)
	} else {
		result = analysis.NormalizePattern(payload, req.RawInput, req.Tone)
	}
	return result, usedFallback, nil
}

// recoverPayload implements the Parsed|Fallback branch: a failed call or an
// unparsable reply both land on the deterministic skeleton for the mode.
func (s *analysisService) recoverPayload(req types.GenerationRequest, reply model.Reply) (analysis.Payload, bool) {
	if reply.Succeeded {
		if payload, ok := analysis.ExtractPayload(reply.Text); ok {
			return payload, false
		}
	}
	if req.Mode == types.PatternMode {
		return analysis.PatternFallback(req.RawInput), true
	}
	return analysis.ScanFallback(req.RawInput), true
}
