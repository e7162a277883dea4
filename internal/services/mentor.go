package services

import (
	"context"
	"strings"
	"time"

	"github.com/hollowbyte/subtext-backend/internal/mentor"
	"github.com/hollowbyte/subtext-backend/internal/persona"
	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/platform/model"
	"github.com/hollowbyte/subtext-backend/internal/prompt"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

// streamChunkSize is the target rune length of one emitted chunk; chunks
// break on word boundaries.
const streamChunkSize = 160

// MentorService drives the persona-chat pipeline. Exchange returns the
// complete result; Stream additionally emits the response as ordered text
// chunks before returning the same result.
type MentorService interface {
	Exchange(ctx context.Context, req types.GenerationRequest) (types.MentorResult, error)
	Stream(ctx context.Context, req types.GenerationRequest, emit func(chunk string)) (types.MentorResult, error)
}

type mentorService struct {
	log     *logger.Logger
	builder *prompt.Builder
	catalog *persona.Catalog
	invoker model.Invoker
}

func NewMentorService(log *logger.Logger, builder *prompt.Builder, catalog *persona.Catalog, invoker model.Invoker) MentorService {
	return &mentorService{
		log:     log.With("service", "MentorService"),
		builder: builder,
		catalog: catalog,
		invoker: invoker,
	}
}

func (s *mentorService) Exchange(ctx context.Context, req types.GenerationRequest) (types.MentorResult, error) {
	req.Mode = types.MentorMode
	built, err := s.builder.Build(req)
	if err != nil {
		return types.MentorResult{}, err
	}

	preset, ok := persona.ParsePreset(req.Preset)
	if !ok {
		preset = persona.PresetChat
	}
	key, _ := s.catalog.Resolve(req.PersonaKey)

	reply := s.invoker.Invoke(ctx, built.System, built.User, built.Params)
	text := reply.Text
	fallback := false
	if !reply.Succeeded || strings.TrimSpace(reply.Text) == "" {
		text = mentor.FallbackText(preset)
		fallback = true
		s.log.WithCtx(ctx).Info("mentor degraded to fallback",
			"preset", string(preset),
			"error_kind", string(reply.ErrorKind),
			"http_status", reply.HTTPStatus,
		)
	}

	formatted := mentor.Format(preset, text)
	return types.MentorResult{
		Mentor:       key,
		Response:     formatted,
		Preset:       string(preset),
		TimestampUTC: time.Now().UTC(),
		ViralScore:   mentor.EstimateEngagement(formatted),
		Fallback:     fallback,
	}, nil
}

// Stream emits the formatted response as ordered chunks. Upstream failure
// never reaches the caller as an error: the fallback text streams the same
// way genuine output does.
func (s *mentorService) Stream(ctx context.Context, req types.GenerationRequest, emit func(chunk string)) (types.MentorResult, error) {
	result, err := s.Exchange(ctx, req)
	if err != nil {
		return types.MentorResult{}, err
	}
	if emit != nil {
		for _, chunk := range splitChunks(result.Response, streamChunkSize) {
			emit(chunk)
		}
	}
	return result, nil
}

// splitChunks cuts text at the last space or newline before the size limit
// so words survive intact.
func splitChunks(text string, size int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	rest := []rune(text)
	for len(rest) > 0 {
		if len(rest) <= size {
			out = append(out, string(rest))
			break
		}
		cut := size
		for cut > 0 && rest[cut] != ' ' && rest[cut] != '\n' {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		out = append(out, strings.TrimRight(string(rest[:cut]), " "))
		rest = rest[cut:]
		for len(rest) > 0 && rest[0] == ' ' {
			rest = rest[1:]
		}
	}
	return out
}
