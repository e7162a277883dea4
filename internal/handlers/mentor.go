package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hollowbyte/subtext-backend/internal/clients/redis"
	"github.com/hollowbyte/subtext-backend/internal/platform/ctxutil"
	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/services"
	"github.com/hollowbyte/subtext-backend/internal/sse"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

// streamDeadline bounds one background generation: the per-attempt model
// timeout times the attempt budget, plus slack for formatting.
const streamDeadline = 4 * time.Minute

type MentorHandler struct {
	log      *logger.Logger
	mentor   services.MentorService
	progress services.ProgressService
	hub      *sse.Hub
	bus      redis.ChunkBus // nil when running single-instance
}

func NewMentorHandler(log *logger.Logger, svc services.MentorService, progress services.ProgressService, hub *sse.Hub, bus redis.ChunkBus) *MentorHandler {
	return &MentorHandler{
		log:      log.With("handler", "MentorHandler"),
		mentor:   svc,
		progress: progress,
		hub:      hub,
		bus:      bus,
	}
}

type mentorRequest struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Persona   string `json:"persona"`
	Preset    string `json:"preset"`
	Intensity string `json:"intensity"`
}

func (h *MentorHandler) Exchange(c *gin.Context) {
	body, ok := h.bindMentor(c)
	if !ok {
		return
	}

	result, err := h.mentor.Exchange(c.Request.Context(), mentorGenRequest(body))
	if err != nil {
		RespondServiceError(c, "mentor_failed", err)
		return
	}

	if h.progress != nil {
		h.progress.RecordEvent(c.Request.Context(), body.UserID, "mentor", result.Fallback)
	}
	RespondOK(c, result)
}

type streamStarted struct {
	StreamID string `json:"stream_id"`
	Channel  string `json:"channel"`
}

// StartStream kicks off background generation and returns the channel to
// subscribe to on /sse/stream. Chunks arrive in order and the stream always
// terminates with the done event — the fallback path streams identically.
func (h *MentorHandler) StartStream(c *gin.Context) {
	body, ok := h.bindMentor(c)
	if !ok {
		return
	}

	streamID := uuid.NewString()
	channel := "mentor:" + streamID
	trace := ctxutil.GetTraceData(c.Request.Context())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), streamDeadline)
		defer cancel()
		if trace != nil {
			ctx = ctxutil.WithTraceData(ctx, trace)
		}

		result, err := h.mentor.Stream(ctx, mentorGenRequest(body), func(chunk string) {
			h.publish(ctx, sse.Message{Channel: channel, Event: sse.EventChunk, Data: chunk})
		})
		if err != nil {
			// Only a contract violation lands here; upstream failures were
			// already absorbed by the fallback. End the stream with a bare
			// done marker so subscribers never hang.
			h.log.WithCtx(ctx).Error("mentor stream aborted", "stream_id", streamID, "error", err)
			h.publish(ctx, sse.Message{Channel: channel, Event: sse.EventDone, Data: gin.H{"fallback": true}})
			return
		}
		h.publish(ctx, sse.Message{Channel: channel, Event: sse.EventDone, Data: result})

		if h.progress != nil {
			h.progress.RecordEvent(ctx, body.UserID, "mentor", result.Fallback)
		}
	}()

	c.JSON(http.StatusAccepted, streamStarted{StreamID: streamID, Channel: channel})
}

func (h *MentorHandler) publish(ctx context.Context, msg sse.Message) {
	if h.bus != nil {
		if err := h.bus.Publish(ctx, msg); err == nil {
			return
		}
		h.log.Warn("chunk bus publish failed, using local hub", "channel", msg.Channel)
	}
	h.hub.Broadcast(msg)
}

func (h *MentorHandler) bindMentor(c *gin.Context) (mentorRequest, bool) {
	var body mentorRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return mentorRequest{}, false
	}
	if strings.TrimSpace(body.Message) == "" {
		RespondError(c, http.StatusBadRequest, "empty_input", fmt.Errorf("message is required"))
		return mentorRequest{}, false
	}
	return body, true
}

func mentorGenRequest(body mentorRequest) types.GenerationRequest {
	return types.GenerationRequest{
		Mode:       types.MentorMode,
		RawInput:   body.Message,
		PersonaKey: body.Persona,
		Preset:     body.Preset,
		Intensity:  body.Intensity,
	}
}
