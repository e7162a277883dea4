package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/repos"
)

// ProgressService owns the per-user progress document: a small usage ledger
// the analysis and mentor paths append to. It sits outside the generation
// pipeline; a store failure never fails a user request.
type ProgressService interface {
	Get(ctx context.Context, userID string) (map[string]any, error)
	Merge(ctx context.Context, userID string, patch map[string]any) (map[string]any, error)
	RecordEvent(ctx context.Context, userID, kind string, usedFallback bool)
}

type progressService struct {
	log  *logger.Logger
	repo repos.ProgressRepo
}

func NewProgressService(log *logger.Logger, repo repos.ProgressRepo) ProgressService {
	return &progressService{
		log:  log.With("service", "ProgressService"),
		repo: repo,
	}
}

func (s *progressService) Get(ctx context.Context, userID string) (map[string]any, error) {
	row, err := s.repo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if len(row.Doc) > 0 {
		if err := json.Unmarshal(row.Doc, &doc); err != nil {
			s.log.WithCtx(ctx).Warn("progress doc unreadable", "user_id", userID, "error", err)
			return map[string]any{}, nil
		}
	}
	return doc, nil
}

func (s *progressService) Merge(ctx context.Context, userID string, patch map[string]any) (map[string]any, error) {
	row, err := s.repo.MergeSet(ctx, nil, userID, patch)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(row.Doc, &doc); err != nil {
		return map[string]any{}, nil
	}
	return doc, nil
}

// RecordEvent bumps the counter for one pipeline run. Best-effort: failures
// are logged and swallowed.
func (s *progressService) RecordEvent(ctx context.Context, userID, kind string, usedFallback bool) {
	if userID == "" {
		return
	}
	doc, err := s.Get(ctx, userID)
	if err != nil {
		s.log.WithCtx(ctx).Warn("progress read failed", "user_id", userID, "error", err)
		return
	}
	counterKey := kind + "_count"
	count := 0
	if v, ok := doc[counterKey].(float64); ok {
		count = int(v)
	}
	patch := map[string]any{
		counterKey:       count + 1,
		"last_event":     kind,
		"last_fallback":  usedFallback,
		"last_active_at": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.Merge(ctx, userID, patch); err != nil {
		s.log.WithCtx(ctx).Warn("progress write failed", "user_id", userID, "error", err)
	}
}
