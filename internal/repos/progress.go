package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

// ProgressRepo is the per-user progress document store: read, and shallow
// merge-write. Missing users read as an empty document, not an error.
type ProgressRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*types.UserProgress, error)
	MergeSet(ctx context.Context, tx *gorm.DB, userID string, patch map[string]any) (*types.UserProgress, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *progressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*types.UserProgress, error) {
	var row types.UserProgress
	err := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &types.UserProgress{
			ID:     uuid.New(),
			UserID: userID,
			Doc:    datatypes.JSON([]byte(`{}`)),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MergeSet merges patch into the stored document at the top level: existing
// keys survive unless the patch overwrites them.
func (r *progressRepo) MergeSet(ctx context.Context, tx *gorm.DB, userID string, patch map[string]any) (*types.UserProgress, error) {
	conn := r.conn(tx).WithContext(ctx)

	row, err := r.GetByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if len(row.Doc) > 0 {
		if err := json.Unmarshal(row.Doc, &doc); err != nil {
			r.log.Warn("progress doc unreadable, resetting", "user_id", userID, "error", err)
			doc = map[string]any{}
		}
	}
	for k, v := range patch {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal progress doc: %w", err)
	}
	row.Doc = datatypes.JSON(merged)

	if err := conn.Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
