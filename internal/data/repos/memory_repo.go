package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

type MemoryRepo interface {
	// GetWithEmbeddings returns the newest memories that carry an embedding
	// column, newest first. Rows whose embedding later turns out to be
	// malformed are the pipeline's problem, not the repo's.
	GetWithEmbeddings(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.Memory, error)
	Create(ctx context.Context, records []*domain.MemoryRecord) error
}

type memoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRepo {
	return &memoryRepo{db: db, log: baseLog.With("repo", "MemoryRepo")}
}

func (r *memoryRepo) GetWithEmbeddings(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.Memory, error) {
	var rows []*domain.MemoryRecord
	q := r.db.WithContext(ctx).Where("embedding IS NOT NULL")
	if tenantID != uuid.Nil {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Memory, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToMemory())
	}
	r.log.Info("fetched memories with embeddings", "count", len(out), "limit", limit)
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, records []*domain.MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	const batchSize = 500
	return r.db.WithContext(ctx).CreateInBatches(records, batchSize).Error
}
