package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mnemoatlas/atlas-backend/internal/data/repos"
	"github.com/mnemoatlas/atlas-backend/internal/domain"
)

// Source abstracts where the pipeline's input snapshot comes from. The
// pipeline itself only ever sees an in-memory list.
type Source interface {
	Fetch(ctx context.Context, limit int) ([]domain.Memory, error)
}

type repoSource struct {
	repo     repos.MemoryRepo
	tenantID uuid.UUID
}

func FromRepo(repo repos.MemoryRepo, tenantID uuid.UUID) Source {
	return &repoSource{repo: repo, tenantID: tenantID}
}

func (s *repoSource) Fetch(ctx context.Context, limit int) ([]domain.Memory, error) {
	return s.repo.GetWithEmbeddings(ctx, s.tenantID, limit)
}

// fileMemory mirrors the JSON dump format some deployments export instead of
// granting database access. The embedding stays raw JSON.
type fileMemory struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Source    string          `json:"source"`
	Category  string          `json:"category"`
	CreatedAt string          `json:"created_at"`
	Embedding json.RawMessage `json:"embedding"`
}

type fileSource struct {
	path string
}

func FromFile(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Fetch(ctx context.Context, limit int) ([]domain.Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", s.path, err)
	}
	var rows []fileMemory
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", s.path, err)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]domain.Memory, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Memory{
			ID:        row.ID,
			Content:   row.Content,
			Source:    row.Source,
			Category:  row.Category,
			Embedding: []byte(row.Embedding),
		})
	}
	return out, nil
}
