package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

const (
	ClusteringFile = "clustering_results.json"
	LayoutFile     = "layout_results.json"
)

// Store reads and writes the two pipeline artifacts. The layout pipeline
// loads the clustering artifact through here, so layouts can be recomputed
// without a fresh clustering run.
type Store struct {
	dir string
	log *logger.Logger
}

func NewStore(dir string, baseLog *logger.Logger) *Store {
	return &Store{dir: dir, log: baseLog.With("store", "artifacts")}
}

func (s *Store) WriteClustering(res domain.ClusteringResult) (string, error) {
	return s.write(ClusteringFile, res)
}

func (s *Store) ReadClustering() (domain.ClusteringResult, error) {
	var res domain.ClusteringResult
	err := s.read(ClusteringFile, &res)
	return res, err
}

func (s *Store) WriteLayout(res domain.LayoutResult) (string, error) {
	return s.write(LayoutFile, res)
}

func (s *Store) ReadLayout() (domain.LayoutResult, error) {
	var res domain.LayoutResult
	err := s.read(LayoutFile, &res)
	return res, err
}

func (s *Store) write(name string, doc any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("artifacts: mkdir %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, name)
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifacts: marshal %s: %w", name, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write %s: %w", path, err)
	}
	s.log.Info("wrote artifact", "path", path, "bytes", len(raw))
	return path, nil
}

func (s *Store) read(name string, doc any) error {
	path := filepath.Join(s.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("artifacts: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return fmt.Errorf("artifacts: parse %s: %w", path, err)
	}
	return nil
}
