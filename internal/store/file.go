package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"go.uber.org/zap"
)

// FileStore keeps the configuration as a single JSON document. It holds one
// revision: each save replaces the file.
type FileStore struct {
	logger *zap.Logger
	path   string
	now    func() time.Time
	mu     sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on the
// first save.
func NewFileStore(logger *zap.Logger, path string) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{logger: logger, path: path, now: time.Now}
}

// Load reads the document, migrating or falling back to defaults as needed.
func (s *FileStore) Load(ctx context.Context) (pricingconfig.Configuration, []string, error) {
	if err := ctx.Err(); err != nil {
		return pricingconfig.Configuration{}, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		note := "no stored pricing configuration, using defaults"
		s.logger.Info(note,
			zap.String("op", "store.FileStore.Load"),
			zap.String("path", s.path),
		)
		c := pricingconfig.Defaults()
		c.LastUpdated = s.now().UTC()
		return c, []string{note}, nil
	}
	if err != nil {
		return pricingconfig.Configuration{}, nil, fmt.Errorf("read pricing configuration %s: %w", s.path, err)
	}

	c, notes := pricingconfig.Load(s.logger, data, s.now().UTC())
	return c, notes, nil
}

// Save writes c through a temporary file so readers never see a partial
// document.
func (s *FileStore) Save(ctx context.Context, c pricingconfig.Configuration, note string) (pricingconfig.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return pricingconfig.Configuration{}, err
	}
	c, err := prepare(c, s.now())
	if err != nil {
		return pricingconfig.Configuration{}, err
	}
	data, err := pricingconfig.Marshal(c)
	if err != nil {
		return pricingconfig.Configuration{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pricingconfig.Configuration{}, fmt.Errorf("create pricing configuration directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return pricingconfig.Configuration{}, fmt.Errorf("write pricing configuration: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return pricingconfig.Configuration{}, fmt.Errorf("replace pricing configuration: %w", err)
	}

	s.logger.Info("saved pricing configuration",
		zap.String("op", "store.FileStore.Save"),
		zap.String("path", s.path),
		zap.String("note", note),
	)
	return c, nil
}

// History returns the single stored revision, if any.
func (s *FileStore) History(ctx context.Context, limit int) ([]Revision, error) {
	rev, err := s.Revision(ctx, 1)
	if errors.Is(err, ErrNotFound) || limit == 0 {
		return []Revision{}, nil
	}
	if err != nil {
		return nil, err
	}
	rev.Configuration = nil
	return []Revision{rev}, nil
}

// Revision returns the stored document as revision 1.
func (s *FileStore) Revision(ctx context.Context, id int64) (Revision, error) {
	if err := ctx.Err(); err != nil {
		return Revision{}, err
	}
	if id != 1 {
		return Revision{}, ErrNotFound
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return Revision{}, ErrNotFound
	}
	if err != nil {
		return Revision{}, fmt.Errorf("read pricing configuration %s: %w", s.path, err)
	}

	c, _ := pricingconfig.Load(s.logger, data, s.now().UTC())
	return Revision{ID: 1, Version: c.Version, SavedAt: c.LastUpdated, Configuration: &c}, nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
