// Package store persists the pricing configuration. Every store hands out
// copies, so a loaded configuration can be passed to calculations as an
// immutable snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/iwvelando/adu-proposal/pkg/constants"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a requested revision does not exist.
	ErrNotFound = errors.New("pricing configuration revision not found")
	// ErrInvalid is returned when Save is given a configuration that fails
	// validation.
	ErrInvalid = errors.New("invalid pricing configuration")
)

// Revision describes one saved configuration.
type Revision struct {
	ID            int64                        `json:"id"`
	Version       string                       `json:"version"`
	SavedAt       time.Time                    `json:"savedAt"`
	Note          string                       `json:"note,omitempty"`
	Configuration *pricingconfig.Configuration `json:"configuration,omitempty"`
}

// Store loads and saves the pricing configuration.
type Store interface {
	// Load returns the current configuration. Missing or unreadable data
	// falls back to defaults; the notes describe any fallback taken.
	Load(ctx context.Context) (pricingconfig.Configuration, []string, error)
	// Save validates c, stamps it with the current version and time and
	// stores it as the newest revision.
	Save(ctx context.Context, c pricingconfig.Configuration, note string) (pricingconfig.Configuration, error)
	// History lists saved revisions newest first, without their documents.
	History(ctx context.Context, limit int) ([]Revision, error)
	// Revision returns one revision including its document.
	Revision(ctx context.Context, id int64) (Revision, error)
	Close() error
}

// New opens the store kind names.
func New(logger *zap.Logger, kind, path string) (Store, error) {
	switch kind {
	case constants.PricingStoreFile, "":
		return NewFileStore(logger, path), nil
	case constants.PricingStoreSQLite:
		return OpenSQLite(logger, path)
	default:
		return nil, fmt.Errorf("unknown pricing store %q, expected %s or %s", kind, constants.PricingStoreFile, constants.PricingStoreSQLite)
	}
}

// prepare readies c for storage.
func prepare(c pricingconfig.Configuration, now time.Time) (pricingconfig.Configuration, error) {
	c = c.Clone()
	c.Version = constants.PricingConfigVersion
	c.LastUpdated = now.UTC()
	if err := c.Validate(); err != nil {
		return pricingconfig.Configuration{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return c, nil
}
