// Package storage remembers the last outcome kind observed per target.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks the most recent outcome kind of each target.
type Store interface {
	Close() error
	LastKind(targetID string) (string, bool, error)
	SetKind(targetID, kind string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

// Supported storage backends.
const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
)

const (
	defaultEntryTTL        = 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                          { return nil }
func (noopStore) LastKind(string) (string, bool, error) { return "", false, nil }
func (noopStore) SetKind(string, string) error          { return nil }
