// Package storage provides the key-value substrate the story library persists to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrClosed         = errors.New("store closed")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// KV is a durable string-to-string store. Writes replace the whole value of a key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Option configures Open.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used to report recovered storage problems.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the KV implementation named by backend, rooted at dataDir.
func Open(backend, dataDir string, opts ...Option) (KV, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteKV(filepath.Join(dataDir, "ploomer.db"))
	case BackendFile:
		return NewFileKV(filepath.Join(dataDir, "storage.json"), opts...)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
