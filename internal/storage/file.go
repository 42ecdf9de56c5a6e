package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// corruptSuffix is appended to a storage file that failed to parse.
const corruptSuffix = ".corrupt"

// FileKV keeps every key in one JSON object file, rewritten atomically on each change.
type FileKV struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	closed bool
}

// NewFileKV returns a store backed by the JSON file at path. The file is
// created on the first write. A file that does not parse is moved aside and
// the store starts empty.
func NewFileKV(path string, opts ...Option) (*FileKV, error) {
	o := applyOptions(opts)
	kv := &FileKV{path: path, logger: o.logger}
	if _, err := kv.readAll(); err != nil {
		kv.logger.Warn("storage file unreadable", zap.String("path", path), zap.Error(err))
	}
	return kv, nil
}

func (f *FileKV) readAll() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	out := map[string]string{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		f.quarantine(err)
		return map[string]string{}, nil
	}
	return out, nil
}

// quarantine moves an unparsable file out of the way so the next write
// starts a fresh object.
func (f *FileKV) quarantine(cause error) {
	aside := f.path + corruptSuffix
	if err := os.Rename(f.path, aside); err != nil {
		f.logger.Warn("failed to move corrupt storage file aside",
			zap.String("path", f.path), zap.NamedError("cause", cause), zap.Error(err))
		return
	}
	f.logger.Warn("storage file is corrupt, starting empty",
		zap.String("path", f.path), zap.String("moved_to", aside), zap.Error(cause))
}

func (f *FileKV) writeAll(data map[string]string) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return AtomicWriteFile(f.path, encoded)
}

func (f *FileKV) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", ErrClosed
	}
	all, err := f.readAll()
	if err != nil {
		return "", err
	}
	v, ok := all[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (f *FileKV) Set(ctx context.Context, key, value string) error {
	return f.update(ctx, func(all map[string]string) { all[key] = value })
}

func (f *FileKV) Remove(ctx context.Context, key string) error {
	return f.update(ctx, func(all map[string]string) { delete(all, key) })
}

func (f *FileKV) update(ctx context.Context, mutate func(map[string]string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	all, err := f.readAll()
	if err != nil {
		return err
	}
	mutate(all)
	return f.writeAll(all)
}

func (f *FileKV) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
