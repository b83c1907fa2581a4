package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/yndnr/statevault/internal/telemetry/logger"
)

const (
	filePrefix    = "version_"
	fileExtension = ".json"
	tempSuffix    = ".tmp"
)

// FileStore keeps one JSON file per version under a root directory.
//
// Writes go to a temporary file that is fsynced and then renamed into place,
// so a crash mid-write never leaves a loadable partial record.
type FileStore struct {
	dir    string
	codec  codec
	logger logger.Logger
	closed atomic.Bool
}

// NewFileStore opens (creating if needed) a file store rooted at dir.
// Temporary files left behind by an interrupted write are removed.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: dir is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}

	o := buildOptions(opts)
	s := &FileStore{
		dir:    dir,
		codec:  codec{cipher: o.cipher},
		logger: o.logger.With("component", "file_store"),
	}
	s.removeStaleTemps()
	return s, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file path for a version id.
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.dir, filePrefix+id+fileExtension)
}

// Put writes rec atomically. An existing record is never replaced.
func (s *FileStore) Put(ctx context.Context, rec *Record) error {
	if err := s.check(ctx, rec.VersionID); err != nil {
		return err
	}

	finalPath := s.Path(rec.VersionID)
	if _, err := os.Stat(finalPath); err == nil {
		return fmt.Errorf("%w: %s", ErrRecordExists, rec.VersionID)
	}

	data, err := s.codec.encode(rec)
	if err != nil {
		return err
	}

	tempPath := finalPath + tempSuffix
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("file store: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("file store: write: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("file store: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file store: close: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("file store: rename: %w", err)
	}
	s.syncDir()
	return nil
}

// Get reads and decodes the record for id.
func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := s.check(ctx, id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("file store: read: %w", err)
	}
	return s.codec.decode(id, data)
}

// Delete removes the record for id.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := s.check(ctx, id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return fmt.Errorf("file store: delete: %w", err)
	}
	return nil
}

// List returns the stored version ids in ascending order.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("file store: list: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := VersionIDFromFileName(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close marks the store closed. Files stay on disk.
func (s *FileStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *FileStore) ready(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *FileStore) check(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return checkID(id)
}

func (s *FileStore) removeStaleTemps() {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+fileExtension+tempSuffix))
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err == nil {
			s.logger.Warn("removed incomplete record", "path", m)
		}
	}
}

// syncDir makes the rename durable. Errors are ignored: not every platform
// supports fsync on a directory.
func (s *FileStore) syncDir() {
	d, err := os.Open(s.dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// VersionIDFromFileName returns the version id a FileStore record file name
// holds. Temporary and foreign files report false.
func VersionIDFromFileName(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExtension) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExtension)
	if checkID(id) != nil {
		return "", false
	}
	return id, true
}
