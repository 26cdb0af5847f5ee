// Package storage persists JSON documents as date-stamped files.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/snapshot"
	"github.com/younsl/ec2stats/pkg/utils"
)

// File name prefixes
const (
	SnapshotPrefix = "ec2stats"
	SummaryPrefix  = "ec2summary"
)

// PersistenceError reports a document that could not be written
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Archiver mirrors a saved document elsewhere, such as an S3 bucket
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte) error
}

// Store writes {prefix}-{YYYY-MM-DD}.json files into Dir
type Store struct {
	Dir      string
	Now      func() time.Time
	Archiver Archiver
}

// NewStore creates a Store for dir, the current directory when empty
func NewStore(dir string, archiver Archiver) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{
		Dir:      dir,
		Now:      time.Now,
		Archiver: archiver,
	}
}

// FileName returns the file name used today for prefix
func (s *Store) FileName(prefix string) string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return fmt.Sprintf("%s-%s.json", prefix, utils.DateStamp(now()))
}

// Save writes data to today's file for prefix, replacing an existing one,
// and mirrors it to the archiver if configured. The returned path is valid
// even when the archive upload fails.
func (s *Store) Save(ctx context.Context, prefix string, data []byte) (string, error) {
	name := s.FileName(prefix)
	path := filepath.Join(s.Dir, name)

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	slog.Debug("saved document", "path", path, "size", humanize.Bytes(uint64(len(data))))

	if s.Archiver != nil {
		if err := s.Archiver.Archive(ctx, name, data); err != nil {
			return path, &PersistenceError{Path: name, Err: err}
		}
		slog.Debug("archived document", "name", name)
	}
	return path, nil
}

// LoadSnapshot reads and decodes a saved snapshot file
func LoadSnapshot(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	return snapshot.DecodeSnapshot(data)
}
