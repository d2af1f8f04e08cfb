// Package attachments stores uploaded daily report PDFs.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/repository"
)

// LocalStore keeps attachments as files in a single directory.
type LocalStore struct {
	dir    string
	logger *zap.Logger
}

var _ repository.AttachmentStore = (*LocalStore)(nil)

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, repository.IOFailure("create upload directory", err)
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return repository.IOFailure("store attachment", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return repository.IOFailure("store attachment", err)
	}
	s.logger.Debug("attachment stored", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}

func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrAttachmentNotFound, name)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", repository.ErrAttachmentNotFound, name)
	}
	if err != nil {
		return nil, repository.Unavailable("read attachment", err)
	}
	return data, nil
}

// Delete removes the file. A file that is already gone is not an error.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return repository.IOFailure("delete attachment", err)
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, name string) (bool, error) {
	path, err := s.resolve(name)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, repository.Unavailable("stat attachment", err)
	}
	return info.Mode().IsRegular(), nil
}

// resolve maps a bare file name into the upload directory. Names carrying a path are refused.
func (s *LocalStore) resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid attachment name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
