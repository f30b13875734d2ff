package localstore

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"shifttrack/internal/model"
)

// FileStore keeps the slot as one JSON file.
type FileStore struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

func NewFileStore(fsys afero.Fs, path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{fs: fsys, path: path, logger: logger.With("store", "file", "path", path)}
}

func (s *FileStore) Save(entry model.LocalEntry) {
	data, err := encode(entry)
	if err != nil {
		s.logger.Warn("encode local entry", "error", err)
		return
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			s.logger.Warn("create local store dir", "error", err)
			return
		}
	}

	// Each save gets its own temp file so concurrent saves never share one.
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		s.logger.Warn("create temp local entry", "error", err)
		return
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		s.logger.Warn("write local entry", "error", err)
		_ = s.fs.Remove(tmp.Name())
		return
	}
	if err := s.fs.Rename(tmp.Name(), s.path); err != nil {
		s.logger.Warn("replace local entry", "error", err)
		_ = s.fs.Remove(tmp.Name())
	}
}

func (s *FileStore) Load() (model.LocalEntry, bool) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read local entry", "error", err)
		}
		return model.LocalEntry{}, false
	}

	entry, err := decode(data)
	if err != nil {
		s.logger.Warn("discarding local entry", "error", err)
		return model.LocalEntry{}, false
	}
	if entry.SwapIn == nil {
		return model.LocalEntry{}, false
	}
	return entry, true
}

func (s *FileStore) Clear() {
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("clear local entry", "error", err)
	}
}
