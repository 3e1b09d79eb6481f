package storage

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStore persists the context blob in a single file, written
// atomically through a rename.
type FileStore struct {
	path string
}

// NewFileStore creates a new FileStore for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Restore implements the Store interface.
func (s *FileStore) Restore() ([]byte, error) {
	b, err := ioutil.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read context file error")
	}
	if len(b) == 0 {
		return nil, ErrNotFound
	}
	return b, nil
}

// Save implements the Store interface.
func (s *FileStore) Save(b []byte) error {
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create context directory error")
	}
	if err := ioutil.WriteFile(tmp, b, 0o600); err != nil {
		return errors.Wrap(err, "write context file error")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "rename context file error")
	}
	return nil
}

// Close implements the Store interface.
func (s *FileStore) Close() error {
	return nil
}
