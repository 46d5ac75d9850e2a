package advisor

import (
	"errors"
	"fmt"
	"os"
)

// Storage is the byte-stream handle backing a CompilationLog. The ledger
// rewrites the whole record sequence on every mutation, so the interface is
// deliberately read-everything / overwrite-everything.
type Storage interface {
	// Read returns the full current contents.
	Read() ([]byte, error)

	// Overwrite replaces the full contents durably.
	Overwrite(data []byte) error
}

// FileStorage persists ledger bytes in a plain file. A missing file reads as
// empty so a fresh device boots with an empty ledger.
type FileStorage struct {
	Path string
}

// NewFileStorage creates a FileStorage for the given path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// Read returns the file contents, or empty data if the file does not exist.
func (fs *FileStorage) Read() ([]byte, error) {
	data, err := os.ReadFile(fs.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ledger file: %w", err)
	}
	return data, nil
}

// Overwrite replaces the file contents.
func (fs *FileStorage) Overwrite(data []byte) error {
	if err := os.WriteFile(fs.Path, data, 0644); err != nil {
		return fmt.Errorf("writing ledger file: %w", err)
	}
	return nil
}
