package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/smileworks/clinic-core/pkg/types"
)

// FileStore persists each collection as a JSON file under a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewStorageError(types.ErrCodeStorageCorrupt, "failed to create storage directory "+dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// Load decodes the collection file into v. A missing file leaves v
// untouched.
func (s *FileStore) Load(collection string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "failed to read collection "+collection, err)
	}

	if len(blob) == 0 {
		return nil
	}

	if err := json.Unmarshal(blob, v); err != nil {
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "stored collection "+collection+" is not valid JSON", err)
	}
	return nil
}

// Save replaces the collection file wholesale. The write goes through
// a temp file and rename so a crash mid-write cannot leave a
// half-written collection behind.
func (s *FileStore) Save(collection string, v interface{}) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "failed to marshal collection "+collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "failed to write collection "+collection, err)
	}
	if err := os.Rename(tmp, s.path(collection)); err != nil {
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "failed to replace collection "+collection, err)
	}
	return nil
}
