package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/pillbox/internal/constants"
)

type fileStore struct {
	Version int               `json:"version"`
	Records map[string]string `json:"records"`
}

// JSONStore keeps every record in a single JSON file. Reads go to the file so
// records written by other processes are seen; each Set re-reads the file,
// replaces its own key and rewrites it through a temp file and rename.
type JSONStore struct {
	mu    sync.Mutex
	path  string
	store *fileStore
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.load()
	}

	s.store = &fileStore{
		Version: 1,
		Records: make(map[string]string),
	}
	return s.save()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	store := &fileStore{}
	if err := json.Unmarshal(data, store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if store.Records == nil {
		store.Records = make(map[string]string)
	}
	s.store = store
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

func (s *JSONStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return "", false, ErrNotLoaded
	}
	if err := s.load(); err != nil {
		return "", false, err
	}
	v, ok := s.store.Records[key]
	return v, ok, nil
}

func (s *JSONStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNotLoaded
	}
	if err := s.load(); err != nil {
		return err
	}

	prev, had := s.store.Records[key]
	s.store.Records[key] = value
	if err := s.save(); err != nil {
		if had {
			s.store.Records[key] = prev
		} else {
			delete(s.store.Records, key)
		}
		return err
	}
	return nil
}

// GetConfigPath returns the path to the underlying storage file.
//
// Writes from several processes are not locked against each other; two
// concurrent writes of the same record keep the last one.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}
