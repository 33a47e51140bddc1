package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sketchdesk/internal/logger"
)

// FileStore keeps all keys in one JSON object file. Changes are held in
// memory and written on Save, on Close, and by the auto-save loop.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]json.RawMessage
	dirty  bool
	closed bool
	logger logger.Logger

	stop chan struct{}
	done chan struct{}
}

// OpenFileStore loads path (creating its directory) and starts auto-saving
// every interval. An interval of zero disables auto-save. A corrupt file is
// treated as empty and overwritten on the next save.
func OpenFileStore(path string, interval time.Duration, log logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}

	s := &FileStore{
		path:   path,
		values: make(map[string]json.RawMessage),
		logger: log,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read settings file: %w", err)
	default:
		if err := json.Unmarshal(data, &s.values); err != nil {
			log.Warning("Settings", "settings file is corrupt, starting empty", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			s.values = make(map[string]json.RawMessage)
		}
		// A file holding the literal null decodes without error.
		if s.values == nil {
			s.values = make(map[string]json.RawMessage)
		}
	}

	if interval > 0 {
		go s.autoSave(interval)
	} else {
		close(s.done)
	}
	return s, nil
}

func (s *FileStore) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.values[key] = data
	s.dirty = true
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
	return nil
}

// Save writes the file atomically if anything changed since the last save.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *FileStore) saveLocked() error {
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}

	s.dirty = false
	return nil
}

// Close stops auto-save and writes outstanding changes.
func (s *FileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	select {
	case <-s.done:
	default:
		close(s.stop)
	}
	s.mu.Unlock()

	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Path returns the settings file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) autoSave(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Save(); err != nil {
				s.logger.Error("Settings", "auto-save failed", err, map[string]interface{}{
					"path": s.path,
				})
			}
		case <-s.stop:
			return
		}
	}
}

var _ Store = (*FileStore)(nil)
