package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileKV keeps all keys in one JSON document on disk. Every read goes to the
// file so several processes sharing it see each other's writes; writes replace
// the file by rename so readers never observe a partial document.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV creates a FileKV at path, creating the parent directory
func NewFileKV(path string) (*FileKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileKV{path: path}, nil
}

// Path returns the backing file
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) read() map[string]json.RawMessage {
	values := map[string]json.RawMessage{}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[WARN] read state file %s: %v", f.path, err)
		}
		return values
	}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Printf("[WARN] state file %s is corrupt, starting empty: %v", f.path, err)
		return map[string]json.RawMessage{}
	}
	return values
}

func (f *FileKV) write(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Get returns the raw JSON stored under key
func (f *FileKV) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.read()[key]
	if !ok {
		return nil, false
	}
	return []byte(v), true
}

// Set stores value under key. Values that are not valid JSON are stored as JSON strings.
func (f *FileKV) Set(key string, value []byte) error {
	return f.Apply(map[string][]byte{key: value})
}

// Delete removes key
func (f *FileKV) Delete(key string) error {
	return f.Apply(map[string][]byte{key: nil})
}

// Apply writes all changes in a single file replacement
func (f *FileKV) Apply(changes map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.read()
	for key, value := range changes {
		switch {
		case value == nil:
			delete(values, key)
		case json.Valid(value):
			values[key] = append(json.RawMessage(nil), value...)
		default:
			quoted, err := json.Marshal(string(value))
			if err != nil {
				return err
			}
			values[key] = quoted
		}
	}
	return f.write(values)
}

// Watch calls onChange whenever the state file is replaced or written, until ctx is done.
// The directory is watched because writers replace the file by rename.
func (f *FileKV) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(f.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					log.Printf("[DEBUG] state file changed: %s", event.Op)
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] state watcher: %v", err)
			}
		}
	}()
	return nil
}
