package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MemoryKeyValue keeps values for the lifetime of the process.
type MemoryKeyValue struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{values: map[string]string{}}
}

func (m *MemoryKeyValue) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryKeyValue) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// FileKeyValue persists values as a JSON object in a single file readable
// only by the current user.
type FileKeyValue struct {
	mu   sync.Mutex
	path string
}

func NewFileKeyValue(path string) *FileKeyValue {
	return &FileKeyValue{path: path}
}

func (f *FileKeyValue) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (f *FileKeyValue) Set(key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *FileKeyValue) read() (map[string]string, error) {
	contents, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %q: %w", f.path, err)
	}

	values := map[string]string{}
	if len(contents) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(contents, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", f.path, err)
	}
	return values, nil
}

func (f *FileKeyValue) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create %q: %w", filepath.Dir(f.path), err)
	}

	contents, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(contents); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", f.path, err)
	}
	return nil
}
