// Package prefs persists small per-user values, such as the last opened
// address file, outside the address files themselves.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultNode scopes the values of this application inside the shared
	// preferences file.
	DefaultNode = "kr/greedyeater/address"

	fileName = "prefs.yaml"
	envPath  = "ADDRESSAPP_PREFS"
)

// Store is a key-value settings node.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// fileDocument models prefs.yaml: node name -> key -> value.
type fileDocument struct {
	Nodes map[string]map[string]string `yaml:"nodes"`
}

// File is a Store backed by a YAML document in the user's config directory.
// Every write rewrites the whole document; other nodes are preserved.
type File struct {
	path string
	node string
	mu   sync.Mutex
}

// DefaultPath returns the preferences file location, honouring
// ADDRESSAPP_PREFS.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(envPath)); p != "" {
		return filepath.Clean(p), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("prefs: locate user config dir: %w", err)
	}
	return filepath.Join(dir, "addressapp", fileName), nil
}

// OpenFile returns a File store for node at path. The file is created lazily
// on the first write.
func OpenFile(path, node string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("prefs: path is required")
	}
	node = strings.TrimSpace(node)
	if node == "" {
		node = DefaultNode
	}
	return &File{path: path, node: node}, nil
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

// Node returns the node this store reads and writes.
func (f *File) Node() string { return f.node }

// Get reads key from the node. A missing or unreadable file reads as empty.
func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return "", false
	}
	v, ok := doc.Nodes[f.node][key]
	return v, ok
}

// Set stores value under key.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	values := doc.Nodes[f.node]
	if values == nil {
		values = map[string]string{}
		doc.Nodes[f.node] = values
	}
	values[key] = value
	return f.write(doc)
}

// Remove deletes key. Removing an absent key is not an error.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	values, ok := doc.Nodes[f.node]
	if !ok {
		return nil
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(doc.Nodes, f.node)
	}
	return f.write(doc)
}

func (f *File) read() (fileDocument, error) {
	doc := fileDocument{Nodes: map[string]map[string]string{}}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("prefs: read %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("prefs: parse %s: %w", f.path, err)
	}
	if doc.Nodes == nil {
		doc.Nodes = map[string]map[string]string{}
	}
	return doc, nil
}

func (f *File) write(doc fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("prefs: ensure dir: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("prefs: write %s: %w", f.path, err)
	}
	return nil
}
