// Package storage moves the address book between memory and XML files and
// remembers which file was used last.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kingrea/addressapp/internal/prefs"
	"github.com/kingrea/addressapp/internal/roster"
)

// LastPathKey names the preference that holds the last used file.
const LastPathKey = "filePath"

var (
	// ErrLoad matches every *LoadError.
	ErrLoad = errors.New("storage: could not load data")
	// ErrSave matches every *SaveError.
	ErrSave = errors.New("storage: could not save data")
)

// LoadError reports a file that is missing, unreadable or malformed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("storage: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// SaveError reports a destination that could not be written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("storage: save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrSave.
func (e *SaveError) Is(target error) bool { return target == ErrSave }

// Store loads and saves one roster. Loads and saves hold the same lock, so
// two of them never interleave against the list.
type Store struct {
	list  *roster.List
	prefs prefs.Store
	warn  func(format string, args ...any)
	mu    sync.Mutex
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithWarnFunc receives problems that do not fail the operation, such as a
// preference that could not be written after a successful save.
func WithWarnFunc(fn func(format string, args ...any)) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.warn = fn
		}
	}
}

// NewStore binds a store to list and the preference node that remembers the
// last path. A nil preference store falls back to an in-memory one.
func NewStore(list *roster.List, settings prefs.Store, opts ...StoreOption) *Store {
	if settings == nil {
		settings = prefs.NewMemory()
	}
	s := &Store{
		list:  list,
		prefs: settings,
		warn:  func(string, ...any) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// List returns the roster this store reads and replaces.
func (s *Store) List() *roster.List {
	return s.list
}

// Load replaces the list content with the records in path. The list is left
// untouched unless the whole file decoded cleanly.
func (s *Store) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path = strings.TrimSpace(path)
	if path == "" {
		return &LoadError{Path: path, Err: errors.New("no file given")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	records, err := Unmarshal(data)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	s.list.Replace(records)
	s.remember(path)
	return nil
}

// Save writes the list to path through a temporary file in the same
// directory, so an existing file survives a failed write.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path = strings.TrimSpace(path)
	if path == "" {
		return &SaveError{Path: path, Err: errors.New("no file given")}
	}
	data, err := Marshal(s.list.Snapshot())
	if err != nil {
		return &SaveError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	s.remember(path)
	return nil
}

// LastPath returns the remembered file, if any.
func (s *Store) LastPath() (string, bool) {
	v, ok := s.prefs.Get(LastPathKey)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// SetLastPath remembers path; an empty path clears the preference.
func (s *Store) SetLastPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if err := s.prefs.Remove(LastPathKey); err != nil {
			return fmt.Errorf("storage: clear last path: %w", err)
		}
		return nil
	}
	if err := s.prefs.Set(LastPathKey, path); err != nil {
		return fmt.Errorf("storage: remember %s: %w", path, err)
	}
	return nil
}

func (s *Store) remember(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := s.SetLastPath(path); err != nil {
		s.warn("%v", err)
	}
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
