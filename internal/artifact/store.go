// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Store.Read for a missing artifact.
var ErrNotFound = errors.New("artifact not found")

// Store addresses artifacts by logical, slash-separated name.
//
// Write must be atomic: a reader observes either the previous content or the
// complete new content, never a prefix. Exists must report false for an
// artifact whose write did not complete.
type Store interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Exists(name string) (bool, error)
	// List returns the names starting with prefix in lexical order.
	List(prefix string) ([]string, error)
	Close() error
}

// tempPrefix marks in-flight FileStore writes; List and Exists ignore them.
const tempPrefix = ".tmp-"

// FileStore keeps each artifact in its own file under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates root if needed and returns a store over it.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("artifact root directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the store's directory.
func (s *FileStore) Root() string {
	return s.root
}

// Read returns the artifact content.
func (s *FileStore) Read(name string) ([]byte, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // path is confined to the store root by resolve
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Write stores data under name via a temp file in the same directory and a
// rename, so the final name only ever holds complete content.
func (s *FileStore) Write(name string, data []byte) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(p)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	committed = true
	return nil
}

// Exists reports whether a complete artifact is stored under name.
func (s *FileStore) Exists(name string) (bool, error) {
	p, err := s.resolve(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return info.Mode().IsRegular(), nil
}

// List returns artifact names with the given prefix. Only the directory that
// contains the prefix is scanned; listing is not recursive.
func (s *FileStore) List(prefix string) ([]string, error) {
	dir, base := path.Split(prefix)
	p, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(n, tempPrefix) || !strings.HasPrefix(n, base) {
			continue
		}
		names = append(names, dir+n)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error {
	return nil
}

// resolve maps a logical name to a path inside root, rejecting escapes.
func (s *FileStore) resolve(name string) (string, error) {
	clean := path.Clean("/" + name)
	if strings.Contains(name, "\\") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
