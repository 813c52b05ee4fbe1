// Package fsutil is the file access seam of the perception tools.
//
// Frame discovery and decoding, the JSON result sink and the aggregate
// report all read and write through FileSystem, so their tests run against
// MemoryFileSystem instead of the disk.
package fsutil

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileSystem is the subset of file operations the pipeline and report need.
type FileSystem interface {
	Open(name string) (fs.File, error)
	ReadFile(name string) ([]byte, error)
	// WriteFile fails when the parent directory does not exist.
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Exists(name string) bool
	// WalkFiles calls fn for every regular file below root, in lexical
	// order. It stops at the first error fn returns.
	WalkFiles(root string, fn func(path string) error) error
}

// OSFileSystem is FileSystem on the host disk.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error) { return os.Open(name) }

func (OSFileSystem) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// WalkFiles relies on filepath.WalkDir visiting entries in lexical order.
func (OSFileSystem) WalkFiles(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			return nil
		}
		return fn(path)
	})
}

// MemoryFileSystem keeps files and directories in maps. It is safe for
// concurrent use.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemoryFileSystem returns an empty MemoryFileSystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func isRoot(p string) bool { return p == "." || p == "/" }

func (m *MemoryFileSystem) lookup(op, name string) (string, []byte, error) {
	name = filepath.Clean(name)
	data, ok := m.files[name]
	if !ok {
		return name, nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return name, data, nil
}

func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, data, err := m.lookup("open", name)
	if err != nil {
		return nil, err
	}
	return &memFile{
		Reader: bytes.NewReader(data),
		info:   memInfo{name: filepath.Base(name), size: int64(len(data))},
	}, nil
}

// ReadFile returns a copy of the stored contents.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, data, err := m.lookup("read", name)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func (m *MemoryFileSystem) WriteFile(name string, data []byte, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	if dir := filepath.Dir(name); !isRoot(dir) && !m.dirs[dir] {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrNotExist}
	}
	m.files[name] = bytes.Clone(data)
	return nil
}

func (m *MemoryFileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for p := filepath.Clean(path); !isRoot(p); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	_, isFile := m.files[name]
	return isFile || m.dirs[name]
}

// WalkFiles takes a snapshot of the matching names before calling fn, so fn
// may write to m.
func (m *MemoryFileSystem) WalkFiles(root string, fn func(path string) error) error {
	root = filepath.Clean(root)
	prefix := root + string(filepath.Separator)

	m.mu.RLock()
	var names []string
	for name := range m.files {
		if isRoot(root) || name == root || strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	known := m.dirs[root]
	m.mu.RUnlock()

	if len(names) == 0 && !known {
		return &fs.PathError{Op: "walk", Path: root, Err: fs.ErrNotExist}
	}

	sort.Strings(names)
	for _, name := range names {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}

type memFile struct {
	*bytes.Reader
	info memInfo
}

func (f *memFile) Close() error               { return nil }
func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }

type memInfo struct {
	name string
	size int64
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return 0o644 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }
