// Package fsys abstracts the filesystem writes of a provisioning run, with
// an OS implementation and an in-memory one for tests and dry runs. Both
// sit on afero filesystems.
package fsys

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// Files is the filesystem surface the steps touch.
type Files interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(name string, perm os.FileMode) error
	Exists(name string) bool
	Symlink(target, link string) error
	Remove(name string) error
}

var osFs = &afero.OsFs{}

// OS implements Files on the real filesystem.
type OS struct{}

// ReadFile reads a file.
func (OS) ReadFile(name string) ([]byte, error) { return afero.ReadFile(osFs, name) }

// WriteFile writes data through a temporary file and renames it into place.
func (OS) WriteFile(name string, data []byte, perm os.FileMode) error {
	tmp := name + ".wpstack-tmp"
	if err := afero.WriteFile(osFs, tmp, data, perm); err != nil {
		return cerr.Wrapf(err, "failed to write %s", name)
	}
	// umask may have narrowed perm
	if err := osFs.Chmod(tmp, perm); err != nil {
		_ = osFs.Remove(tmp)
		return cerr.Wrapf(err, "failed to chmod %s", name)
	}
	if err := osFs.Rename(tmp, name); err != nil {
		_ = osFs.Remove(tmp)
		return cerr.Wrapf(err, "failed to move %s into place", name)
	}
	return nil
}

// MkdirAll creates a directory and its parents.
func (OS) MkdirAll(name string, perm os.FileMode) error { return osFs.MkdirAll(name, perm) }

// Exists reports whether name exists, without following a final symlink.
func (OS) Exists(name string) bool {
	_, _, err := osFs.LstatIfPossible(name)
	return err == nil
}

// Symlink creates link pointing at target.
func (OS) Symlink(target, link string) error { return osFs.SymlinkIfPossible(target, link) }

// Remove removes a file or symlink.
func (OS) Remove(name string) error { return osFs.Remove(name) }

// MemEntry describes a path held by Mem.
type MemEntry struct {
	Data []byte
	Perm os.FileMode
	Link string // symlink target, empty for regular files and directories
	Dir  bool
}

// Mem is an in-memory Files used by tests and dry runs. Files and
// directories live in an afero.MemMapFs; symlinks, which MemMapFs cannot
// represent, are kept beside it.
type Mem struct {
	fs afero.Afero

	mu    sync.Mutex
	links map[string]string
}

// NewMem creates an empty in-memory filesystem.
func NewMem() *Mem {
	return &Mem{
		fs:    afero.Afero{Fs: afero.NewMemMapFs()},
		links: map[string]string{},
	}
}

func clean(name string) string { return path.Clean("/" + name) }

func (m *Mem) link(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.links[clean(name)]
	return target, ok
}

// ReadFile returns a regular file's content, following one symlink.
func (m *Mem) ReadFile(name string) ([]byte, error) {
	p := clean(name)
	if target, ok := m.link(p); ok {
		p = clean(target)
	}
	if isDir, _ := m.fs.IsDir(p); isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	data, err := m.fs.ReadFile(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

// WriteFile stores data, creating parent directories implicitly.
func (m *Mem) WriteFile(name string, data []byte, perm os.FileMode) error {
	p := clean(name)
	if target, ok := m.link(p); ok {
		p = clean(target)
	}
	if err := m.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return err
	}
	if err := m.fs.WriteFile(p, data, perm); err != nil {
		return err
	}
	return m.fs.Chmod(p, perm)
}

// MkdirAll records a directory and its parents.
func (m *Mem) MkdirAll(name string, perm os.FileMode) error {
	return m.fs.MkdirAll(clean(name), perm)
}

// Exists reports whether name was written, linked or created as a directory.
func (m *Mem) Exists(name string) bool {
	if _, ok := m.link(name); ok {
		return true
	}
	ok, _ := m.fs.Exists(clean(name))
	return ok
}

// Symlink records link pointing at target.
func (m *Mem) Symlink(target, link string) error {
	if m.Exists(link) {
		return &fs.PathError{Op: "symlink", Path: link, Err: fs.ErrExist}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[clean(link)] = target
	return nil
}

// Remove deletes name. A symlink is removed, not its target.
func (m *Mem) Remove(name string) error {
	m.mu.Lock()
	if _, ok := m.links[clean(name)]; ok {
		delete(m.links, clean(name))
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if ok, _ := m.fs.Exists(clean(name)); !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	return m.fs.Remove(clean(name))
}

// Entry describes the path stored at name.
func (m *Mem) Entry(name string) (MemEntry, bool) {
	if target, ok := m.link(name); ok {
		return MemEntry{Link: target, Perm: 0777 | fs.ModeSymlink}, true
	}
	info, err := m.fs.Stat(clean(name))
	if err != nil {
		return MemEntry{}, false
	}
	if info.IsDir() {
		return MemEntry{Dir: true, Perm: info.Mode()}, true
	}
	data, err := m.fs.ReadFile(clean(name))
	if err != nil {
		return MemEntry{}, false
	}
	return MemEntry{Data: data, Perm: info.Mode().Perm()}, true
}

// Paths returns every stored path starting with prefix, sorted. The root
// itself is never listed.
func (m *Mem) Paths(prefix string) []string {
	root := clean(prefix)
	var out []string
	_ = m.fs.Walk("/", func(p string, _ os.FileInfo, err error) error {
		if err == nil && p != "/" && strings.HasPrefix(clean(p), root) {
			out = append(out, clean(p))
		}
		return nil
	})

	m.mu.Lock()
	for p := range m.links {
		if strings.HasPrefix(p, root) {
			out = append(out, p)
		}
	}
	m.mu.Unlock()

	sort.Strings(out)
	return out
}
