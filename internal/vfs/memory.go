package vfs

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process FileSystem fixture used by tests that want
// deterministic, filesystem-free vaults.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	mtime map[string]time.Time
	clock time.Time
}

// NewMemory constructs an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string][]byte),
		mtime: make(map[string]time.Time),
		clock: time.Unix(0, 0),
	}
}

func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *Memory) List(dir string, exts []string) ([]Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Metadata
	prefix := strings.TrimSuffix(dir, "/")
	for p, data := range m.files {
		if prefix != "" && !strings.HasPrefix(p, prefix+"/") && p != prefix {
			continue
		}
		if !hasExt(path.Base(p), exts) {
			continue
		}
		out = append(out, Metadata{Path: p, Size: int64(len(data)), ModTime: m.mtime[p]})
	}
	return out, nil
}

func (m *Memory) Read(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("vfs: read %s: not found", p)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Stat(p string) (Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p]
	if !ok {
		return Metadata{}, fmt.Errorf("vfs: stat %s: not found", p)
	}
	return Metadata{Path: p, Size: int64(len(data)), ModTime: m.mtime[p]}, nil
}

func (m *Memory) Write(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(content))
	copy(buf, content)
	m.files[p] = buf
	m.mtime[p] = m.tick()
	return nil
}

func (m *Memory) Delete(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[p]; !ok {
		return fmt.Errorf("vfs: delete %s: not found", p)
	}
	delete(m.files, p)
	delete(m.mtime, p)
	return nil
}

func (m *Memory) Move(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[oldPath]
	if !ok {
		return fmt.Errorf("vfs: move %s: not found", oldPath)
	}
	delete(m.files, oldPath)
	delete(m.mtime, oldPath)
	m.files[newPath] = data
	m.mtime[newPath] = m.tick()
	return nil
}

var _ FileSystem = (*Memory)(nil)
