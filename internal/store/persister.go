package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey names the single persisted pipeline blob.
const StorageKey = "velvet-rope-pipeline"

// Persister loads and saves the serialized pipeline state.
// Load returns nil data with a nil error when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FilePersister keeps the state as a JSON file named after StorageKey in Dir.
type FilePersister struct {
	Dir string
}

// NewFilePersister creates a persister rooted at dir.
func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{Dir: dir}
}

// Path returns the file the state is written to.
func (p *FilePersister) Path() string {
	return filepath.Join(p.Dir, StorageKey+".json")
}

// Load implements Persister.
func (p *FilePersister) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Path(), err)
	}
	return data, nil
}

// Save implements Persister. The file is replaced atomically via rename.
func (p *FilePersister) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", p.Dir, err)
	}

	tmp, err := os.CreateTemp(p.Dir, StorageKey+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), p.Path())
}

// MemoryPersister keeps the state in memory.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
	// SaveErr, when set, is returned from every Save.
	SaveErr error
	saves   int
}

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

// Load implements Persister.
func (p *MemoryPersister) Load(_ context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, nil
	}
	return append([]byte(nil), p.data...), nil
}

// Save implements Persister.
func (p *MemoryPersister) Save(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.SaveErr != nil {
		return p.SaveErr
	}
	p.data = append([]byte(nil), data...)
	return nil
}

// Saves returns how many times Save was called.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Set replaces the stored bytes directly.
func (p *MemoryPersister) Set(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = data
}
