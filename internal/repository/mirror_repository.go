package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/unclebandit/clinic-crm/internal/model"
)

// MirrorRepository is the single-slot local copy of the customer list.
// Load reports found=false when nothing has been saved yet. Save replaces
// the whole collection.
type MirrorRepository interface {
	Load(ctx context.Context) ([]model.Customer, bool, error)
	Save(ctx context.Context, customers []model.Customer) error
}

// MemoryMirror keeps the snapshot in process memory.
type MemoryMirror struct {
	mu        sync.Mutex
	customers []model.Customer
	saved     bool
}

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{}
}

func (m *MemoryMirror) Load(ctx context.Context) ([]model.Customer, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, false, nil
	}
	out := make([]model.Customer, len(m.customers))
	copy(out, m.customers)
	return out, true, nil
}

func (m *MemoryMirror) Save(ctx context.Context, customers []model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers = make([]model.Customer, len(customers))
	copy(m.customers, customers)
	m.saved = true
	return nil
}

// FileMirror stores the snapshot as a JSON file.
type FileMirror struct {
	Path string
	mu   sync.Mutex
}

func NewFileMirror(path string) *FileMirror {
	return &FileMirror{Path: path}
}

func (f *FileMirror) Load(ctx context.Context) ([]model.Customer, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return decodeSnapshot(data)
}

// Save writes to a temp file and renames it over the old snapshot.
func (f *FileMirror) Save(ctx context.Context, customers []model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := encodeSnapshot(customers)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, ".mirror-*.json")
	if err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write mirror: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write mirror: %w", err)
	}
	return os.Rename(tmp.Name(), f.Path)
}

func encodeSnapshot(customers []model.Customer) ([]byte, error) {
	if customers == nil {
		customers = []model.Customer{}
	}
	return json.Marshal(customers)
}

func decodeSnapshot(data []byte) ([]model.Customer, bool, error) {
	var customers []model.Customer
	if err := json.Unmarshal(data, &customers); err != nil {
		return nil, false, fmt.Errorf("decode mirror: %w", err)
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	return customers, true, nil
}

var (
	_ MirrorRepository = (*MemoryMirror)(nil)
	_ MirrorRepository = (*FileMirror)(nil)
)
