package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"chantier-rapports/pkg/rapport"
	"chantier-rapports/pkg/storage"
)

// Storage garde les fichiers en mémoire, pour les tests et le développement.
// Les dossiers sont matérialisés par des marqueurs comme dans un object store.
type Storage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStorage crée un storage vide
func NewMemoryStorage() *Storage {
	return &Storage{files: make(map[string][]byte)}
}

func key(p string) string {
	return strings.TrimPrefix(p, "/")
}

func (m *Storage) Upload(ctx context.Context, p string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data for %s: %w", p, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key(p)] = content
	return nil
}

func (m *Storage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.files[key(p)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, p)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *Storage) Exists(ctx context.Context, p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[key(p)]
	return ok, nil
}

func (m *Storage) Delete(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[key(p)]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, p)
	}
	delete(m.files, key(p))
	return nil
}

func (m *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []string
	for k := range m.files {
		if strings.HasPrefix(k, key(prefix)) {
			files = append(files, k)
		}
	}
	return files, nil
}

func (m *Storage) GetURL(ctx context.Context, p string) (string, error) {
	return "memory://" + key(p), nil
}

func (m *Storage) EnsureDir(ctx context.Context, dir string) error {
	marker := path.Join(key(dir), rapport.MarkerName)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[marker]; ok {
		return storage.ErrAlreadyExists
	}
	m.files[marker] = nil
	return nil
}

func (m *Storage) Close() error {
	return nil
}

// Len retourne le nombre d'objets stockés, marqueurs compris
func (m *Storage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
