package gotrue

import (
	"sync"

	"github.com/dimitrije/adme-site/internal/models"
)

// Storage persists one browser's session between Client calls.
type Storage interface {
	Load() *models.Session
	Save(session *models.Session)
	Clear()
}

type MemoryStorage struct {
	mu      sync.RWMutex
	session *models.Session
}

func NewMemoryStorage(initial *models.Session) *MemoryStorage {
	return &MemoryStorage{session: initial}
}

func (m *MemoryStorage) Load() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

func (m *MemoryStorage) Save(session *models.Session) {
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
}

func (m *MemoryStorage) Clear() {
	m.Save(nil)
}
