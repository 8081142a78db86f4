package credentials

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/researcher/internal/client/models"
)

// MemoryRepository keeps credentials in process memory. Err, when set, is
// returned by every call.
type MemoryRepository struct {
	mu     sync.Mutex
	stored Stored
	Err    error
	Loads  int
}

func NewMemoryRepository(initial Stored) *MemoryRepository {
	return &MemoryRepository{stored: initial}
}

func (m *MemoryRepository) Load(context.Context) (Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads++
	if m.Err != nil {
		return Stored{}, m.Err
	}
	return m.stored, nil
}

func (m *MemoryRepository) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.stored = Stored{Token: token}
	return nil
}

func (m *MemoryRepository) SaveUser(_ context.Context, user *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.stored.User = user
	return nil
}

func (m *MemoryRepository) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.stored = Stored{}
	return nil
}

// Current returns the stored state without counting as a Load.
func (m *MemoryRepository) Current() Stored {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored
}
