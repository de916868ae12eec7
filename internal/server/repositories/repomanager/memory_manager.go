package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single in-memory repository. WithinTx
// serializes callers; writes made by fn before it fails are not undone.
type MemoryRepositoryManager struct {
	mu   sync.Mutex
	repo *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository { return m.repo }

func (m *MemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *MemoryRepositoryManager) Close() error                        { return nil }
