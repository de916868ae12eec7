package users

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

// MemoryRepository keeps records in process memory and enforces the same
// uniqueness rules as the unique indexes of the PostgreSQL schema.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[uint64]*models.User
	index map[string]uint64 // "<field>:<value>" -> id
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[uint64]*models.User),
		index: make(map[string]uint64),
		now:   time.Now,
	}
}

func keysOf(u *models.User) []string {
	keys := []string{"name:" + u.Name}
	if u.Email != nil {
		keys = append(keys, "email:"+*u.Email)
	}
	if u.Phone != nil {
		keys = append(keys, "phone:"+*u.Phone)
	}
	return keys
}

// conflict reports the first key of u held by a record other than u.ID.
func (r *MemoryRepository) conflict(u *models.User) (string, bool) {
	for _, k := range keysOf(u) {
		if id, ok := r.index[k]; ok && id != u.ID {
			return k, true
		}
	}
	return "", false
}

func (r *MemoryRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; ok {
		return fmt.Errorf("%w: id %d", common.ErrAlreadyExists, u.ID)
	}
	if k, ok := r.conflict(u); ok {
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, k)
	}

	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	stored := u.Clone()
	r.byID[u.ID] = stored
	for _, k := range keysOf(stored) {
		r.index[k] = stored.ID
	}
	return nil
}

func (r *MemoryRepository) FindOne(_ context.Context, l Lookup) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var hit *models.User
	for _, k := range lookupKeys(l) {
		if id, ok := r.index[k]; ok && id != l.ExcludeID && (hit == nil || id < hit.ID) {
			hit = r.byID[id]
		}
	}
	if hit == nil {
		return nil, common.ErrNotFound
	}
	return hit.Clone(), nil
}

func lookupKeys(l Lookup) []string {
	var keys []string
	if l.Name != "" {
		keys = append(keys, "name:"+l.Name)
	}
	if l.Email != "" {
		keys = append(keys, "email:"+l.Email)
	}
	if l.Phone != "" {
		keys = append(keys, "phone:"+l.Phone)
	}
	return keys
}

func (r *MemoryRepository) FindByID(_ context.Context, id uint64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, id uint64, p models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if p.IsEmpty() {
		return cur.Clone(), nil
	}

	next := cur.Clone()
	p.Apply(next)
	if k, ok := r.conflict(next); ok {
		return nil, fmt.Errorf("%w: %s", common.ErrAlreadyExists, k)
	}
	next.UpdatedAt = r.now().UTC()

	for _, k := range keysOf(cur) {
		delete(r.index, k)
	}
	for _, k := range keysOf(next) {
		r.index[k] = id
	}
	r.byID[id] = next
	return next.Clone(), nil
}

func (r *MemoryRepository) SwapPasswordHash(_ context.Context, id uint64, old, next []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	if !bytes.Equal(cur.PasswordHash, old) {
		return fmt.Errorf("%w: password hash changed", common.ErrUpdateConflict)
	}

	swapped := cur.Clone()
	swapped.PasswordHash = append([]byte(nil), next...)
	swapped.UpdatedAt = r.now().UTC()
	r.byID[id] = swapped
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	for _, k := range keysOf(u) {
		delete(r.index, k)
	}
	delete(r.byID, id)
	return nil
}

// Len reports the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
