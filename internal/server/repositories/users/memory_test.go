package users

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/optional"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *MemoryRepository, u *models.User) {
	t.Helper()
	require.NoError(t, r.Create(context.Background(), u))
}

func TestMemory_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seed(t, r, &models.User{ID: 1, Name: "alice", Email: strp("alice@example.com"), PasswordHash: []byte("h")})

	byID, err := r.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)
	assert.False(t, byID.CreatedAt.IsZero())

	for _, l := range []Lookup{
		{Name: "alice"},
		{Email: "alice@example.com"},
		{Name: "alice@example.com", Email: "alice@example.com", Phone: "alice@example.com"},
	} {
		got, err := r.FindOne(ctx, l)
		require.NoError(t, err, l)
		assert.Equal(t, uint64(1), got.ID)
	}

	_, err = r.FindOne(ctx, Lookup{Name: "alice", ExcludeID: 1})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.FindByID(ctx, 2)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seed(t, r, &models.User{ID: 1, Name: "alice"})

	got, err := r.FindByID(ctx, 1)
	require.NoError(t, err)
	got.Name = "mallory"

	again, err := r.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Name)
}

func TestMemory_Uniqueness(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seed(t, r, &models.User{ID: 1, Name: "alice", Phone: strp("+16502530000")})
	seed(t, r, &models.User{ID: 2, Name: "bob"})

	assert.ErrorIs(t, r.Create(ctx, &models.User{ID: 3, Name: "alice"}), common.ErrAlreadyExists)
	assert.ErrorIs(t, r.Create(ctx, &models.User{ID: 3, Name: "carol", Phone: strp("+16502530000")}), common.ErrAlreadyExists)
	assert.ErrorIs(t, r.Create(ctx, &models.User{ID: 1, Name: "dave"}), common.ErrAlreadyExists)

	_, err := r.Update(ctx, 2, models.UserPatch{Name: optional.Of("alice")})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	// Keeping one's own value is not a conflict.
	_, err = r.Update(ctx, 1, models.UserPatch{Name: optional.Of("alice")})
	assert.NoError(t, err)
}

func TestMemory_UpdateReindexes(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seed(t, r, &models.User{ID: 1, Name: "alice", Email: strp("a@example.com")})

	got, err := r.Update(ctx, 1, models.UserPatch{
		Name:  optional.Of("alicia"),
		Email: optional.Of[*string](nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Name)
	assert.Nil(t, got.Email)

	_, err = r.FindOne(ctx, Lookup{Name: "alice"})
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.FindOne(ctx, Lookup{Email: "a@example.com"})
	assert.ErrorIs(t, err, common.ErrNotFound, "cleared email is free again")

	seed(t, r, &models.User{ID: 2, Name: "alice", Email: strp("a@example.com")})

	_, err = r.Update(ctx, 99, models.UserPatch{Name: optional.Of("x")})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seed(t, r, &models.User{ID: 1, Name: "alice"})

	require.NoError(t, r.Delete(ctx, 1))
	assert.ErrorIs(t, r.Delete(ctx, 1), common.ErrNotFound)
	assert.Equal(t, 0, r.Len())

	seed(t, r, &models.User{ID: 2, Name: "alice"})
}

func TestMemory_ConcurrentCreateSameName(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			if err := r.Create(ctx, &models.User{ID: id, Name: "alice"}); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}(uint64(i))
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	assert.Equal(t, 1, r.Len())
}

func TestMemory_FindOnePrefersLowestID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seed(t, r, &models.User{ID: 5, Name: "bob@example.com"})
	seed(t, r, &models.User{ID: 2, Name: "bob", Email: strp("bob@example.com")})

	for i := 0; i < 10; i++ {
		got, err := r.FindOne(ctx, Lookup{Name: "bob@example.com", Email: "bob@example.com"})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), got.ID)
	}
}

func TestMemory_SwapPasswordHash(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seed(t, r, &models.User{ID: 1, Name: "alice", PasswordHash: []byte("old")})

	assert.ErrorIs(t, r.SwapPasswordHash(ctx, 1, []byte("stale"), []byte("new")), common.ErrUpdateConflict)
	got, err := r.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got.PasswordHash)

	require.NoError(t, r.SwapPasswordHash(ctx, 1, []byte("old"), []byte("new")))
	got, err = r.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.PasswordHash)

	assert.ErrorIs(t, r.SwapPasswordHash(ctx, 99, []byte("old"), []byte("new")), common.ErrNotFound)
}
