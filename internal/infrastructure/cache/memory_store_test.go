package cache

import (
	"context"
	"testing"
	"time"

	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEntry(body string) *Entry {
	return &Entry{Status: 200, ContentType: "application/json", Body: []byte(body)}
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("test:", 0, 0)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "owner-a", "/api/v1/projects", newEntry(`{"a":1}`), time.Minute))

	got, ok, err := store.Get(ctx, "owner-a", "/api/v1/projects")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got.Body))

	_, ok, _ = store.Get(ctx, "owner-b", "/api/v1/projects")
	assert.False(t, ok, "entries are scoped per owner")

	now = now.Add(time.Minute)
	_, ok, _ = store.Get(ctx, "owner-a", "/api/v1/projects")
	assert.False(t, ok, "expired at exactly the ttl")
	assert.Zero(t, store.Len())
}

func TestMemoryStore_ZeroTTLIsNotStored(t *testing.T) {
	store := NewMemoryStore("", 0, 0)
	defer store.Close()

	require.NoError(t, store.Set(context.Background(), "o", "k", newEntry("x"), 0))
	assert.Zero(t, store.Len())
}

func TestMemoryStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("", 2, 0)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "o", "short", newEntry("1"), time.Second))
	require.NoError(t, store.Set(ctx, "o", "long", newEntry("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "o", "new", newEntry("3"), time.Hour))

	assert.Equal(t, 2, store.Len())
	_, ok, _ := store.Get(ctx, "o", "short")
	assert.False(t, ok, "the item closest to expiry is evicted")
	_, ok, _ = store.Get(ctx, "o", "long")
	assert.True(t, ok)
}

func TestMemoryStore_InvalidateOwner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("p:", 0, 0)
	defer store.Close()

	for _, key := range []string{"/a", "/b", "/c"} {
		require.NoError(t, store.Set(ctx, "alice", key, newEntry(key), time.Minute))
	}
	require.NoError(t, store.Set(ctx, "bob", "/a", newEntry("bob"), time.Minute))

	removed, err := store.InvalidateOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, ok, _ := store.Get(ctx, "bob", "/a")
	assert.True(t, ok)
}

func TestMemoryStore_Sweeper(t *testing.T) {
	store := NewMemoryStore("", 0, 5*time.Millisecond)
	require.NoError(t, store.Set(context.Background(), "o", "k", newEntry("x"), time.Millisecond))

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestNewResponseStore_FallsBackToMemory(t *testing.T) {
	store := NewResponseStore(config.CacheConfig{KeyPrefix: "x:", MaxEntries: 10}, nil, nil)
	defer store.Close()

	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestOwnerInvalidator(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("", 0, 0)
	defer store.Close()

	owner := uuid.New()
	p, err := project.NewProject(owner, "The Long Winter")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, owner.String(), "/api/v1/projects", newEntry("[]"), time.Minute))
	require.NoError(t, store.Set(ctx, uuid.NewString(), "/api/v1/projects", newEntry("[]"), time.Minute))

	inv := NewOwnerInvalidator(store, nil)
	assert.Contains(t, inv.EventTypes(), project.EventTypeProjectCreated)
	assert.Contains(t, inv.EventTypes(), "EntryDeleted")

	events := p.GetDomainEvents()
	require.NotEmpty(t, events)
	require.NoError(t, inv.Handle(ctx, events[0]))
	assert.Equal(t, 1, store.Len())
}
