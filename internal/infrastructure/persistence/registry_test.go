package persistence

import (
	"context"
	"testing"

	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorldBibleRegistry(t *testing.T) {
	db := newSQLiteDB(t)
	projects := NewGormProjectRepository(db)
	registry := NewWorldBibleRegistry(db, projects, nil, nil, nil)

	require.Len(t, registry.All(), len(worldbible.AllKinds()))
	for _, kind := range worldbible.AllKinds() {
		svc, err := registry.Get(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, svc.Kind())
	}

	ctx := context.Background()
	owner := uuid.New()
	p, err := project.NewProject(owner, "Atlas")
	require.NoError(t, err)
	require.NoError(t, projects.Save(ctx, p))

	creatures, err := registry.Get(worldbible.KindCreature)
	require.NoError(t, err)
	payload, err := worldbibleapp.NewEntryPayload(map[string]any{"name": "Ashwing"})
	require.NoError(t, err)
	created, err := creatures.Create(ctx, owner, p.ID, payload)
	require.NoError(t, err)

	all, err := creatures.ListAll(ctx, owner, p.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
}
