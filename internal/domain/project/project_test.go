package project

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	owner := uuid.New()

	t.Run("creates draft project with slug", func(t *testing.T) {
		p, err := NewProject(owner, "  The Ember Crown ")
		require.NoError(t, err)
		assert.Equal(t, "The Ember Crown", p.Title)
		assert.Equal(t, "the-ember-crown", p.Slug)
		assert.Equal(t, StatusDraft, p.Status)
		assert.Equal(t, owner, p.OwnerID)
		assert.Equal(t, 1, p.Version)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeProjectCreated, p.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := NewProject(owner, "   ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("rejects long title", func(t *testing.T) {
		_, err := NewProject(owner, strings.Repeat("a", 201))
		require.Error(t, err)
	})

	t.Run("rejects nil owner", func(t *testing.T) {
		_, err := NewProject(uuid.Nil, "Title")
		require.Error(t, err)
	})
}

func TestProject_Lifecycle(t *testing.T) {
	p, err := NewProject(uuid.New(), "Saga")
	require.NoError(t, err)
	p.ClearDomainEvents()

	require.NoError(t, p.Activate())
	assert.Equal(t, StatusActive, p.Status)
	assert.Error(t, p.Activate())

	require.NoError(t, p.Archive())
	assert.True(t, p.IsArchived())
	assert.NotNil(t, p.ArchivedAt)
	assert.Error(t, p.Archive())
	assert.Error(t, p.Activate())

	require.NoError(t, p.Restore())
	assert.Equal(t, StatusActive, p.Status)
	assert.Nil(t, p.ArchivedAt)
	assert.Error(t, p.Restore())

	types := make([]string, 0)
	for _, e := range p.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{EventTypeProjectUpdated, EventTypeProjectArchived, EventTypeProjectRestored}, types)
}

func TestProject_RenameAndDetails(t *testing.T) {
	p, err := NewProject(uuid.New(), "Old")
	require.NoError(t, err)

	require.NoError(t, p.Rename("Nouvelle Vague"))
	assert.Equal(t, "nouvelle-vague", p.Slug)
	assert.Equal(t, 2, p.Version)

	require.NoError(t, p.SetDetails(" Fantasy ", "A tale."))
	assert.Equal(t, "Fantasy", p.Genre)

	err = p.SetDetails(strings.Repeat("g", 101), "")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":          "hello-world",
		"Élan Vital":           "elan-vital",
		"  --Dragons!! & Co.": "dragons-co",
		"日本":                   "untitled",
		"Part 2: The Return":   "part-2-the-return",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
	assert.LessOrEqual(t, len(Slugify(strings.Repeat("word ", 40))), maxSlugLength)
}
