package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fablecraft/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) Up() error               { return m.Called().Error(0) }
func (m *mockMigrator) Down() error             { return m.Called().Error(0) }
func (m *mockMigrator) Steps(n int) error       { return m.Called(n).Error(0) }
func (m *mockMigrator) GoTo(version uint) error { return m.Called(version).Error(0) }
func (m *mockMigrator) Force(version int) error { return m.Called(version).Error(0) }
func (m *mockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func TestDBCommands(t *testing.T) {
	log := zap.NewNop()

	t.Run("step passes the signed count", func(t *testing.T) {
		m := new(mockMigrator)
		m.On("Steps", -1).Return(nil)
		require.NoError(t, dbCommands["step"](m, []string{"-1"}, log))
		m.AssertExpectations(t)
	})

	t.Run("goto rejects negative versions", func(t *testing.T) {
		m := new(mockMigrator)
		assert.Error(t, dbCommands["goto"](m, []string{"-3"}, log))
		m.AssertNotCalled(t, "GoTo", mock.Anything)
	})

	t.Run("goto", func(t *testing.T) {
		m := new(mockMigrator)
		m.On("GoTo", uint(1)).Return(nil)
		require.NoError(t, dbCommands["goto"](m, []string{"1"}, log))
		m.AssertExpectations(t)
	})

	t.Run("down needs confirmation", func(t *testing.T) {
		m := new(mockMigrator)
		assert.Error(t, dbCommands["down"](m, nil, log))
		m.AssertNotCalled(t, "Down")

		m.On("Down").Return(nil)
		require.NoError(t, dbCommands["down"](m, []string{"--confirm"}, log))
		m.AssertExpectations(t)
	})

	t.Run("force validates its argument", func(t *testing.T) {
		m := new(mockMigrator)
		assert.EqualError(t, dbCommands["force"](m, nil, log), "version required")
		assert.EqualError(t, dbCommands["force"](m, []string{"x"}, log), `invalid version "x"`)
	})

	t.Run("version", func(t *testing.T) {
		m := new(mockMigrator)
		m.On("Version").Return(uint(1), false, nil)
		require.NoError(t, dbCommands["version"](m, nil, log))
		m.AssertExpectations(t)
	})
}

func TestCreateAndList(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop()

	require.Error(t, create(dir, nil, log))
	require.NoError(t, create(dir, []string{"add cover images", "Cover art"}, log))
	require.NoError(t, create(dir, []string{"entry_links"}, log))

	var out bytes.Buffer
	require.NoError(t, list(&out, migration.Source{Dir: dir}))
	assert.Contains(t, out.String(), "000001  add_cover_images")
	assert.Contains(t, out.String(), "000002  entry_links")
	assert.NotContains(t, out.String(), "(no down)")

	require.NoError(t, os.Remove(filepath.Join(dir, "000002_entry_links.down.sql")))
	out.Reset()
	require.NoError(t, list(&out, migration.Source{Dir: dir}))
	assert.Contains(t, out.String(), "entry_links (no down)")

	out.Reset()
	require.NoError(t, list(&out, migration.Source{Dir: filepath.Join(dir, "missing")}))
	assert.Equal(t, "No migrations found\n", out.String())
}

func TestEmbeddedMigrationsAreListed(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, list(&out, migration.Source{}))
	assert.Contains(t, out.String(), "000001  init")
}
