package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		u, err := NewUser(" Tolkien ", "JRR@Example.com", "middle3arth")
		require.NoError(t, err)
		assert.Equal(t, "tolkien", u.Username)
		assert.Equal(t, "jrr@example.com", u.Email)
		assert.Equal(t, UserStatusActive, u.Status)
		assert.NotEqual(t, "middle3arth", u.PasswordHash)
		assert.True(t, u.VerifyPassword("middle3arth"))
		assert.False(t, u.VerifyPassword("wrong"))
		require.Len(t, u.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeUserRegistered, u.GetDomainEvents()[0].EventType())
	})

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  string
	}{
		{"short username", "ab", "a@b.co", "password1", "at least 3"},
		{"bad username chars", "bad name", "a@b.co", "password1", "can only contain"},
		{"bad email", "writer", "not-an-email", "password1", "Invalid email"},
		{"short password", "writer", "a@b.co", "pw1", "at least 8"},
		{"password without digit", "writer", "a@b.co", "passwordonly", "one letter and one number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUser_LoginTracking(t *testing.T) {
	u, err := NewUser("writer", "w@example.com", "password1")
	require.NoError(t, err)

	assert.False(t, u.RecordLoginFailure(3, time.Minute))
	assert.False(t, u.RecordLoginFailure(3, time.Minute))
	assert.True(t, u.RecordLoginFailure(3, time.Minute))
	assert.True(t, u.IsLocked())
	assert.False(t, u.CanLogin())

	u.RecordLoginSuccess()
	assert.False(t, u.IsLocked())
	assert.Equal(t, 0, u.FailedAttempts)
	assert.NotNil(t, u.LastLoginAt)
	assert.True(t, u.CanLogin())
}

func TestUser_FailuresAfterLockExpires(t *testing.T) {
	u, err := NewUser("writer", "w@example.com", "password1")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.False(t, u.RecordLoginFailure(5, 15*time.Minute))
	}
	require.True(t, u.RecordLoginFailure(5, 15*time.Minute))

	expired := time.Now().Add(-time.Second)
	u.LockedUntil = &expired
	require.True(t, u.CanLogin())

	assert.False(t, u.RecordLoginFailure(5, 15*time.Minute))
	assert.Equal(t, 1, u.FailedAttempts)
	assert.Nil(t, u.LockedUntil)
	assert.True(t, u.CanLogin())
}

func TestUser_ChangePassword(t *testing.T) {
	u, err := NewUser("writer", "w@example.com", "password1")
	require.NoError(t, err)

	err = u.ChangePassword("wrong", "newpassword2")
	require.Error(t, err)

	require.NoError(t, u.ChangePassword("password1", "newpassword2"))
	assert.True(t, u.VerifyPassword("newpassword2"))
	assert.Equal(t, 2, u.Version)
}

func TestUser_Deactivate(t *testing.T) {
	u, err := NewUser("writer", "w@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, u.Deactivate())
	assert.False(t, u.CanLogin())
	assert.Error(t, u.Deactivate())
	assert.Equal(t, "writer", u.GetDisplayNameOrUsername())
}
