package identity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMember(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active member", func(t *testing.T) {
		u, err := NewMember(tenantID, "  Alice@Example.com ", "Alice_01", "s3cretpass")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, "alice_01", u.Username)
		assert.Equal(t, RoleMember, u.Role)
		assert.Equal(t, UserStatusActive, u.Status)
		assert.Equal(t, 1, u.Version)
		assert.True(t, u.VerifyPassword("s3cretpass"))
		assert.False(t, u.VerifyPassword("wrong"))

		events := u.GetDomainEvents()
		require.Len(t, events, 1)
		ev, ok := events[0].(*UserRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, u.ID, ev.AggregateID())
		assert.Equal(t, tenantID, ev.TenantID())
	})

	tests := []struct {
		name     string
		email    string
		username string
		password string
		code     string
	}{
		{"empty email", "", "alice", "s3cretpass", "INVALID_EMAIL"},
		{"bad email", "not-an-email", "alice", "s3cretpass", "INVALID_EMAIL"},
		{"short username", "a@b.co", "al", "s3cretpass", "INVALID_USERNAME"},
		{"username with space", "a@b.co", "al ice", "s3cretpass", "INVALID_USERNAME"},
		{"short password", "a@b.co", "alice", "short", "INVALID_PASSWORD"},
		{"long password", "a@b.co", "alice", strings.Repeat("x", 73), "INVALID_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMember(tenantID, tt.email, tt.username, tt.password)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestUser_ChangePassword(t *testing.T) {
	u, err := NewMember(uuid.New(), "bob@example.com", "bob", "oldpassword")
	require.NoError(t, err)

	err = u.ChangePassword("nope", "newpassword")
	assert.Error(t, err)

	require.NoError(t, u.ChangePassword("oldpassword", "newpassword"))
	assert.True(t, u.VerifyPassword("newpassword"))
	assert.Equal(t, 2, u.Version)
}

func TestUser_StatusAndLogin(t *testing.T) {
	u, err := NewMember(uuid.New(), "carol@example.com", "carol", "password1")
	require.NoError(t, err)
	u.ClearDomainEvents()

	assert.NoError(t, u.CanLogin())

	require.NoError(t, u.SetStatus(UserStatusSuspended))
	assert.ErrorIs(t, u.CanLogin(), ErrAccountSuspended)
	require.Len(t, u.GetDomainEvents(), 1)

	err = u.SetStatus(UserStatusSuspended)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	assert.Error(t, u.SetStatus("BANNED"))

	now := time.Now()
	u.RecordLogin(now)
	require.NotNil(t, u.LastLoginAt)
	assert.Equal(t, now, *u.LastLoginAt)
}

func TestUser_SetRoleAndProfile(t *testing.T) {
	u, err := NewMember(uuid.New(), "dave@example.com", "dave", "password1")
	require.NoError(t, err)

	require.NoError(t, u.SetRole(RoleAdmin))
	assert.True(t, u.IsAdmin())
	assert.Error(t, u.SetRole("ROOT"))

	require.NoError(t, u.UpdateProfile(" Dave D ", "0812"))
	assert.Equal(t, "Dave D", u.FullName)
	assert.Error(t, u.UpdateProfile(strings.Repeat("n", 121), ""))
}
