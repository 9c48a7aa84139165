package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivetti/salesdesk-backend/internal/repo"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const usersDDL = `CREATE TABLE users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name TEXT NOT NULL,
	role TEXT NOT NULL,
	agent_id TEXT,
	is_active INTEGER NOT NULL DEFAULT 1,
	last_login_at DATETIME,
	created_at DATETIME,
	updated_at DATETIME
)`

func newUsersDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(usersDDL).Error)
	return conn
}

func strPtr(v string) *string {
	return &v
}

func TestRepositoryCreateAndFind(t *testing.T) {
	r := NewRepository(newUsersDB(t))
	ctx := context.Background()

	created, err := r.Create(ctx, CreateOperatorDTO{
		Username:     "  Mario.Rossi ",
		PasswordHash: "hash",
		DisplayName:  " Mario Rossi ",
		Role:         enums.OperatorRoleAgent,
		AgentID:      strPtr(" AG01 "),
	})
	require.NoError(t, err)
	assert.Equal(t, "mario.rossi", created.Username)
	assert.Equal(t, "AG01", *created.AgentID)
	assert.True(t, created.IsActive)

	byName, err := r.FindByUsername(ctx, "MARIO.ROSSI")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "Mario Rossi", byName.DisplayName)

	byID, err := r.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OperatorRoleAgent, byID.Role)

	_, err = r.FindByUsername(ctx, "nobody")
	assert.True(t, repo.IsNotFound(err))
}

func TestRepositoryUpdates(t *testing.T) {
	r := NewRepository(newUsersDB(t))
	ctx := context.Background()

	user, err := r.Create(ctx, CreateOperatorDTO{Username: "admin", PasswordHash: "old", DisplayName: "Admin", Role: enums.OperatorRoleAdmin})
	require.NoError(t, err)

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, r.UpdateLastLogin(ctx, user.ID, at))
	require.NoError(t, r.UpdatePasswordHash(ctx, user.ID, "new"))

	user.IsActive = false
	user.DisplayName = "Amministratore"
	require.NoError(t, r.UpdateProfile(ctx, user))

	reloaded, err := r.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", reloaded.PasswordHash)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, "Amministratore", reloaded.DisplayName)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))

	ghost := *user
	ghost.ID = uuid.New()
	assert.True(t, repo.IsNotFound(r.UpdateProfile(ctx, &ghost)))
}

func TestFromModelOmitsNil(t *testing.T) {
	assert.Nil(t, FromModel(nil))
}
