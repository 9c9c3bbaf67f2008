package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/utils"
)

func TestMain(m *testing.M) {
	logger.SetTestLoggerNop()
	m.Run()
}

func TestNewStoreMemorySeeds(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	s, err := NewStore(ctx, cfg)
	require.NoError(t, err)

	admin, err := s.GetUserByEmail(ctx, DefaultAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, utils.CheckPassword(cfg.Security.PasswordMode, admin.Password, DefaultAdminPassword))

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, settings.GlobalSensitivity)

	plans, err := s.ListSubscriptionPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 3)
}

func TestNewStoreSqliteSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.Type = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "cctv.db")
	cfg.Security.PasswordMode = config.PasswordModeBcrypt

	s, err := NewStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(ctx, cfg)
	require.NoError(t, err)
	defer s.Close()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, utils.CheckPassword(config.PasswordModeBcrypt, users[0].Password, DefaultAdminPassword))

	plans, err := s.ListSubscriptionPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 3)
	assert.True(t, plans[1].IsPopular)
}

func TestNewStoreSkipsSeed(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.Seed = false

	s, err := NewStore(ctx, cfg)
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestOpenRejectsMemory(t *testing.T) {
	_, err := Open(config.Default().Database)
	assert.Error(t, err)
}
