package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, MQBackendNone, cfg.MQ.Backend)
	assert.Equal(t, ObjectStorageNone, cfg.ObjectStorage.Backend)
}

func TestLoadConfigBareNames(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadConfigRejectsUnknownBackends(t *testing.T) {
	t.Setenv("MQ_BACKEND", "kafka")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mq backend")
}
