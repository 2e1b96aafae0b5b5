package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Server.Address)
	assert.Equal(t, ":3001", cfg.Server.NotifyAddress)
	assert.Equal(t, "voting_kiosk", cfg.Database.Name)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, 32, cfg.Relay.SendBufferSize)
	assert.Equal(t, int64(4096), cfg.Relay.MaxMessageSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SERVER_NOTIFY_ADDRESS", ":4001")
	t.Setenv("DATABASE_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":4001", cfg.Server.NotifyAddress)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}
