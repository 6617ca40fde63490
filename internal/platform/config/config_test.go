package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("AUDIT_SINK", "")
	t.Setenv("ORGTRAKKER_ADDR", "")
	t.Setenv("AUDIT_KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "memory", cfg.Audit.Sink)
	assert.Equal(t, 18, cfg.Validation.MinAge)
	assert.Equal(t, TemplateCacheTTL, cfg.Redis.TemplateTTL)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
}

func TestFromEnvAudit(t *testing.T) {
	t.Run("kafka needs brokers", func(t *testing.T) {
		t.Setenv("AUDIT_SINK", "kafka")
		t.Setenv("AUDIT_KAFKA_BROKERS", " , ")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("relay needs brokers", func(t *testing.T) {
		t.Setenv("AUDIT_SINK", "sql")
		t.Setenv("AUDIT_RELAY", "true")
		t.Setenv("AUDIT_KAFKA_BROKERS", "")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("relay over sql outbox", func(t *testing.T) {
		t.Setenv("AUDIT_SINK", "sql")
		t.Setenv("AUDIT_RELAY", "true")
		t.Setenv("AUDIT_RELAY_INTERVAL", "250ms")
		t.Setenv("AUDIT_KAFKA_BROKERS", "a:9092, b:9092,a:9092")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.Audit.Relay)
		assert.Equal(t, 250*time.Millisecond, cfg.Audit.RelayInterval)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Audit.KafkaBrokers)
	})

	t.Run("unknown sink", func(t *testing.T) {
		t.Setenv("AUDIT_SINK", "s3")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
