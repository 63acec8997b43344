package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, "categories.events", cfg.Kafka.Topic)
	assert.Equal(t, "backoffice-explorer", cfg.Kafka.GroupID)
	assert.Equal(t, 720, cfg.Explorer.StateTTLHours)
	assert.Equal(t, 20, cfg.Explorer.PageSize)
	assert.True(t, cfg.Elastic.Enabled)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("GRPC_PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_TOPIC_CATEGORIES", "cats")
	t.Setenv("EXPLORER_PAGE_SIZE", "50")
	t.Setenv("EXPLORER_STATE_TTL_HOURS", "not-a-number")
	t.Setenv("ELASTICSEARCH_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")

	cfg := LoadEnv()

	assert.Equal(t, "9000", cfg.Server.GRPCPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "cats", cfg.Kafka.Topic)
	assert.Equal(t, 50, cfg.Explorer.PageSize)
	assert.Equal(t, 720, cfg.Explorer.StateTTLHours, "invalid values fall back")
	assert.False(t, cfg.Elastic.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
}
