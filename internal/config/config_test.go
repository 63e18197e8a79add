package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Fills defaults for missing keys", func(t *testing.T) {
		// Given: a config with only the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: it is loaded
		conf := MustLoad(path)

		// Then: every other key has its default
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, uint64(144), conf.Game.TimeoutBlocks)
		assert.Equal(t, "retain", conf.Game.DrawPolicy)
		assert.Equal(t, 10*time.Minute, conf.Chain.BlockInterval)
		assert.Equal(t, BackendRedis, conf.Storage)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Reads nested sections", func(t *testing.T) {
		path := writeConfig(t, `
storage: memory
events: kafka
game:
  timeout-blocks: 10
  draw-policy: refund
chain:
  block-interval: 2s
kafka:
  brokers: kafka-1:9092,kafka-2:9092
`)

		conf := MustLoad(path)

		assert.Equal(t, BackendMemory, conf.Storage)
		assert.Equal(t, BackendKafka, conf.Events)
		assert.Equal(t, uint64(10), conf.Game.TimeoutBlocks)
		assert.Equal(t, "refund", conf.Game.DrawPolicy)
		assert.Equal(t, 2*time.Second, conf.Chain.BlockInterval)
		assert.Equal(t, "kafka-1:9092,kafka-2:9092", conf.Kafka.Brokers)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		t.Setenv("GAME_DRAW_POLICY", "refund")
		path := writeConfig(t, "game:\n  draw-policy: retain\n")

		conf := MustLoad(path)

		assert.Equal(t, "refund", conf.Game.DrawPolicy)
	})

	t.Run("Panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "absent.yml"))
		})
	})
}
