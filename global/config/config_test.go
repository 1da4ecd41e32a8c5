package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", c.Server.Addr)
	assert.Equal(t, 10*time.Second, c.Server.HandlerTimeout)
	assert.Equal(t, StoreDriverMongo, c.Store.Driver)
	assert.Equal(t, BusDriverNone, c.Bus.Driver)
	assert.Equal(t, []string{"127.0.0.1:9092"}, c.Bus.Kafka.Brokers)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  handler_timeout: 3s
store:
  driver: memory
bus:
  driver: kafka
  kafka:
    topic: calls
`), 0o644))
	t.Setenv("PTALK_LOG_LEVEL", "debug")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, 3*time.Second, c.Server.HandlerTimeout)
	assert.Equal(t, StoreDriverMemory, c.Store.Driver)
	assert.Equal(t, "calls", c.Bus.Kafka.Topic)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestValidateRejectsUnknownDrivers(t *testing.T) {
	c := &AppConfig{Store: StoreConfig{Driver: "sqlite"}, Server: ServerConfig{SendQueue: 1}}
	assert.True(t, errs.Is(c.Validate(), errs.ErrValidation))

	c = &AppConfig{Store: StoreConfig{Driver: StoreDriverMemory}, Bus: BusConfig{Driver: "amqp"}, Server: ServerConfig{SendQueue: 1}}
	assert.True(t, errs.Is(c.Validate(), errs.ErrValidation))
}

func TestWatchAppliesEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\nlog:\n  level: info\n"), 0o644))

	got := make(chan string, 16)
	require.NoError(t, Watch(path, func(c *AppConfig) { got <- c.Log.Level }))

	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\nlog:\n  level: debug\n"), 0o644))
	// a write may surface as several events, some seeing a partial file
	deadline := time.After(5 * time.Second)
	for seen := ""; seen != "debug"; {
		select {
		case seen = <-got:
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	assert.Error(t, Watch("", func(*AppConfig) {}))
}
