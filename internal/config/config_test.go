package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	store "github.com/hanpama/docgraph/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, setup func(v *viper.Viper)) (Config, error) {
	t.Helper()
	v := viper.New()
	Bind(v)
	if setup != nil {
		setup(v)
	}
	return Load(v)
}

func TestDefaults(t *testing.T) {
	c, err := load(t, nil)
	require.NoError(t, err)

	want := Config{
		Server: ServerConfig{Addr: ":8080", Timeout: 10 * time.Second, MaxBody: 1 << 20, CORSOrigins: []string{}, Metrics: true},
		Store: store.Config{
			Backend: store.BackendMemory,
			Mongo:   store.MongoConfig{Database: "docgraph"},
		},
		Executor: ExecutorConfig{MaxConcurrency: 16},
	}
	want.Log.Level, want.Log.Format = "info", "json"
	want.Otel.Service = "docgraph"
	want.Kafka.Brokers, want.Kafka.Topic = []string{}, "docgraph.changes"
	if diff := cmp.Diff(want, c, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DOCGRAPH_STORE_BACKEND", "badger")
	t.Setenv("DOCGRAPH_STORE_BADGER_DIR", "/var/lib/docgraph")
	t.Setenv("DOCGRAPH_SERVER_TIMEOUT", "3s")
	t.Setenv("DOCGRAPH_KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := load(t, nil)
	require.NoError(t, err)
	require.Equal(t, "badger", c.Store.Backend)
	require.Equal(t, "/var/lib/docgraph", c.Store.Badger.Dir)
	require.Equal(t, 3*time.Second, c.Server.Timeout)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  cors_origins: ["https://app.example.com"]
store:
  backend: postgres
  postgres:
    dsn: postgres://localhost/docgraph
log:
  format: console
`), 0o600))

	c, err := load(t, func(v *viper.Viper) {
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", c.Server.Addr)
	require.Equal(t, []string{"https://app.example.com"}, c.Server.CORSOrigins)
	require.Equal(t, "postgres://localhost/docgraph", c.Store.Postgres.DSN)
	require.Equal(t, "console", c.Log.Format)
	require.Equal(t, "info", c.Log.Level)
}

func TestValidate(t *testing.T) {
	_, err := load(t, func(v *viper.Viper) { v.Set("store.backend", "sqlite") })
	require.ErrorContains(t, err, `unknown backend "sqlite"`)

	_, err = load(t, func(v *viper.Viper) { v.Set("executor.max_concurrency", 0) })
	require.ErrorContains(t, err, "max_concurrency must be positive")

	_, err = load(t, func(v *viper.Viper) {
		v.Set("kafka.brokers", []string{"k1:9092"})
		v.Set("kafka.topic", "")
	})
	require.ErrorContains(t, err, "kafka.topic is required")
}
