// Package config holds the gateway configuration as read from flags,
// environment and an optional config file.
package config

import (
	"strings"
	"time"

	feed "github.com/hanpama/docgraph/internal/feed"
	logging "github.com/hanpama/docgraph/internal/logging"
	otel "github.com/hanpama/docgraph/internal/otel"
	store "github.com/hanpama/docgraph/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DOCGRAPH_SERVER_ADDR.
const EnvPrefix = "DOCGRAPH"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    store.Config   `mapstructure:"store"`
	Log      logging.Config `mapstructure:"log"`
	Otel     otel.Config    `mapstructure:"otel"`
	Kafka    feed.Config    `mapstructure:"kafka"`
	Executor ExecutorConfig `mapstructure:"executor"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Pretty      bool          `mapstructure:"pretty"`
	MaxBody     int64         `mapstructure:"max_body"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	Metrics     bool          `mapstructure:"metrics"`
}

type ExecutorConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// Defaults are registered on every viper instance passed to Load, so
// environment variables resolve even for keys no flag names.
var Defaults = map[string]any{
	"server.addr":              ":8080",
	"server.timeout":           10 * time.Second,
	"server.pretty":            false,
	"server.max_body":          1 << 20,
	"server.cors_origins":      []string{},
	"server.metrics":           true,
	"store.backend":            store.BackendMemory,
	"store.mongo.uri":          "",
	"store.mongo.database":     "docgraph",
	"store.badger.dir":         "",
	"store.postgres.dsn":       "",
	"log.level":                "info",
	"log.format":               "json",
	"otel.endpoint":            "",
	"otel.service":             "docgraph",
	"kafka.brokers":            []string{},
	"kafka.topic":              "docgraph.changes",
	"executor.max_concurrency": 16,
}

// Bind prepares v for Load: defaults, env prefix and key mapping.
func Bind(v *viper.Viper) {
	for k, d := range Defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and checks it.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrap(err, "decoding config")
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendMemory, store.BackendBadger, store.BackendMongo, store.BackendPostgres:
	default:
		return errors.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Executor.MaxConcurrency < 1 {
		return errors.Errorf("executor.max_concurrency must be positive, got %d", c.Executor.MaxConcurrency)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when kafka.brokers is set")
	}
	return nil
}
