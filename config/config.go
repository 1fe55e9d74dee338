// Package config loads gateway configuration from file, environment and
// defaults via viper. Environment variables use the STADIUM_GW_ prefix with
// dots replaced by underscores (e.g. STADIUM_GW_BROKER_URL).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	v *viper.Viper

	Log    LogConfig    `mapstructure:"log"`
	Broker BrokerConfig `mapstructure:"broker"`
	Auth   AuthConfig   `mapstructure:"auth"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Hub    HubConfig    `mapstructure:"hub"`
	Trace  TraceConfig  `mapstructure:"trace"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

type BrokerConfig struct {
	// URL of the MQTT broker, e.g. tcp://localhost:1883.
	URL string `mapstructure:"url"`

	// ClientIDPrefix is suffixed with a random id so several gateway
	// instances can share one broker.
	ClientIDPrefix string `mapstructure:"client_id_prefix"`

	// RootTopic is the wildcard subscription covering every event in
	// the system.
	RootTopic string `mapstructure:"root_topic"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type AuthConfig struct {
	// BaseURL of the identity validator; tokens are checked against
	// {base}/auth/validate.
	BaseURL string `mapstructure:"base_url"`

	Timeout time.Duration `mapstructure:"timeout"`

	// CacheSize and CacheTTL bound the token validation LRU.
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type HubConfig struct {
	// MailboxSize bounds each session's outbound buffer. A slow client
	// sheds frames past this point.
	MailboxSize int `mapstructure:"mailbox_size"`
}

type TraceConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("broker.url", "tcp://localhost:1883")
	v.SetDefault("broker.client_id_prefix", "stadium-gateway")
	v.SetDefault("broker.root_topic", "stadium/#")
	v.SetDefault("broker.connect_timeout", 10*time.Second)
	v.SetDefault("auth.base_url", "http://localhost:8081")
	v.SetDefault("auth.timeout", 3*time.Second)
	v.SetDefault("auth.cache_size", 4096)
	v.SetDefault("auth.cache_ttl", 30*time.Second)
	v.SetDefault("http.listen_addr", ":8080")
	v.SetDefault("hub.mailbox_size", 1024)
	v.SetDefault("trace.enabled", false)
}

// Flags returns the override flag set accepted as trailing arguments of the
// server command. Flags win over both the config file and the environment.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("overrides", pflag.ContinueOnError)
	fs.String("broker-url", "", "broker URL override")
	fs.String("listen-addr", "", "HTTP listen address override")
	fs.String("log-level", "", "log level override")
	return fs
}

// LoadConfig reads configuration from the optional file path, the
// environment and trailing override flags. A missing path is not an error;
// defaults apply.
func LoadConfig(path string, args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STADIUM_GW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(args) > 0 {
		fs := Flags()
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("config: flags: %w", err)
		}
		for flag, key := range map[string]string{
			"broker-url":  "broker.url",
			"listen-addr": "http.listen_addr",
			"log-level":   "log.level",
		} {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind %s: %w", flag, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return cfg, nil
}

// WatchLogLevel starts watching the config file and invokes fn with the new
// log level on each change. Hot-reload is limited to the log level;
// everything else requires a restart. No-op when no file was loaded.
func (c *Config) WatchLogLevel(fn func(level string)) {
	if c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		c.Log.Level = c.v.GetString("log.level")
		fn(c.Log.Level)
	})
	c.v.WatchConfig()
}
