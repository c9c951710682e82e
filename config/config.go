// Package config loads solo-rpc configuration from YAML files.
//
// Everything has a default, so a server embedded in a larger program can
// skip files entirely and start from Default(). Deployments that want a
// file get viper's formats and env overrides; runtime reconfiguration
// goes through Merge with a plain map.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the root of a configuration file.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Client   ClientConfig   `mapstructure:"client"`
	Registry RegistryConfig `mapstructure:"registry"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the serving side.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AdvertiseAddr   string        `mapstructure:"advertise_addr"` // what goes into the registry; empty = listener addr
	ServiceName     string        `mapstructure:"service_name"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // calls per second; 0 disables limiting
	RateBurst       int           `mapstructure:"rate_burst"`
}

// ClientConfig configures the discovery client.
type ClientConfig struct {
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	Balancer    string        `mapstructure:"balancer"` // roundrobin | weighted | hash
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// RegistryConfig configures etcd discovery. Empty endpoints disable it.
type RegistryConfig struct {
	Endpoints []string `mapstructure:"endpoints"`
	TTL       int64    `mapstructure:"ttl"` // lease seconds
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":7070",
			ServiceName:     "solo-rpc",
			ShutdownTimeout: 5 * time.Second,
		},
		Client: ClientConfig{
			CallTimeout: 3 * time.Second,
			Balancer:    "roundrobin",
			CacheTTL:    time.Second,
		},
		Registry: RegistryConfig{
			TTL: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path over the defaults. The format is whatever
// viper infers from the extension; duration fields accept strings such as
// "500ms" or "3s".
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return FromViper(v)
}

// FromViper decodes an already-populated viper instance over the defaults.
// Programs that own their viper (env bindings, flag wiring, remote sources)
// use this instead of Load.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// MergeMap applies overrides from a plain nested map, for reconfiguration
// paths that do not go through a file (admin endpoints, test fixtures).
// Only keys present in the map change.
func (c *Config) MergeMap(overrides map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     c,
	})
	if err != nil {
		return err
	}
	return dec.Decode(overrides)
}

// BuildLogger builds the zap logger described by the log section.
func (lc LogConfig) BuildLogger() (*zap.Logger, error) {
	var zcfg zap.Config
	if lc.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if lc.Level != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(lc.Level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zcfg.Build()
}
