package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DOMINOES_SERVER_ADDR for server.addr.
const EnvPrefix = "DOMINOES"

// Config is the full server configuration.
type Config struct {
	Server  ServerConf  `mapstructure:"server"`
	Storage StorageConf `mapstructure:"storage"`
	Log     LogConf     `mapstructure:"log"`
	Debug   DebugConf   `mapstructure:"debug"`
}

// ServerConf configures the HTTP listener and websocket origins.
type ServerConf struct {
	Addr    string   `mapstructure:"addr"`
	Origins []string `mapstructure:"origins"`
}

// StorageConf locates the match history database. An empty path disables it.
type StorageConf struct {
	Path string `mapstructure:"path"`
}

// LogConf sets the log level: debug, info, warn or error.
type LogConf struct {
	Level string `mapstructure:"level"`
}

// DebugConf toggles the runtime dashboard.
type DebugConf struct {
	Statsviz bool `mapstructure:"statsviz"`
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.origins", []string{})
	v.SetDefault("storage.path", "dominoes.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("debug.statsviz", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	return v
}

// Load reads defaults, the optional config file and environment overrides.
func Load(configFile string) (*Config, error) {
	v := newViper(configFile)
	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return decode(v)
}

// Watch calls fn with the reloaded config each time configFile changes.
// Reload errors are passed to fn with a nil config.
func Watch(configFile string, fn func(*Config, error)) error {
	if configFile == "" {
		return fmt.Errorf("watch: no config file")
	}
	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configFile, err)
	}
	v.OnConfigChange(func(in fsnotify.Event) {
		if !in.Has(fsnotify.Write) && !in.Has(fsnotify.Create) {
			return
		}
		// viper logs a failed re-read and keeps the old values.
		if err := v.ReadInConfig(); err != nil {
			fn(nil, fmt.Errorf("reload config %s: %w", configFile, err))
			return
		}
		fn(decode(v))
	})
	v.WatchConfig()
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// PORT and DB_PATH override everything else.
	if p := os.Getenv("PORT"); p != "" {
		cfg.Server.Addr = ":" + p
	}
	if p := os.Getenv("DB_PATH"); p != "" {
		cfg.Storage.Path = p
	}
	return &cfg, nil
}
