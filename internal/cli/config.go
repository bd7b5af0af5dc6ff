package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/matzehuels/reefrank/pkg/store"
)

// CacheConfig selects the centrality and run cache.
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis_url"`
	Prefix   string `mapstructure:"prefix"`
	Disabled bool   `mapstructure:"disabled"`
}

// StoreConfig selects where saved runs live.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig configures "reefrank serve".
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Config holds runtime configuration. Values come from .reefrank.yaml,
// REEFRANK_* env vars (REEFRANK_CACHE_REDIS_URL for cache.redis_url) and
// built-in defaults, in decreasing precedence after flags.
type Config struct {
	Workers int          `mapstructure:"workers"`
	Cache   CacheConfig  `mapstructure:"cache"`
	Store   StoreConfig  `mapstructure:"store"`
	Server  ServerConfig `mapstructure:"server"`
}

// loadConfig reads configuration into a fresh viper instance. An empty path
// searches for .reefrank.yaml in the working and home directories; a
// missing file is not an error.
func loadConfig(path string) (Config, error) {
	v := viper.New()

	cacheHome, _ := cacheDir()
	v.SetDefault("workers", 0)
	v.SetDefault("cache.dir", cacheHome)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "")
	v.SetDefault("cache.disabled", false)
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", filepath.Join(cacheHome, "runs.db"))
	v.SetDefault("server.port", 8080)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("." + appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
