package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Remote RemoteConfig `mapstructure:"remote"`
	S3     S3Config     `mapstructure:"s3"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Sync   SyncConfig   `mapstructure:"sync"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StoreConfig selects the durable key-value store behind the local repository.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "memory", "sqlite" or "s3"
	Path   string `mapstructure:"path"`   // SQLite file path
	Prefix string `mapstructure:"prefix"` // Object key prefix for the s3 driver
	Debug  bool   `mapstructure:"debug"`
}

// RemoteConfig selects the backend the sync engine talks to.
// An empty driver keeps the app offline-only.
type RemoteConfig struct {
	Driver string `mapstructure:"driver"` // "", "mongo" or "postgres"
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"` // Database name (mongo)
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// SyncConfig controls the background sync loop.
type SyncConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoadConfig reads configuration from file or environment variables.
// An optional .env file in path is loaded into the process environment first.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, err
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, sync.interval -> SYNC_INTERVAL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", "127.0.0.1:8787")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/myhealth.db")
	v.SetDefault("store.prefix", "myhealth/")
	v.SetDefault("store.debug", false)
	v.SetDefault("remote.driver", "")
	v.SetDefault("remote.uri", "mongodb://localhost:27017")
	v.SetDefault("remote.name", "myhealth")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.interval", "5m")

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// Running on defaults and env vars only
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, nil
}
