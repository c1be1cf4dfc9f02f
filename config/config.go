package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Game    GameConfig    `mapstructure:"game"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress       string        `mapstructure:"http_address"`
	RPCAddress        string        `mapstructure:"rpc_address"`
	MetricsAddress    string        `mapstructure:"metrics_address"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// StorageConfig selects the backend holding the catalog blob.
type StorageConfig struct {
	Engine   string         `mapstructure:"engine"`
	Path     string         `mapstructure:"path"`
	Key      string         `mapstructure:"key"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type GameConfig struct {
	MemorizeSeconds int           `mapstructure:"memorize_seconds"`
	GameOverDelay   time.Duration `mapstructure:"game_over_delay"`
	Lives           int           `mapstructure:"lives"`
	DemoLives       int           `mapstructure:"demo_lives"`
	ImageDir        string        `mapstructure:"image_dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":9090")
	v.SetDefault("server.metrics_address", ":2112")
	v.SetDefault("server.heartbeat_interval", 30*time.Second)

	v.SetDefault("storage.engine", "sqlite")
	v.SetDefault("storage.path", "data/flashfive.db")
	v.SetDefault("storage.key", "flashFiveFrenzyData")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)

	v.SetDefault("game.memorize_seconds", 10)
	v.SetDefault("game.game_over_delay", 3*time.Second)
	v.SetDefault("game.lives", 3)
	v.SetDefault("game.demo_lives", 1)
	v.SetDefault("game.image_dir", "images")

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path. A missing file is not an error:
// defaults and FLASHFIVE_* environment variables still apply.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("flashfive")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	return
}
