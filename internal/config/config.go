package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel      string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	BoardSize     int     `yaml:"board-size" env:"BOARD_SIZE" env-default:"19"`
	KoHistory     int     `yaml:"ko-history" env-default:"10"`
	TCPPort       string  `yaml:"tcp-port" env:"TCP_PORT" env-default:"8888"`
	WebSocketPort string  `yaml:"websocket-port" env:"WEBSOCKET_PORT" env-default:"8889"`
	HTTPPort      string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis         Redis   `yaml:"redis"`
	Archive       Archive `yaml:"archive"`
	Bot           Bot     `yaml:"bot"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`

	// SnapshotTTL bounds how long a session snapshot outlives its last update.
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env-default:"24h"`
}

// Archive configures both the move-history API served by this process and
// the recorder that reports finished moves to it (or to a remote instance).
type Archive struct {
	Enabled     bool   `yaml:"enabled" env:"ARCHIVE_ENABLED" env-default:"true"`
	SQLitePath  string `yaml:"sqlite-path" env:"ARCHIVE_SQLITE_PATH" env-default:"goban.db"`
	URL         string `yaml:"url" env:"ARCHIVE_URL" env-default:""`
	EventBuffer int    `yaml:"event-buffer" env-default:"256"`
}

type Bot struct {
	Enabled bool   `yaml:"enabled" env:"BOT_ENABLED" env-default:"false"`
	Name    string `yaml:"name" env-default:"RandomBot"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// ArchiveURL returns the recorder target, defaulting to the local HTTP server.
func (that *Config) ArchiveURL() string {
	if that.Archive.URL != "" {
		return that.Archive.URL
	}

	return "http://localhost:" + that.HTTPPort
}
