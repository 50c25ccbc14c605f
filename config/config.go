package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// GameConfig holds the simulation constants that are tunable per deployment.
type GameConfig struct {
	TickRate         int     `mapstructure:"tick_rate"`
	WinScore         int     `mapstructure:"win_score"`
	CountdownSeconds int     `mapstructure:"countdown_seconds"`
	MaxSpeed         float64 `mapstructure:"max_speed"`
}

// TickPeriod converts the configured tick rate into a ticker period.
func (g GameConfig) TickPeriod() time.Duration {
	return time.Second / time.Duration(g.TickRate)
}

// Countdown returns the pre-match countdown duration.
func (g GameConfig) Countdown() time.Duration {
	return time.Duration(g.CountdownSeconds) * time.Second
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("game.tick_rate", 60)
	viper.SetDefault("game.win_score", 10)
	viper.SetDefault("game.countdown_seconds", 3)
	viper.SetDefault("game.max_speed", 3)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
