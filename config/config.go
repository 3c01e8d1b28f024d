package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Promotion PromotionConfig `mapstructure:"promotion"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type PromotionConfig struct {
	Packages            []PromotionPackage `mapstructure:"packages"`
	Banks               []string           `mapstructure:"banks"`
	DurationDays        int                `mapstructure:"duration_days"`
	TickIntervalMinutes int                `mapstructure:"tick_interval_minutes"`
	ResetTimezone       string             `mapstructure:"reset_timezone"`
	ExtraRequestAmount  float64            `mapstructure:"extra_request_amount"`
}

type PromotionPackage struct {
	TimesPerDay int     `mapstructure:"times_per_day"`
	Amount      float64 `mapstructure:"amount"`
	Name        string  `mapstructure:"name"`
}

// PackageFor looks up a paid package by its times-per-day selector.
func (p *PromotionConfig) PackageFor(timesPerDay int) (*PromotionPackage, bool) {
	for i := range p.Packages {
		if p.Packages[i].TimesPerDay == timesPerDay {
			return &p.Packages[i], true
		}
	}
	return nil, false
}

// BankAllowed reports whether the given bank selector is accepted.
func (p *PromotionConfig) BankAllowed(bank string) bool {
	for _, b := range p.Banks {
		if b == bank {
			return true
		}
	}
	return false
}

func Load(configPath string) (*Config, error) {
	// Prefer config.local.yaml when present (holds real secrets, not committed)
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Environment variables override file values
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
