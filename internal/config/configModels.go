package config

import "time"

type Config struct {
	Env            string      `yaml:"env" env-default:"local"`
	DBConfig       DBConfig    `yaml:"db" env-required:"true"`
	BotConfig      BotConfig   `yaml:"bot" env-required:"true"`
	CacheConfig    CacheConfig `yaml:"cache"`
	ConfigFilePath string      `yaml:"configFilePath" env:"CONFIG_FILEPATH" env-default:""`
	ConfigFileName string      `yaml:"configFileName" env:"CONFIG_FILENAME" env-default:""`
	configPath     string
}

type DBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"postgres"`
	User     string `yaml:"user" env:"DB_USER" env-default:"user"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	Schema   string `yaml:"schema" env:"DB_SCHEMA" env-default:"multi_shop"`
}

type BotConfig struct {
	// SuperAdmins may manage any shop regardless of per-shop staff records.
	SuperAdmins   []string `yaml:"superAdmins" env-default:""`
	TgbotApiToken string   `yaml:"tgbot_apitoken" env:"TGBOT_APITOKEN" env-required:"true"`
}

type CacheConfig struct {
	// WarmTimeout bounds the startup bulk load of the user cache.
	WarmTimeout time.Duration `yaml:"warmTimeout" env-default:"30s"`
}
