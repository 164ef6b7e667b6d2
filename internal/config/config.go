package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	LLM       LLMConfig
	SMTP      SMTPConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type LLMConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SchedulerConfig struct {
	Timezone     string
	PollInterval time.Duration
	QueryTimeout time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LLM_CHAT_MODEL", "gemini-1.5-pro-latest")
	viper.SetDefault("LLM_EMBEDDING_MODEL", "text-embedding-004")
	viper.SetDefault("LLM_TIMEOUT", "60s")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM_NAME", "AI Report Assistant")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("SCHEDULER_POLL_INTERVAL", "5s")
	viper.SetDefault("QUERY_TIMEOUT", "30s")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		LLM: LLMConfig{
			APIKey:         viper.GetString("GOOGLE_API_KEY"),
			ChatModel:      viper.GetString("LLM_CHAT_MODEL"),
			EmbeddingModel: viper.GetString("LLM_EMBEDDING_MODEL"),
			Timeout:        durationOrDefault("LLM_TIMEOUT", 60*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_SERVER"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_USERNAME"),
			FromName: viper.GetString("SMTP_FROM_NAME"),
		},
		Scheduler: SchedulerConfig{
			Timezone:     viper.GetString("SCHEDULER_TIMEZONE"),
			PollInterval: durationOrDefault("SCHEDULER_POLL_INTERVAL", 5*time.Second),
			QueryTimeout: durationOrDefault("QUERY_TIMEOUT", 30*time.Second),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.LLM.APIKey == "" {
		log.Println("WARNING: GOOGLE_API_KEY is not set")
	}

	return cfg, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

// Location resolves the configured scheduling timezone, falling back to UTC.
func (s *SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
