package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress = "localhost:8080"
	defaultMigrations = "migrations"
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
}

type db struct {
	// Пустой DatabaseURI включает хранилище в памяти.
	DatabaseURI string
	Migrations  string
}

type server struct {
	RunAddress      string
	ShutdownTimeout time.Duration
}

type logger struct {
	LogLevel string
}

func MustLoad() *Config {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Ошибка загрузки .env файла: %v", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", EnvLocal)
	viper.SetDefault("RUN_ADDRESS", defaultRunAddress)
	viper.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	config := &Config{
		Env: viper.GetString("APP_ENV"),
		DB: db{
			DatabaseURI: viper.GetString("DATABASE_URI"),
			Migrations:  viper.GetString("MIGRATIONS_PATH"),
		},
		Server: server{
			RunAddress:      viper.GetString("RUN_ADDRESS"),
			ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Logger: logger{LogLevel: viper.GetString("LOG_LEVEL")},
	}

	if err := config.validate(); err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	return config
}

func (c *Config) validate() error {
	if c.Server.RunAddress == "" {
		return fmt.Errorf("run_address не может быть пустым")
	}
	if c.DB.DatabaseURI != "" && c.DB.Migrations == "" {
		return fmt.Errorf("migrations_path не может быть пустым")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout должен быть положительным")
	}
	return nil
}

// InMemory сообщает, что сервер работает без базы данных.
func (c *Config) InMemory() bool {
	return c.DB.DatabaseURI == ""
}

func (c *Config) IsLocal() bool { return c.Env == EnvLocal }
func (c *Config) IsDev() bool   { return c.Env == EnvDev }
func (c *Config) IsProd() bool  { return c.Env == EnvProd }
