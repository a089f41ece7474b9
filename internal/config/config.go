package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Token signing and password hashing
	Auth AuthConfig `json:"auth"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port           string `json:"port"`
	Host           string `json:"host"`
	ReadTimeout    int    `json:"read_timeout"`
	WriteTimeout   int    `json:"write_timeout"`
	Environment    string `json:"environment"` // development, test, production
	GRPCHealthPort string `json:"grpc_health_port"`
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver       string `json:"driver"` // mysql, sqlite
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	SQLitePath   string `json:"sqlite_path"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// AuthConfig holds the shared token secret and the bcrypt work factor.
type AuthConfig struct {
	SecretKey        string `json:"-"`
	BcryptWorkFactor int    `json:"bcrypt_work_factor"`
	TokenTTLMinutes  int    `json:"token_ttl_minutes"` // 0 means tokens never expire
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using system env variables")
	}

	env := getEnvOrDefault("APP_ENV", "development")
	dbName := "messagely"
	if env == "test" {
		dbName = "messagely_test"
	}

	return &Config{
		Server: ServerConfig{
			Host:           getEnvOrDefault("SERVER_HOST", ""),
			Port:           getEnvOrDefault("SERVER_PORT", "3000"),
			ReadTimeout:    getEnvIntOrDefault("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 15),
			Environment:    env,
			GRPCHealthPort: getEnvOrDefault("GRPC_HEALTH_PORT", ""),
		},
		Database: DatabaseConfig{
			Driver:       getEnvOrDefault("DB_DRIVER", DriverMySQL),
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "3306"),
			Username:     getEnvOrDefault("DB_USER", "messagely"),
			Password:     getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("DB_NAME", dbName),
			SQLitePath:   getEnvOrDefault("DB_SQLITE_PATH", "messagely.db"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			SecretKey:        getEnvOrDefault("SECRET_KEY", "secret"),
			BcryptWorkFactor: getEnvIntOrDefault("BCRYPT_WORK_FACTOR", 12),
			TokenTTLMinutes:  getEnvIntOrDefault("AUTH_TOKEN_TTL_MINUTES", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}
}

// DSN returns the connection string for the configured driver.
func (cfg *Config) DSN() string {
	if cfg.Database.Driver == DriverSQLite {
		return cfg.Database.SQLitePath + "?_foreign_keys=on"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

// Addr is the HTTP listen address.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
