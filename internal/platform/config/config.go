package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"

	defaultJWTSecret = "defaultsecret"
)

type Config struct {
	AppEnv  string
	APIPort string

	JWTKey   []byte
	TokenTTL time.Duration

	BcryptCost       int
	AllowAdminSignup bool
	AdminUsername    string
	AdminPassword    string

	StorageBackend string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	DBConnStr      string
	DBAutoMigrate  bool

	TokenRevocation bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	LogLevel  string
	LogFormat string
}

// Load reads the process environment, after merging in a .env file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		APIPort:          getEnv("API_PORT", "8080"),
		JWTKey:           []byte(getEnv("JWT_SECRET", defaultJWTSecret)),
		TokenTTL:         time.Duration(getEnvAsInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		BcryptCost:       getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		AllowAdminSignup: getEnvAsBool("ALLOW_ADMIN_SIGNUP", false),
		AdminUsername:    getEnv("ADMIN_USERNAME", ""),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendPostgres)),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "user"),
		DBPassword:       getEnv("DB_PASSWORD", "password"),
		DBName:           getEnv("DB_NAME", "donor_registry"),
		DBSslMode:        getEnv("DB_SSLMODE", "disable"),
		DBAutoMigrate:    getEnvAsBool("DB_AUTO_MIGRATE", true),
		TokenRevocation:  getEnvAsBool("TOKEN_REVOCATION", true),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) Validate() error {
	if len(c.JWTKey) == 0 {
		return errors.New("config: JWT_SECRET must not be empty")
	}
	if !c.IsDevelopment() && string(c.JWTKey) == defaultJWTSecret {
		return fmt.Errorf("config: JWT_SECRET must be set when APP_ENV=%s", c.AppEnv)
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: JWT_TTL_MINUTES must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.StorageBackend {
	case StorageBackendPostgres, StorageBackendMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("config: ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
