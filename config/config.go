package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v2"
)

// Config holds all configuration for the application
type Config struct {
	Port              string
	MongoURI          string
	MongoDatabase     string
	JWTSecret         string
	SessionTTL        time.Duration
	SpoonacularKey    string
	SpoonacularURL    string
	RedisAddr         string
	RedisPassword     string
	DiscoveryCacheTTL time.Duration
	LogLevel          string
	BcryptCost        int
	CatalogPath       string
	AllowedOrigins    []string
}

// fileConfig mirrors the optional config.yaml. Every key is the name of the
// environment variable it seeds.
type fileConfig struct {
	Port              string `yaml:"PORT"`
	MongoURI          string `yaml:"MONGODB_URI"`
	MongoDatabase     string `yaml:"MONGODB_DATABASE"`
	JWTSecret         string `yaml:"JWT_SECRET"`
	SessionTTL        string `yaml:"SESSION_TTL"`
	SpoonacularKey    string `yaml:"SPOONACULAR_API_KEY"`
	SpoonacularURL    string `yaml:"SPOONACULAR_BASE_URL"`
	RedisAddr         string `yaml:"REDIS_ADDR"`
	RedisPassword     string `yaml:"REDIS_PASSWORD"`
	DiscoveryCacheTTL string `yaml:"DISCOVERY_CACHE_TTL"`
	LogLevel          string `yaml:"LOG_LEVEL"`
	BcryptCost        string `yaml:"BCRYPT_COST"`
	CatalogPath       string `yaml:"CATALOG_PATH"`
	AllowedOrigins    string `yaml:"ALLOWED_ORIGINS"`
}

const DefaultSpoonacularURL = "https://api.spoonacular.com"

// Load reads .env (if present), then config.yaml (if present), then the
// process environment. Variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := getEnvOrDefault("CONFIG_FILE", "config.yaml")
	if err := applyFile(path); err != nil {
		return nil, err
	}
	return fromEnv()
}

func applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for key, value := range map[string]string{
		"PORT":                 fc.Port,
		"MONGODB_URI":          fc.MongoURI,
		"MONGODB_DATABASE":     fc.MongoDatabase,
		"JWT_SECRET":           fc.JWTSecret,
		"SESSION_TTL":          fc.SessionTTL,
		"SPOONACULAR_API_KEY":  fc.SpoonacularKey,
		"SPOONACULAR_BASE_URL": fc.SpoonacularURL,
		"REDIS_ADDR":           fc.RedisAddr,
		"REDIS_PASSWORD":       fc.RedisPassword,
		"DISCOVERY_CACHE_TTL":  fc.DiscoveryCacheTTL,
		"LOG_LEVEL":            fc.LogLevel,
		"BCRYPT_COST":          fc.BcryptCost,
		"CATALOG_PATH":         fc.CatalogPath,
		"ALLOWED_ORIGINS":      fc.AllowedOrigins,
	} {
		if value == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		os.Setenv(key, value)
	}
	return nil
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "10000"),
		MongoDatabase:  getEnvOrDefault("MONGODB_DATABASE", "pantrypal"),
		SpoonacularKey: os.Getenv("SPOONACULAR_API_KEY"),
		SpoonacularURL: getEnvOrDefault("SPOONACULAR_BASE_URL", DefaultSpoonacularURL),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		CatalogPath:    os.Getenv("CATALOG_PATH"),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
	}

	if cfg.MongoURI = os.Getenv("MONGODB_URI"); cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI environment variable is required")
	}
	if cfg.JWTSecret = os.Getenv("JWT_SECRET"); cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	var err error
	if cfg.SessionTTL, err = durationOrDefault("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.DiscoveryCacheTTL, err = durationOrDefault("DISCOVERY_CACHE_TTL", 2*time.Hour); err != nil {
		return nil, err
	}

	cfg.BcryptCost = bcrypt.DefaultCost
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("BCRYPT_COST must be an integer between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = cost
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
