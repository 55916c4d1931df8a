package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML application configuration. Environment variables override
// the file for deployment-specific values.
type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Scenario struct {
		File          string `yaml:"file"`
		SkillInfoFile string `yaml:"skill_info_file"`
	} `yaml:"scenario"`

	Rooms struct {
		ReadingExtensionSec  int `yaml:"reading_extension_sec"`
		DisconnectGraceSec   int `yaml:"disconnect_grace_sec"`
		CleanupIntervalMin   int `yaml:"cleanup_interval_min"`
		InactivityTimeoutHrs int `yaml:"inactivity_timeout_hrs"`
	} `yaml:"rooms"`
}

// DatabaseConfig assembles the Postgres DSN. DATABASE_URL wins when set.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnvAsInt("PORT", config.Server.Port)
	if origin := os.Getenv("FRONTEND_URL"); origin != "" {
		config.Server.AllowedOrigins = append(config.Server.AllowedOrigins, origin)
	}
	config.Scenario.File = getEnv("SCENARIO_FILE", config.Scenario.File)
	config.Scenario.SkillInfoFile = getEnv("SKILL_INFO_FILE", config.Scenario.SkillInfoFile)

	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 3001
	config.Server.AllowedOrigins = []string{"http://localhost:5173"}
	config.Scenario.File = "data/scenario.json"
	config.Scenario.SkillInfoFile = "data/skill_info.json"
	config.Rooms.ReadingExtensionSec = 180
	config.Rooms.DisconnectGraceSec = 10
	config.Rooms.CleanupIntervalMin = 60 * 24
	config.Rooms.InactivityTimeoutHrs = 24 * 14
	return config
}

// Durations with sane floors so a zeroed config section cannot produce a
// zero-interval sweep.
func (c *Config) readingExtension() time.Duration {
	return time.Duration(max(c.Rooms.ReadingExtensionSec, 1)) * time.Second
}

func (c *Config) disconnectGrace() time.Duration {
	return time.Duration(max(c.Rooms.DisconnectGraceSec, 1)) * time.Second
}

func (c *Config) cleanupInterval() time.Duration {
	return time.Duration(max(c.Rooms.CleanupIntervalMin, 1)) * time.Minute
}

func (c *Config) inactivityTimeout() time.Duration {
	return time.Duration(max(c.Rooms.InactivityTimeoutHrs, 1)) * time.Hour
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "mystery_maker"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN returns the connection string for pgx.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}
