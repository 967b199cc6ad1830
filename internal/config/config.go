package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScheduleOff disables the renormalization job when used as its schedule.
const ScheduleOff = "off"

type Config struct {
	DBDriver            string `yaml:"db_driver"`
	DBHost              string `yaml:"db_host"`
	DBPort              string `yaml:"db_port"`
	DBUser              string `yaml:"db_user"`
	DBPassword          string `yaml:"db_password"`
	DBName              string `yaml:"db_name"`
	RedisHost           string `yaml:"redis_host"`
	RedisPort           string `yaml:"redis_port"`
	SessionSecret       string `yaml:"session_secret"`
	SessionStore        string `yaml:"session_store"`
	GinMode             string `yaml:"gin_mode"`
	OpenAIAPIKey        string `yaml:"openai_api_key"`
	OpenAIBaseURL       string `yaml:"openai_base_url"`
	ServerAddr          string `yaml:"server_addr"`
	RenormalizeSchedule string `yaml:"renormalize_schedule"`
}

// Load builds the configuration from environment variables. When CONFIG_FILE
// names a YAML file, values set in it replace the environment defaults and
// explicitly set environment variables still win over the file.
//
// RENORMALIZE_SCHEDULE set to an empty string or to "off", or
// renormalize_schedule: off in the file, leaves RenormalizeSchedule empty.
func Load() (*Config, error) {
	cfg := fromEnv()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		cfg.normalize()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	cfg.overlay(&file)
	cfg.normalize()
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		DBDriver:            getEnv("DB_DRIVER", "mysql"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "3306"),
		DBUser:              getEnv("DB_USER", "taskuser"),
		DBPassword:          getEnv("DB_PASSWORD", "taskpassword"),
		DBName:              getEnv("DB_NAME", "task_board"),
		RedisHost:           getEnv("REDIS_HOST", "localhost"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		SessionSecret:       getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SessionStore:        getEnv("SESSION_STORE", "redis"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		ServerAddr:          getEnv("SERVER_ADDR", ":8080"),
		RenormalizeSchedule: lookupEnv("RENORMALIZE_SCHEDULE", "@every 1h"),
	}
}

// overlay copies non-empty file values for keys not set in the environment.
// Keys marked explicit count as set even when the variable is empty.
func (c *Config) overlay(file *Config) {
	fields := []struct {
		env      string
		dst      *string
		src      string
		explicit bool
	}{
		{"DB_DRIVER", &c.DBDriver, file.DBDriver, false},
		{"DB_HOST", &c.DBHost, file.DBHost, false},
		{"DB_PORT", &c.DBPort, file.DBPort, false},
		{"DB_USER", &c.DBUser, file.DBUser, false},
		{"DB_PASSWORD", &c.DBPassword, file.DBPassword, false},
		{"DB_NAME", &c.DBName, file.DBName, false},
		{"REDIS_HOST", &c.RedisHost, file.RedisHost, false},
		{"REDIS_PORT", &c.RedisPort, file.RedisPort, false},
		{"SESSION_SECRET", &c.SessionSecret, file.SessionSecret, false},
		{"SESSION_STORE", &c.SessionStore, file.SessionStore, false},
		{"GIN_MODE", &c.GinMode, file.GinMode, false},
		{"OPENAI_API_KEY", &c.OpenAIAPIKey, file.OpenAIAPIKey, false},
		{"OPENAI_BASE_URL", &c.OpenAIBaseURL, file.OpenAIBaseURL, false},
		{"SERVER_ADDR", &c.ServerAddr, file.ServerAddr, false},
		{"RENORMALIZE_SCHEDULE", &c.RenormalizeSchedule, file.RenormalizeSchedule, true},
	}
	for _, f := range fields {
		if f.src == "" || envSet(f.env, f.explicit) {
			continue
		}
		*f.dst = f.src
	}
}

func (c *Config) normalize() {
	schedule := strings.TrimSpace(c.RenormalizeSchedule)
	if strings.EqualFold(schedule, ScheduleOff) {
		schedule = ""
	}
	c.RenormalizeSchedule = schedule
}

func envSet(key string, explicit bool) bool {
	if explicit {
		_, ok := os.LookupEnv(key)
		return ok
	}
	return os.Getenv(key) != ""
}

// lookupEnv is getEnv for keys where an empty value is meaningful.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
