// Package config provides configuration management for the bot.
// It loads environment variables (optionally from a .env file) and makes
// them available throughout the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken   string
	DevGuildID string

	// Moderation
	AllowedDomains       []string
	LinkTTL              time.Duration
	TickInterval         time.Duration
	WarningThreshold     int
	ValidatorTimeout     time.Duration
	ValidatorConcurrency int
	BrokenStatusCodes    []int
	ReportChannelID      string
	WatchChannels        []string

	// MongoDB (audit log)
	MongoDBURL string
	DBName     string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port string
	// WebAllowedHost restricts the Host header of API requests; empty allows any
	WebAllowedHost string

	// Environment
	Environment string

	// Webhooks
	ErrorWebhook string
	LogsWebhook  string
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgOnce sync.Once
	// problems collects values that could not be parsed during loading
	problems []string
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
	problems = nil
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		// Discord
		BotToken:   getEnv("botToken", ""),
		DevGuildID: getEnv("devGuildId", ""),

		// Moderation
		AllowedDomains:       getEnvList("allowedDomains", []string{"blndev.com"}),
		LinkTTL:              getEnvDuration("linkTTL", 72*time.Hour),
		TickInterval:         getEnvDuration("tickInterval", 72*time.Hour),
		WarningThreshold:     getEnvInt("warningThreshold", 5),
		ValidatorTimeout:     getEnvDuration("validatorTimeout", 10*time.Second),
		ValidatorConcurrency: getEnvInt("validatorConcurrency", 8),
		BrokenStatusCodes:    getEnvIntList("brokenStatusCodes", []int{403}),
		ReportChannelID:      getEnv("reportChannelId", ""),
		WatchChannels:        getEnvList("watchChannels", nil),

		// MongoDB
		MongoDBURL: getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:     getEnv("dbName", "ChannelGuard"),

		// MQTT
		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		// Web Server
		Port:           getEnv("PORT", "3000"),
		WebAllowedHost: getEnv("webAllowedHost", ""),

		// Environment
		Environment: getEnv("enviroment", "dev"),

		// Webhooks
		ErrorWebhook: getEnv("errorWebhook", ""),
		LogsWebhook:  getEnv("logsWebhook", ""),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	// Use sync.Once to ensure thread-safe initialization if Load wasn't called
	cfgOnce.Do(loadConfig)
	return cfg
}

// Problems returns the values that were ignored because they could not be
// parsed; their defaults were used instead
func Problems() []string {
	return problems
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses a positive integer, falling back to the default
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		problems = append(problems, fmt.Sprintf("%s=%q no es un entero positivo", key, value))
		return defaultValue
	}
	return n
}

// getEnvDuration parses a Go duration such as "72h", falling back to the default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		problems = append(problems, fmt.Sprintf("%s=%q no es una duración válida", key, value))
		return defaultValue
	}
	return d
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvIntList splits a comma separated list of integers
func getEnvIntList(key string, defaultValue []int) []int {
	items := getEnvList(key, nil)
	if items == nil {
		return defaultValue
	}

	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s contiene un valor no numérico: %q", key, item))
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// Watches reports whether the bot moderates the given channel.
// With no watch list every channel is moderated.
func (c *Config) Watches(channelID string) bool {
	if len(c.WatchChannels) == 0 {
		return true
	}
	for _, id := range c.WatchChannels {
		if id == channelID {
			return true
		}
	}
	return false
}
