package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	GameAddr       string // Listen address for bot TCP connections
	VisualizerAddr string // Listen address for the spectator HTTP server

	TurnTimeout time.Duration // Per-turn response deadline for each bot
	ExtraDelay  time.Duration // Artificial pause appended to each turn, for watching fast bots
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		GameAddr:       getEnv("GAME_ADDR", "127.0.0.1:4040"),
		VisualizerAddr: getEnv("VISUALIZER_ADDR", "127.0.0.1:3030"),

		TurnTimeout: time.Duration(getEnvAsInt("TURN_TIMEOUT_MS", 200)) * time.Millisecond,
		ExtraDelay:  time.Duration(getEnvAsInt("EXTRA_DELAY_MS", 0)) * time.Millisecond,
	}
}

// getEnv retrieves the value of an environment variable or falls back to the default.
func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// getEnvAsInt retrieves the value of an environment variable as an integer,
// falling back to the default if unset. A set but unparsable value is fatal.
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("%s[APP]%s %s[FATAL]%s Environment variable %s must be an integer: %v", ColorGreen, ColorReset, ColorRed, ColorReset, key, err)
	}
	return value
}
