package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddr        string
	DBPath            string
	FileBackend       string
	FileLocalPath     string
	FileCacheSize     int
	AdvisorBackend    string
	ClaudeAPIKey      string
	ClaudeModel       string
	GBIFURL           string
	WeatherURL        string
	LogLevel          string
	LogFile           string
	CascadeFileDelete bool
}

func Load() *Config {
	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "/data/plantcare.db"),
		FileBackend:       getEnv("FILE_BACKEND", "sqlite"),
		FileLocalPath:     getEnv("FILE_LOCAL_PATH", "/data/files"),
		FileCacheSize:     getEnvInt("FILE_CACHE_SIZE", 64),
		AdvisorBackend:    getEnv("ADVISOR_BACKEND", "none"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", ""),
		GBIFURL:           getEnv("GBIF_URL", ""),
		WeatherURL:        getEnv("WEATHER_URL", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
		CascadeFileDelete: getEnvBool("CASCADE_FILE_DELETE", false),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getEnvInt falls back to defaultVal when the variable is unset or not an integer.
func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return b
}
