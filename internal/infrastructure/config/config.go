package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration

	// Slack request verification
	SlackSigningSecret string
	MaxRequestAge      time.Duration // replay-protection window

	// Question bank
	QuestionsPath    string // JSON file with the question bank
	QuestionsSection string // top-level section to load

	// Session persistence
	SessionStore string // "file", "sqlite", or "memory"
	SessionsPath string // record set for the file store
	SQLitePath   string // database file for the sqlite store

	// Outbound reply posting
	PostTimeout time.Duration
	PostWorkers int
	PostBuffer  int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		ServerAddress:      getenvDefault("SERVER_ADDRESS", ":8080"),
		ShutdownTimeout:    getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SlackSigningSecret: mustGetenv("SLACK_SIGNING_SECRET"),
		MaxRequestAge:      getenvDuration("SLACK_MAX_REQUEST_AGE", 5*time.Minute),
		QuestionsPath:      getenvDefault("QUESTIONS_PATH", "qa_lookup.json"),
		QuestionsSection:   getenvDefault("QUESTIONS_SECTION", "practice_exam_a"),
		SessionStore:       getenvDefault("SESSION_STORE", "file"),
		SessionsPath:       getenvDefault("SESSIONS_PATH", "quiz_sessions.json"),
		SQLitePath:         getenvDefault("SQLITE_PATH", "quizbot.db"),
		PostTimeout:        getenvDuration("POST_TIMEOUT", 10*time.Second),
		PostWorkers:        getenvInt("POST_WORKERS", 3),
		PostBuffer:         getenvInt("POST_BUFFER", 16),
	}
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid integer: %v", k, v, err)
	}
	return n
}
