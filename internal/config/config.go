package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory", "sqlite" or "firestore"
	DBPath         string

	UseMockLLM    bool // true = rule-based classifier, even on GCP
	UseMockSearch bool // true = in-memory place search

	FoursquareAPIKey   string
	FoursquareApiBase  string
	FoursquareSubmitTo string

	// SessionIdleTimeout is how long a session may sit idle before its
	// flow is discarded on next access.
	SessionIdleTimeout time.Duration
	// HistoryLimit caps the per-session history ring.
	HistoryLimit int
	// CollaboratorTimeout bounds each external call (LLM, search, write).
	CollaboratorTimeout time.Duration
	// TieBreak picks the winner among equally confident agents:
	// "first" (registration order) or "last".
	TieBreak string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads .env (if present) and all env vars and builds the config.
func Load() *Config {
	_ = godotenv.Load()

	modeStr := getEnv("PILOT_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("PILOT_PORT", "8080"),

		GCPProjectID: getEnv("PILOT_GCP_PROJECT", ""),
		GCPLocation:  getEnv("PILOT_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("PILOT_MODEL_NAME", "gemini-2.5-flash-lite"),

		StorageBackend: getEnv("PILOT_STORAGE_BACKEND", "memory"),
		DBPath:         getEnv("PILOT_DB_PATH", "./data/placepilot.db"),

		UseMockLLM:    getBoolEnv("PILOT_USE_MOCK_LLM", mode == ModeLocal),
		UseMockSearch: getBoolEnv("PILOT_USE_MOCK_SEARCH", mode == ModeLocal),

		FoursquareAPIKey:   getEnv("FOURSQUARE_API_KEY", ""),
		FoursquareApiBase:  getEnv("FOURSQUARE_API_BASE", "https://places-api.foursquare.com"),
		FoursquareSubmitTo: getEnv("FOURSQUARE_SUBMIT_URL", ""),

		SessionIdleTimeout:  getDurationEnv("PILOT_SESSION_IDLE_TIMEOUT", 30*time.Minute),
		HistoryLimit:        getIntEnv("PILOT_HISTORY_LIMIT", 20),
		CollaboratorTimeout: getDurationEnv("PILOT_COLLABORATOR_TIMEOUT", 10*time.Second),
		TieBreak:            getEnv("PILOT_TIE_BREAK", "first"),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("PILOT_GCP_PROJECT must be set in gcp mode")
	}
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("PILOT_GCP_PROJECT must be set for the firestore storage backend")
	}
	if !cfg.UseMockSearch && cfg.FoursquareAPIKey == "" {
		log.Fatal("FOURSQUARE_API_KEY must be set when mock search is disabled")
	}

	return cfg
}
