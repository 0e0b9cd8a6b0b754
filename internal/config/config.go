package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// #region config

// Config holds every runtime setting. Values come from the environment, with
// an optional .env file loaded first.
type Config struct {
	// Generation endpoints (OpenAI-compatible chat completions).
	LLMMainURL   string
	LLMSQLURL    string
	LLMSPARQLURL string

	// SPARQL query endpoint for the venue knowledge graph.
	SPARQLEndpoint string

	// Relational store. A postgres:// DSN selects the Postgres driver;
	// anything else is treated as an embedded SQLite path.
	DBDSN     string
	DBEnabled bool

	// Transcript provenance database (SQLite).
	TranscriptDB string

	RequestTimeout time.Duration
	KeepAlive      time.Duration

	Port int
}

// #endregion config

// #region load

// Load reads the .env file (if present) and the environment. Missing optional
// values fall back to defaults; the generation endpoint is required.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[CFG] no .env file loaded: %v", err)
	}

	cfg := Config{
		LLMMainURL:     os.Getenv("LLM_URL_MAIN"),
		LLMSQLURL:      os.Getenv("LLM_URL_SQL"),
		LLMSPARQLURL:   os.Getenv("LLM_URL_SPARQL"),
		SPARQLEndpoint: os.Getenv("SPARQL_ENDPOINT"),
		DBDSN:          envOr("DB_DSN", buildDSNFromParts()),
		TranscriptDB:   envOr("TRANSCRIPT_DB", "concierge_log.db"),
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT_S", 50)) * time.Second,
		KeepAlive:      time.Duration(envInt("KEEPALIVE_MS", 2000)) * time.Millisecond,
		Port:           envInt("PORT", 5100),
	}
	cfg.DBEnabled = cfg.DBDSN != ""

	if cfg.LLMMainURL == "" {
		return cfg, fmt.Errorf("LLM_URL_MAIN is required")
	}
	if cfg.LLMSQLURL == "" {
		cfg.LLMSQLURL = cfg.LLMMainURL
	}
	if cfg.LLMSPARQLURL == "" {
		cfg.LLMSPARQLURL = cfg.LLMMainURL
	}
	return cfg, nil
}

// buildDSNFromParts assembles a Postgres DSN from the individual DB_* vars
// when DB_DSN itself is unset. Empty when no host is configured.
func buildDSNFromParts() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		host, envOr("DB_PORT", "5432"), os.Getenv("DB_NAME"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// #endregion load
