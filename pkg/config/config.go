package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Copilot provider names accepted in COPILOT_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderCanned = "canned"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Database (empty = in-memory audit trail)
	DatabaseURL  string
	AuditMigrate bool

	// JWT
	JWTSecret     string
	JWTIssuer     string
	JWTExpiration int // hours

	// Catalog override (empty = embedded seed)
	CatalogPath string

	// Copilot collaborator
	CopilotProvider string
	GeminiAPIKey    string
	GeminiModel     string

	// Ollama chat endpoint
	OllamaChatURL   string
	OllamaChatModel string
	OllamaChatToken string // Bearer token for Ollama Cloud (empty = local)

	// Copilot pacing
	ScanInterval       time.Duration
	ScanCompleteDelay  time.Duration
	CopilotRatePerMin  int
	CopilotMaxInflight int

	// MCP
	MCPEnabled bool
	MCPPort    string

	// Frontend
	FrontendURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "3001"),
		AppName: envOrDefault("APP_NAME", "Finsentsis"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AuditMigrate: envOrDefaultBool("AUDIT_MIGRATE", true),

		JWTSecret:     envOrDefault("JWT_SECRET", "change-me-in-production"),
		JWTIssuer:     envOrDefault("JWT_ISSUER", "finsentsis"),
		JWTExpiration: envOrDefaultInt("JWT_EXPIRATION_HOURS", 24),

		CatalogPath: os.Getenv("CATALOG_PATH"),

		CopilotProvider: strings.ToLower(envOrDefault("COPILOT_PROVIDER", defaultProvider())),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),

		OllamaChatURL:   envOrDefault("OLLAMA_CHAT_URL", envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")),
		OllamaChatModel: envOrDefault("OLLAMA_CHAT_MODEL", "qwen3"),
		OllamaChatToken: os.Getenv("OLLAMA_CHAT_TOKEN"),

		ScanInterval:       time.Duration(envOrDefaultInt("SCAN_INTERVAL_MS", 1000)) * time.Millisecond,
		ScanCompleteDelay:  time.Duration(envOrDefaultInt("SCAN_COMPLETE_DELAY_MS", 800)) * time.Millisecond,
		CopilotRatePerMin:  envOrDefaultInt("COPILOT_RATE_PER_MIN", 20),
		CopilotMaxInflight: envOrDefaultInt("COPILOT_MAX_INFLIGHT", 8),

		MCPEnabled: envOrDefaultBool("MCP_ENABLED", false),
		MCPPort:    envOrDefault("MCP_PORT", "3002"),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

// Persistent reports whether the audit trail is backed by Postgres.
func (c *Config) Persistent() bool {
	return c.DatabaseURL != ""
}

// EffectiveProvider is the collaborator actually used. Gemini without an API
// key degrades to the canned reply instead of failing at startup.
func (c *Config) EffectiveProvider() string {
	switch c.CopilotProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return ProviderCanned
		}
		return ProviderGemini
	case ProviderOllama:
		return ProviderOllama
	default:
		return ProviderCanned
	}
}

// defaultProvider picks Gemini when a key is present, else the canned reply.
func defaultProvider() string {
	if os.Getenv("GEMINI_API_KEY") != "" {
		return ProviderGemini
	}
	return ProviderCanned
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
