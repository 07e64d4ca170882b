package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process-level settings for a storyforge run. Values come from
// the environment, with an optional .env overlay.
type Config struct {
	APIKey      string
	StrongModel string
	WeakModel   string
	OutputRoot  string
	AuditDir    string
	RPS         float64
	Burst       int
}

// Load reads configuration from the environment. A .env file at envPath (or
// ./.env when empty) is loaded first when present; real environment variables
// win over the file.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		APIKey:      firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY")),
		StrongModel: firstNonEmpty(os.Getenv("STRONG_TEXT_MODEL"), "gemini-2.5-pro"),
		WeakModel:   firstNonEmpty(os.Getenv("WEAK_TEXT_MODEL"), "gemini-2.5-flash"),
		OutputRoot:  firstNonEmpty(os.Getenv("STORYFORGE_OUT"), "output"),
		AuditDir:    firstNonEmpty(os.Getenv("STORYFORGE_LOG"), "log"),
	}
	if v := os.Getenv("LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RPS = f
		}
	}
	if v := os.Getenv("LLM_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Burst = n
		}
	}
	return cfg, nil
}

// RequireAPIKey returns an error when no credential is configured. Callers
// that use the offline fake client skip this check.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("missing GEMINI_API_KEY (or API_KEY) in environment or .env")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
