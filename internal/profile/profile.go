package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol)
	LLMAPIKey  string // API key for the generation service
	LLMBaseURL string // Base URL (default: https://api.openai.com/v1)
	ChatModel  string // Model used for chat, summarization and title calls

	// Grounding configuration
	VectorStoreID string // Knowledge collection used for file_search grounding
	MaxSnippets   int    // Max retrieved grounding snippets per call (default: 5)

	// Usage accounting, USD per million tokens
	InputTokenRate  float64
	OutputTokenRate float64

	// Server configuration
	Mode    string
	Addr    string
	Data    string
	Driver  string
	DSN     string
	Version string
	Port    int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if the generation service is configured.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMAPIKey = getEnvOrDefault("THOMAS_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("THOMAS_LLM_BASE_URL", "https://api.openai.com/v1")
	p.ChatModel = getEnvOrDefault("THOMAS_CHAT_MODEL", "gpt-4o-mini")

	p.VectorStoreID = getEnvOrDefault("THOMAS_VECTOR_STORE_ID", "")
	p.MaxSnippets = getEnvOrDefaultInt("THOMAS_MAX_SNIPPETS", 5)

	// Defaults match gpt-4o-mini pricing: $0.15/1M input, $0.60/1M output.
	p.InputTokenRate = getEnvOrDefaultFloat("THOMAS_INPUT_TOKEN_RATE", 0.15)
	p.OutputTokenRate = getEnvOrDefaultFloat("THOMAS_OUTPUT_TOKEN_RATE", 0.60)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "thomas")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					return errors.Wrapf(err, "failed to create data directory %s", p.Data)
				}
			}
		} else {
			p.Data = "/var/opt/thomas"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("thomas_%s.db", p.Mode))
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.MaxSnippets <= 0 {
		p.MaxSnippets = 5
	}

	return nil
}
