// Package config loads deployment configuration from the environment.
// A .env file is honored for local development. Missing oracle or store
// credentials are configuration errors and fatal at startup; nothing in
// the pipeline retries them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the pipeline needs at startup.
type Config struct {
	// Inference oracle
	GeminiAPIKey string
	GeminiModel  string

	// Spreadsheet store
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	// Budget
	MonthlyBudget float64

	// Optional media archive
	GCSBucket string

	// HTTP server
	Port string
}

// Load reads configuration from the environment, consulting a local
// .env file when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
		SheetName:       getEnv("SHEET_NAME", "家計簿"),
		CredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		MonthlyBudget: getEnvFloat("MONTHLY_BUDGET", 100000),

		GCSBucket: getEnv("GCS_BUCKET", ""),

		Port: getEnv("PORT", "8080"),
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.GeminiAPIKey == "" {
		problems = append(problems, "GEMINI_API_KEY is required")
	}
	if c.SpreadsheetID == "" {
		problems = append(problems, "SPREADSHEET_ID is required")
	}
	if c.CredentialsJSON == "" && c.CredentialsFile == "" {
		problems = append(problems, "service account credentials are required (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	if c.MonthlyBudget <= 0 {
		problems = append(problems, fmt.Sprintf("invalid monthly budget %v: must be positive", c.MonthlyBudget))
	}
	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
