package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	MongoDB   MongoDBConfig
	AI        AIConfig
	Places    PlacesConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reminders RemindersConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	MaxUploadBytes int64
}

// AuthConfig controls bearer token issuing.
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
}

// MongoDBConfig holds settings for MongoDB. An empty URI selects the
// in-memory store, which is only meant for local runs.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AIConfig holds settings for the receipt OCR and shelf-life model. Without a
// key the mock extractor is used.
type AIConfig struct {
	AnthropicKey string
	Model        string
	BaseURL      string
}

// Enabled reports whether the LLM-backed extractor should be used.
func (c AIConfig) Enabled() bool {
	return c.AnthropicKey != ""
}

// PlacesConfig holds Google Places / Geocoding settings. Without a key the
// built-in donation center list is served.
type PlacesConfig struct {
	APIKey       string
	BaseURL      string
	RadiusMeters int
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// Enabled reports whether outbound reminders can be delivered.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// SheetsConfig contains configuration required to export pantries to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether pantry export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// RemindersConfig holds scheduler-related settings.
type RemindersConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the configured timezone, falling back to UTC.
func (c RemindersConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is set directly.
		_ = godotenv.Load()
	}

	maxUpload, err := getenvInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	radius, err := getenvInt("DONATION_RADIUS_METERS", 5000)
	if err != nil {
		return nil, err
	}
	tokenDuration, err := time.ParseDuration(getenvWithDefault("JWT_TOKEN_DURATION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TOKEN_DURATION: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			MaxUploadBytes: int64(maxUpload),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenDuration: tokenDuration,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "expiry_tracker"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:        getenvWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			BaseURL:      getenvWithDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		},
		Places: PlacesConfig{
			APIKey:       os.Getenv("GOOGLE_MAPS_API_KEY"),
			BaseURL:      getenvWithDefault("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
			RadiusMeters: radius,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
		Reminders: RemindersConfig{
			CronSchedule: getenvWithDefault("REMINDER_CRON_SCHEDULE", "0 8 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}

	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenDuration <= 0 {
		return errors.New("JWT_TOKEN_DURATION must be positive")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided with MONGODB_URI")
	}

	if c.Places.RadiusMeters <= 0 {
		return errors.New("DONATION_RADIUS_METERS must be positive")
	}

	if c.WhatsApp.BaseURL == "" {
		return errors.New("WHATSAPP_BASE_URL must not be empty")
	}
	if c.WhatsApp.APIVersion == "" {
		return errors.New("WHATSAPP_API_VERSION must not be empty")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_EXPORT_ID must be provided together")
	}

	if c.Reminders.CronSchedule == "" {
		return errors.New("REMINDER_CRON_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Reminders.CronSchedule); err != nil {
		return fmt.Errorf("REMINDER_CRON_SCHEDULE: %w", err)
	}
	if _, err := time.LoadLocation(c.Reminders.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
