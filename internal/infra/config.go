package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Lead store backends accepted by LEAD_STORE.
const (
	LeadStoreNone     = "none"
	LeadStorePostgres = "postgres"
	LeadStoreMySQL    = "mysql"
	LeadStoreSQLite   = "sqlite"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
	DefaultLocale    string
	GeoIPDBPath      string

	PromptProvider         string
	GeminiAPIKey           string
	GeminiModel            string
	GeminiImageModel       string
	GeminiBaseURL          string
	OpenAIAPIKey           string
	OpenAIModel            string
	OpenAIBaseURL          string
	OpenAIOrg              string
	AnthropicAPIKey        string
	AnthropicBaseURL       string
	AnthropicChatModel     string
	AnthropicDocumentModel string
	AnthropicThemeModel    string
	ImageProvider          string
	SyntheticImages        bool

	StoragePath    string
	StorageBaseURL string
	CatalogPath    string

	LeadStore   string
	DatabaseURL string

	JobPrimaryTimeout         time.Duration
	JobAssetTimeout           time.Duration
	RequireContactForArtifact bool

	NotifyWebhookURL    string
	NotifyWebhookSecret string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),

		PromptProvider:         strings.ToLower(getEnv("PROMPT_PROVIDER", "gemini")),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:       getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:          getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:              os.Getenv("OPENAI_ORG"),
		AnthropicAPIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL:       getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicChatModel:     os.Getenv("ANTHROPIC_CHAT_MODEL"),
		AnthropicDocumentModel: os.Getenv("ANTHROPIC_DOCUMENT_MODEL"),
		AnthropicThemeModel:    os.Getenv("ANTHROPIC_THEME_MODEL"),
		ImageProvider:          strings.ToLower(getEnv("IMAGE_PROVIDER", "gemini")),
		SyntheticImages:        getEnvBool("IMAGE_SYNTHETIC_FALLBACK", true),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		CatalogPath:    os.Getenv("CATALOG_PATH"),

		LeadStore:   strings.ToLower(getEnv("LEAD_STORE", LeadStoreNone)),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JobPrimaryTimeout:         time.Second * time.Duration(getEnvInt("JOB_PRIMARY_TIMEOUT_SECONDS", 180)),
		JobAssetTimeout:           time.Second * time.Duration(getEnvInt("JOB_ASSET_TIMEOUT_SECONDS", 60)),
		RequireContactForArtifact: getEnvBool("REQUIRE_CONTACT_FOR_ARTIFACT", true),

		NotifyWebhookURL:    os.Getenv("NOTIFY_WEBHOOK_URL"),
		NotifyWebhookSecret: os.Getenv("NOTIFY_WEBHOOK_SECRET"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PromptProvider {
	case "gemini", "openai", "anthropic", "static":
	default:
		return fmt.Errorf("PROMPT_PROVIDER %q is not supported", c.PromptProvider)
	}
	switch c.ImageProvider {
	case "gemini", "none":
	default:
		return fmt.Errorf("IMAGE_PROVIDER %q is not supported", c.ImageProvider)
	}
	switch c.LeadStore {
	case LeadStoreNone:
	case LeadStorePostgres, LeadStoreMySQL, LeadStoreSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when LEAD_STORE=%s", c.LeadStore)
		}
	default:
		return fmt.Errorf("LEAD_STORE %q is not supported", c.LeadStore)
	}
	if c.JobPrimaryTimeout <= 0 || c.JobAssetTimeout <= 0 {
		return fmt.Errorf("job timeouts must be positive")
	}
	if c.NotifyWebhookURL != "" && c.NotifyWebhookSecret == "" {
		return fmt.Errorf("NOTIFY_WEBHOOK_SECRET is required when NOTIFY_WEBHOOK_URL is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
