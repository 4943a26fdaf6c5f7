package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the articles backend.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Trends   TrendsConfig
	Content  ContentConfig
	Images   ImagesConfig
	Quota    QuotaConfig
	Generate GenerateConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// TrendsConfig configures the discovery client and its credential pool.
// APIKeys share one combined monthly budget; MonthlyCapPerKey is the
// per-credential call limit enforced by the upstream provider.
type TrendsConfig struct {
	BaseURL            string
	Timeout            time.Duration
	APIKeys            []string
	MonthlyCapPerKey   int
	BatchSize          int
	CombinationsPerRun int
}

type ContentConfig struct {
	Provider    string
	Timeout     time.Duration
	MaxAttempts int
	RetryBase   time.Duration
	CacheTTL    time.Duration
	OpenAI      OpenAIConfig
	Anthropic   AnthropicConfig
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type ImagesConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// QuotaConfig exposes the refresh-priority weights and admission thresholds.
// These are policy knobs, not correctness constants; defaults match the
// production tuning.
type QuotaConfig struct {
	AllocationRatio    float64 // share of the summed caps actually spendable
	WeightTime         float64
	WeightUsage        float64
	WeightImportance   float64
	TrendFloor         float64
	WeightScarcity     float64
	MinUnusedTrends    int           // shouldFetchNew: enough stock already
	MinRefreshInterval time.Duration // shouldFetchNew: too soon since last fetch
	RecentWindow       time.Duration // window for the recent-content factor
	ShareSourceMin     int           // sharing: source must have at least this many unused
	ShareTargetBelow   int           // sharing: only targets under this receive copies
	ShareBatch         int           // sharing: max keywords copied per target
}

// GenerateConfig drives the generation cycle: the daily production cap, the
// favorable time window (local hours, half-open) and the eligibility and
// priority knobs.
type GenerateConfig struct {
	DailyCap            int
	MaxCombinations     int
	MinTrendsToGenerate int
	WindowStartHour     int
	WindowEndHour       int
	WeightUnused        float64
	WeightStaleness     float64
	WeightImportance    float64
}

type JobsConfig struct {
	Timezone         string
	RefreshSpec      string
	GenerateSpec     string
	QuotaResetSpec   string
	ProgressInterval time.Duration
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"template":  true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("ARTICLES_PORT", 8080),
			Env:  envString("ARTICLES_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Trends: TrendsConfig{
			BaseURL:            os.Getenv("TRENDS_BASE_URL"),
			Timeout:            envDuration("TRENDS_TIMEOUT", 30*time.Second),
			APIKeys:            envList("TRENDS_API_KEYS"),
			MonthlyCapPerKey:   envInt("TRENDS_MONTHLY_CAP_PER_KEY", 250),
			BatchSize:          envInt("TRENDS_BATCH_SIZE", 10),
			CombinationsPerRun: envInt("TRENDS_COMBINATIONS_PER_RUN", 6),
		},
		Content: ContentConfig{
			Provider:    envString("CONTENT_PROVIDER", "template"),
			Timeout:     envDuration("CONTENT_TIMEOUT", 90*time.Second),
			MaxAttempts: envInt("CONTENT_MAX_ATTEMPTS", 3),
			RetryBase:   envDuration("CONTENT_RETRY_BASE", 2*time.Second),
			CacheTTL:    envDuration("CONTENT_CACHE_TTL", 24*time.Hour),
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Images: ImagesConfig{
			BaseURL: os.Getenv("IMAGES_BASE_URL"),
			APIKey:  os.Getenv("IMAGES_API_KEY"),
			Timeout: envDuration("IMAGES_TIMEOUT", 15*time.Second),
		},
		Quota: QuotaConfig{
			AllocationRatio:    envFloat("QUOTA_ALLOCATION_RATIO", 0.9),
			WeightTime:         envFloat("QUOTA_WEIGHT_TIME", 5),
			WeightUsage:        envFloat("QUOTA_WEIGHT_USAGE", 0.5),
			WeightImportance:   envFloat("QUOTA_WEIGHT_IMPORTANCE", 10),
			TrendFloor:         envFloat("QUOTA_TREND_FLOOR", 10),
			WeightScarcity:     envFloat("QUOTA_WEIGHT_SCARCITY", 2),
			MinUnusedTrends:    envInt("QUOTA_MIN_UNUSED_TRENDS", 15),
			MinRefreshInterval: envDuration("QUOTA_MIN_REFRESH_INTERVAL", 72*time.Hour),
			RecentWindow:       envDuration("QUOTA_RECENT_WINDOW", 168*time.Hour),
			ShareSourceMin:     envInt("QUOTA_SHARE_SOURCE_MIN", 10),
			ShareTargetBelow:   envInt("QUOTA_SHARE_TARGET_BELOW", 5),
			ShareBatch:         envInt("QUOTA_SHARE_BATCH", 10),
		},
		Generate: GenerateConfig{
			DailyCap:            envInt("GENERATE_DAILY_CAP", 24),
			MaxCombinations:     envInt("GENERATE_MAX_COMBINATIONS", 6),
			MinTrendsToGenerate: envInt("GENERATE_MIN_TRENDS", 3),
			WindowStartHour:     envInt("GENERATE_WINDOW_START_HOUR", 6),
			WindowEndHour:       envInt("GENERATE_WINDOW_END_HOUR", 23),
			WeightUnused:        envFloat("GENERATE_WEIGHT_UNUSED", 0.6),
			WeightStaleness:     envFloat("GENERATE_WEIGHT_STALENESS", 0.3),
			WeightImportance:    envFloat("GENERATE_WEIGHT_IMPORTANCE", 0.1),
		},
		Jobs: JobsConfig{
			Timezone:         envString("JOBS_TIMEZONE", "UTC"),
			RefreshSpec:      envString("JOBS_REFRESH_SPEC", "0 */6 * * *"),
			GenerateSpec:     envString("JOBS_GENERATE_SPEC", "30 */2 * * *"),
			QuotaResetSpec:   envString("JOBS_QUOTA_RESET_SPEC", "5 0 1 * *"),
			ProgressInterval: envDuration("JOBS_PROGRESS_INTERVAL", 30*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Trends.BaseURL == "" {
		return fmt.Errorf("TRENDS_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Trends.BaseURL, "http://") && !strings.HasPrefix(c.Trends.BaseURL, "https://") {
		return fmt.Errorf("TRENDS_BASE_URL must start with http:// or https://, got %q", c.Trends.BaseURL)
	}
	if len(c.Trends.APIKeys) == 0 {
		return fmt.Errorf("TRENDS_API_KEYS is required (comma-separated list)")
	}
	if c.Trends.MonthlyCapPerKey <= 0 {
		return fmt.Errorf("TRENDS_MONTHLY_CAP_PER_KEY must be positive, got %d", c.Trends.MonthlyCapPerKey)
	}

	if !validProviders[c.Content.Provider] {
		return fmt.Errorf("CONTENT_PROVIDER must be one of openai, anthropic, template; got %q", c.Content.Provider)
	}
	if c.Content.Provider == "openai" && c.Content.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when CONTENT_PROVIDER is openai")
	}
	if c.Content.Provider == "anthropic" && c.Content.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when CONTENT_PROVIDER is anthropic")
	}
	if c.Content.MaxAttempts < 1 {
		return fmt.Errorf("CONTENT_MAX_ATTEMPTS must be at least 1, got %d", c.Content.MaxAttempts)
	}

	if c.Quota.AllocationRatio <= 0 || c.Quota.AllocationRatio > 1 {
		return fmt.Errorf("QUOTA_ALLOCATION_RATIO must be in (0,1], got %v", c.Quota.AllocationRatio)
	}

	if c.Generate.DailyCap < 1 {
		return fmt.Errorf("GENERATE_DAILY_CAP must be at least 1, got %d", c.Generate.DailyCap)
	}
	if c.Generate.WindowStartHour < 0 || c.Generate.WindowStartHour > 23 {
		return fmt.Errorf("GENERATE_WINDOW_START_HOUR must be 0-23, got %d", c.Generate.WindowStartHour)
	}
	if c.Generate.WindowEndHour < 0 || c.Generate.WindowEndHour > 24 {
		return fmt.Errorf("GENERATE_WINDOW_END_HOUR must be 0-24, got %d", c.Generate.WindowEndHour)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
