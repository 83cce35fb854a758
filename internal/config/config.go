package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	BaseURL         string   `mapstructure:"BASE_URL"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer      string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL     string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience    string   `mapstructure:"AUTH_AUDIENCE"`
	DefaultTenant   string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `mapstructure:"RATE_LIMIT_BURST"`
	OpenAIAPIKey    string   `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel     string   `mapstructure:"OPENAI_MODEL"`
	StripeAPIKey    string   `mapstructure:"STRIPE_API_KEY"`

	StripePriceStarter      string `mapstructure:"STRIPE_PRICE_STARTER"`
	StripePriceProfessional string `mapstructure:"STRIPE_PRICE_PROFESSIONAL"`
	StripePricePractice     string `mapstructure:"STRIPE_PRICE_PRACTICE"`

	EmailFrom       string   `mapstructure:"EMAIL_FROM"`
	PracticeName    string   `mapstructure:"PRACTICE_NAME"`
	ConsentTokenTTL int      `mapstructure:"CONSENT_TOKEN_TTL_HOURS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("BASE_URL", "http://localhost:8000")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("EMAIL_FROM", "no-reply@counsel.example.com")
	v.SetDefault("PRACTICE_NAME", "Counsel Practice")
	v.SetDefault("CONSENT_TOKEN_TTL_HOURS", 72)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("BASE_URL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("STRIPE_API_KEY")
	v.BindEnv("STRIPE_PRICE_STARTER")
	v.BindEnv("STRIPE_PRICE_PROFESSIONAL")
	v.BindEnv("STRIPE_PRICE_PRACTICE")
	v.BindEnv("EMAIL_FROM")
	v.BindEnv("PRACTICE_NAME")
	v.BindEnv("CONSENT_TOKEN_TTL_HOURS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production mode
// real JWT authentication must be configured and the external API credentials
// the server depends on must be present.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AuthIssuer == "" {
			return fmt.Errorf("AUTH_ISSUER is required in production")
		}
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required in production")
		}
		if c.StripeAPIKey == "" {
			return fmt.Errorf("STRIPE_API_KEY is required in production")
		}
	}
	if c.ConsentTokenTTL <= 0 {
		return fmt.Errorf("CONSENT_TOKEN_TTL_HOURS must be positive, got %d", c.ConsentTokenTTL)
	}
	return nil
}
