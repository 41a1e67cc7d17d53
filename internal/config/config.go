package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string `env:"APP_ENV" envDefault:"development"`
	Port           string `env:"PORT" envDefault:"8080"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	LogLevel       string `env:"LOG_LEVEL"`

	DBHost string `env:"DB_HOST" envDefault:"localhost"`
	DBUser string `env:"DB_USER" envDefault:"postgres"`
	DBPass string `env:"DB_PASS"`
	DBName string `env:"DB_NAME" envDefault:"donorhub"`
	DBPort string `env:"DB_PORT" envDefault:"5432"`
	DBSSL  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisURL string `env:"REDIS_URL"`

	MeiliSearchHost string `env:"MEILISEARCH_HOST" envDefault:"http://localhost:7700"`
	MeiliMasterKey  string `env:"MEILI_MASTER_KEY"`
	SearchDisabled  bool   `env:"SEARCH_DISABLED"`

	CloudinaryURL          string `env:"CLOUDINARY_URL"`
	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey       string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret    string `env:"CLOUDINARY_API_SECRET"`
	CloudinaryUploadFolder string `env:"CLOUDINARY_UPLOAD_FOLDER" envDefault:"donorhub"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"change-me"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"1h"`
	DefaultRole  string        `env:"DEFAULT_ROLE" envDefault:"donor"`
	GoogleID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedir  string        `env:"GOOGLE_REDIRECT_URL"`
	// GoogleDomain restricts Google sign-in to one email domain when set.
	GoogleDomain string `env:"GOOGLE_ALLOWED_DOMAIN"`
	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// XP awarded per whole currency unit pledged.
	XPPerCurrencyUnit  int64         `env:"XP_PER_CURRENCY_UNIT" envDefault:"10"`
	RateLimitPledge    time.Duration `env:"RATE_LIMIT_PLEDGE" envDefault:"10s"`
	MembershipCacheTTL time.Duration `env:"MEMBERSHIP_CACHE_TTL" envDefault:"5m"`
	PresenceWindow     time.Duration `env:"PRESENCE_WINDOW" envDefault:"2m"`
	PresenceRetention  time.Duration `env:"PRESENCE_RETENTION" envDefault:"1h"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@donorhub.local"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:"admin12345"`

	JobsEnabled bool          `env:"JOBS_ENABLED" envDefault:"true"`
	JobTimeout  time.Duration `env:"JOB_TIMEOUT" envDefault:"2m"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.XPPerCurrencyUnit < 0 {
		return fmt.Errorf("invalid XP_PER_CURRENCY_UNIT: %d", c.XPPerCurrencyUnit)
	}
	if !c.IsDevelopment() && c.JWTSecret == "change-me" {
		return fmt.Errorf("JWT_SECRET must be set outside development")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// MeiliHost accepts bare hostnames like "meili" as well as full URLs.
func (c *Config) MeiliHost() string {
	if strings.HasPrefix(c.MeiliSearchHost, "http") {
		return c.MeiliSearchHost
	}
	return "http://" + c.MeiliSearchHost + ":7700"
}

// StorageConfigured reports whether Cloudinary credentials are present.
func (c *Config) StorageConfigured() bool {
	if c.CloudinaryURL != "" {
		return true
	}
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
