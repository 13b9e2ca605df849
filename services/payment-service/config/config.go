package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	aws_pkg "github.com/hassansajjadkhan/goaliv2vercel-sub001/pkg/aws"
	"github.com/joho/godotenv"
)

// Event bus backends for fulfillment events.
const (
	EventBusNone  = ""
	EventBusSNS   = "sns"
	EventBusKafka = "kafka"
)

type Config struct {
	Port     string
	AppEnv   string
	Postgres PostgresConfig

	StripeSecretKey  string
	StripeWebhookKey string
	JWTSecret        string

	FrontendURL     string
	PlatformFeeBPS  int64
	DefaultCurrency string
	ConnectCountry  string
	AllowedOrigins  []string

	RedisURL     string
	TicketBucket string
	TicketCDNURL string

	EventBus           string
	PaymentSNSTopicARN string
	KafkaBrokers       []string
	KafkaTopic         string

	DuesQueueURL string
}

type PostgresConfig struct {
	User     string
	Password string
	DB       string
	Host     string
	Port     string
	SSLMode  string
	TimeZone string
}

// DSN is the connection string gorm's postgres driver expects.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		p.Host, p.User, p.Password, p.DB, p.Port, p.SSLMode, p.TimeZone,
	)
}

// secretsSource is the subset of aws_pkg.SecretsClient the loader needs.
type secretsSource interface {
	GetJSONSecret(ctx context.Context, name string) (map[string]string, error)
	GetSecret(ctx context.Context, name string) (string, error)
}

// LoadConfig reads configuration from the environment (and a .env file when
// present), with an optional Secrets Manager override.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := fromEnv()

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Port:   getEnv("PORT", "8087"),
		AppEnv: getEnv("APP_ENV", "development"),
		Postgres: PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		StripeSecretKey:    os.Getenv("STRIPE_API_KEY"),
		StripeWebhookKey:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		FrontendURL:        strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		PlatformFeeBPS:     getEnvInt("PLATFORM_FEE_BPS", 500),
		DefaultCurrency:    strings.ToLower(getEnv("DEFAULT_CURRENCY", "usd")),
		ConnectCountry:     getEnv("STRIPE_CONNECT_COUNTRY", "US"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RedisURL:           os.Getenv("REDIS_URL"),
		TicketBucket:       os.Getenv("TICKET_BUCKET"),
		TicketCDNURL:       os.Getenv("TICKET_CDN_URL"),
		EventBus:           strings.ToLower(os.Getenv("EVENT_BUS")),
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "payment-events"),
		DuesQueueURL:       os.Getenv("DUES_QUEUE_URL"),
	}
}

// applySecrets overrides database credentials and Stripe keys with values
// stored in Secrets Manager. Missing secrets leave the env values in place.
func applySecrets(ctx context.Context, cfg *Config, sm secretsSource) {
	if m, err := sm.GetJSONSecret(ctx, "payment/DB_CREDENTIALS"); err == nil {
		overrideIfSet(&cfg.Postgres.User, m["POSTGRES_USER"])
		overrideIfSet(&cfg.Postgres.Password, m["POSTGRES_PASSWORD"])
		overrideIfSet(&cfg.Postgres.DB, m["POSTGRES_DB"])
		overrideIfSet(&cfg.Postgres.Host, m["POSTGRES_HOST"])
		overrideIfSet(&cfg.Postgres.Port, m["POSTGRES_PORT"])
	}
	if m, err := sm.GetJSONSecret(ctx, "payment/STRIPE"); err == nil {
		overrideIfSet(&cfg.StripeSecretKey, m["STRIPE_API_KEY"])
		overrideIfSet(&cfg.StripeWebhookKey, m["STRIPE_WEBHOOK_SECRET"])
	}
	if v, err := sm.GetSecret(ctx, "payment/JWT_SECRET"); err == nil {
		overrideIfSet(&cfg.JWTSecret, v)
	}
}

func (c *Config) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"POSTGRES_USER":         c.Postgres.User,
		"POSTGRES_PASSWORD":     c.Postgres.Password,
		"POSTGRES_DB":           c.Postgres.DB,
		"STRIPE_API_KEY":        c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookKey,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.EventBus {
	case EventBusNone:
	case EventBusSNS:
		if c.PaymentSNSTopicARN == "" {
			return fmt.Errorf("EVENT_BUS=sns requires PAYMENT_SNS_TOPIC_ARN")
		}
	case EventBusKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("EVENT_BUS=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.EventBus)
	}

	if c.PlatformFeeBPS < 0 || c.PlatformFeeBPS >= 10000 {
		return fmt.Errorf("PLATFORM_FEE_BPS must be in [0, 10000), got %d", c.PlatformFeeBPS)
	}
	return nil
}

// CheckoutSuccessURL is where the gateway sends the payer after paying.
func (c *Config) CheckoutSuccessURL() string {
	return c.FrontendURL + "/payments/success?session_id={CHECKOUT_SESSION_ID}"
}

func (c *Config) CheckoutCancelURL() string {
	return c.FrontendURL + "/payments/cancel"
}

func (c *Config) OnboardingRefreshURL() string {
	return c.FrontendURL + "/settings/payouts?refresh=1"
}

func (c *Config) OnboardingReturnURL() string {
	return c.FrontendURL + "/settings/payouts"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func overrideIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
