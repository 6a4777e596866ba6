package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ProjectID                    string
	Port                         string
	AllowedOrigins               []string
	StorageBucket                string
	SignedURLServiceAccountEmail string

	StripeSecretKey     string
	StripeWebhookSecret string
	// UnlockFee is the contact unlock commission in minor units (öre).
	UnlockFee      int64
	UnlockCurrency string
	// DirectUnlock opens the no-payment unlock path alongside Stripe. It is
	// always open when payments are disabled.
	DirectUnlock bool

	RedisAddr     string
	RedisPassword string
	QuotaLockTTL  time.Duration

	KafkaBrokers       []string
	KafkaListingsTopic string
	KafkaGroupID       string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	LogLevel  string
	LogFormat string

	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	DiscoveryTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		Port:               "8080",
		UnlockFee:          5000,
		UnlockCurrency:     "sek",
		QuotaLockTTL:       10 * time.Second,
		KafkaListingsTopic: "listings.created",
		KafkaGroupID:       "vagvanner-alerts",
		LogLevel:           "info",
		LogFormat:          "json",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       20 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		DiscoveryTimeout:   8 * time.Second,
	}
}

func Load() (Config, error) {
	cfg := defaultConfig()
	var errs []error

	// FIREBASE_PROJECT_ID, falling back to GOOGLE_CLOUD_PROJECT
	cfg.ProjectID = getenv("FIREBASE_PROJECT_ID", "")
	if cfg.ProjectID == "" {
		cfg.ProjectID = getenv("GOOGLE_CLOUD_PROJECT", "")
	}
	if cfg.ProjectID == "" {
		errs = append(errs, fmt.Errorf("missing FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT"))
	}

	setString(&cfg.Port, "PORT")
	cfg.AllowedOrigins = splitAndTrim(getenv("ALLOWED_ORIGINS", "http://localhost:3000"))

	cfg.StorageBucket = getenv("FIREBASE_STORAGE_BUCKET", "")
	if cfg.StorageBucket == "" && cfg.ProjectID != "" {
		cfg.StorageBucket = cfg.ProjectID + ".appspot.com"
	}
	cfg.SignedURLServiceAccountEmail = getenv("SIGNED_URL_SERVICE_ACCOUNT_EMAIL", "")

	cfg.StripeSecretKey = getenv("STRIPE_SECRET_KEY", "")
	cfg.StripeWebhookSecret = getenv("STRIPE_WEBHOOK_SECRET", "")
	setInt64(&cfg.UnlockFee, "CONTACT_UNLOCK_FEE_ORE", &errs)
	setString(&cfg.UnlockCurrency, "CONTACT_UNLOCK_CURRENCY")
	cfg.UnlockCurrency = strings.ToLower(cfg.UnlockCurrency)
	setBool(&cfg.DirectUnlock, "DIRECT_UNLOCK_ENABLED", &errs)
	if cfg.UnlockFee <= 0 {
		errs = append(errs, fmt.Errorf("CONTACT_UNLOCK_FEE_ORE must be > 0"))
	}

	cfg.RedisAddr = getenv("REDIS_ADDR", "")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setDuration(&cfg.QuotaLockTTL, "QUOTA_LOCK_TTL", &errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setString(&cfg.KafkaListingsTopic, "KAFKA_LISTINGS_TOPIC")
	setString(&cfg.KafkaGroupID, "KAFKA_GROUP_ID")

	cfg.TwilioAccountSID = getenv("TWILIO_ACCOUNT_SID", "")
	cfg.TwilioAuthToken = getenv("TWILIO_AUTH_TOKEN", "")
	cfg.TwilioFromNumber = getenv("TWILIO_FROM_NUMBER", "")

	if v := getenv("LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv("LOG_FORMAT", ""); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	setDuration(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDuration(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDuration(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDuration(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)
	setDuration(&cfg.DiscoveryTimeout, "DISCOVERY_TIMEOUT", &errs)

	return cfg, errors.Join(errs...)
}

func (c Config) PaymentsEnabled() bool { return c.StripeSecretKey != "" }
func (c Config) RedisEnabled() bool    { return c.RedisAddr != "" }
func (c Config) KafkaEnabled() bool    { return len(c.KafkaBrokers) > 0 }

func (c Config) DirectUnlockEnabled() bool { return c.DirectUnlock || !c.PaymentsEnabled() }

func (c Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func setString(target *string, key string) {
	if v := getenv(key, ""); v != "" {
		*target = v
	}
}

func setDuration(target *time.Duration, key string, errs *[]error) {
	if v := getenv(key, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setInt64(target *int64, key string, errs *[]error) {
	if v := getenv(key, ""); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setBool(target *bool, key string, errs *[]error) {
	if v := getenv(key, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func splitAndTrim(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
