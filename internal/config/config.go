package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the talent pipeline service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	PublicOrigin        string
	CompanyName         string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	AMQPURL             string
	MailQueue           string
	MailFrom            string
	MailMaxAttempts     int
	MailBackoff         time.Duration
	JWTSecret           string
	AnalyticsCacheTTL   time.Duration
	StoreTimeout        time.Duration
	EnforceStageWeights bool
	RevokePreviousLinks bool
	AIProvider          string
	OpenAIAPIKey        string
	AIModel             string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TALENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "Talent Pipeline API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.public_origin", "http://localhost:3000")
	v.SetDefault("app.company_name", "PetroDeal")
	v.SetDefault("database.url", "sqlite:talent.db")
	v.SetDefault("mail.queue", "talent.email.outbox")
	v.SetDefault("mail.from", "careers@example.com")
	v.SetDefault("mail.max_attempts", 3)
	v.SetDefault("mail.backoff", "500ms")
	v.SetDefault("analytics.cache_ttl", "2m")
	v.SetDefault("store.timeout", "5s")
	v.SetDefault("pipeline.enforce_stage_weights", true)
	v.SetDefault("pipeline.revoke_previous_links", true)
	v.SetDefault("ai.provider", "none")
	v.SetDefault("ai.model", "gpt-4o-mini")

	cacheTTL, err := parseDuration(v, "analytics.cache_ttl", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}
	storeTimeout, err := parseDuration(v, "store.timeout", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	mailBackoff, err := parseDuration(v, "mail.backoff", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		PublicOrigin:        strings.TrimRight(v.GetString("app.public_origin"), "/"),
		CompanyName:         v.GetString("app.company_name"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		AMQPURL:             v.GetString("amqp.url"),
		MailQueue:           v.GetString("mail.queue"),
		MailFrom:            v.GetString("mail.from"),
		MailMaxAttempts:     v.GetInt("mail.max_attempts"),
		MailBackoff:         mailBackoff,
		JWTSecret:           v.GetString("jwt.secret"),
		AnalyticsCacheTTL:   cacheTTL,
		StoreTimeout:        storeTimeout,
		EnforceStageWeights: v.GetBool("pipeline.enforce_stage_weights"),
		RevokePreviousLinks: v.GetBool("pipeline.revoke_previous_links"),
		AIProvider:          strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		AIModel:             v.GetString("ai.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MailMaxAttempts <= 0 {
		cfg.MailMaxAttempts = 1
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
