package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort  string
	Environment string

	Firebase FirebaseConfig
	Storage  StorageConfig
	Verifier VerifierConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Reports  ReportsConfig
	Log      LogConfig
}

type FirebaseConfig struct {
	ProjectID          string
	ServiceAccountJSON string
	ServiceAccountPath string
}

type StorageConfig struct {
	Bucket string
}

type VerifierConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	PreCallDelay time.Duration
	RetryDelay   time.Duration
	MaxTokens    int
	Timeout      time.Duration
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	SessionCacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ReportsConfig holds the lifecycle knobs.
type ReportsConfig struct {
	RetainDeclined     bool
	MessageTTL         time.Duration
	MessageSweepPeriod time.Duration
	GuardTTL           time.Duration
	MaxImageBytes      int64
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		ServerPort:  v.GetString("SERVER_PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		Firebase: FirebaseConfig{
			ProjectID:          v.GetString("FIREBASE_PROJECT_ID"),
			ServiceAccountJSON: v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON"),
			ServiceAccountPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		Storage: StorageConfig{
			Bucket: v.GetString("STORAGE_BUCKET"),
		},
		Verifier: VerifierConfig{
			APIKey:       v.GetString("GEMINI_API_KEY"),
			Model:        v.GetString("GEMINI_MODEL"),
			BaseURL:      v.GetString("GEMINI_BASE_URL"),
			PreCallDelay: v.GetDuration("VERIFY_PRE_CALL_DELAY"),
			RetryDelay:   v.GetDuration("VERIFY_RETRY_DELAY"),
			MaxTokens:    v.GetInt("VERIFY_MAX_TOKENS"),
			Timeout:      v.GetDuration("VERIFY_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:            v.GetString("REDIS_ADDR"),
			Password:        v.GetString("REDIS_PASSWORD"),
			DB:              v.GetInt("REDIS_DB"),
			SessionCacheTTL: v.GetDuration("SESSION_CACHE_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Reports: ReportsConfig{
			RetainDeclined:     v.GetBool("REPORTS_RETAIN_DECLINED"),
			MessageTTL:         v.GetDuration("MESSAGE_TTL"),
			MessageSweepPeriod: v.GetDuration("MESSAGE_SWEEP_INTERVAL"),
			GuardTTL:           v.GetDuration("MODERATION_GUARD_TTL"),
			MaxImageBytes:      v.GetInt64("MAX_IMAGE_BYTES"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-service-account.json")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("VERIFY_PRE_CALL_DELAY", "1s")
	v.SetDefault("VERIFY_RETRY_DELAY", "5s")
	v.SetDefault("VERIFY_MAX_TOKENS", 10)
	v.SetDefault("VERIFY_TIMEOUT", "30s")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_CACHE_TTL", "30m")
	v.SetDefault("KAFKA_TOPIC", "report-lifecycle")
	v.SetDefault("REPORTS_RETAIN_DECLINED", true)
	v.SetDefault("MESSAGE_TTL", "2h")
	v.SetDefault("MESSAGE_SWEEP_INTERVAL", "1h")
	v.SetDefault("MODERATION_GUARD_TTL", "30s")
	v.SetDefault("MAX_IMAGE_BYTES", 5*1024*1024)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
