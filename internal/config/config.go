package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	PushAuto = "auto"
	PushFCM  = "fcm"
	PushExpo = "expo"

	MissingRoomDiscard  = "discard"
	MissingRoomFallback = "fallback"
)

type Config struct {
	Server   ServerConfig
	App      AppConfig
	Firebase FirebaseConfig
	Push     PushConfig
	Fanout   FanoutConfig
	Redis    RedisConfig
	PubSub   PubSubConfig
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
	StoreDriver     string
}

type PushConfig struct {
	Driver           string
	ExpoHost         string
	AndroidChannelID string
}

// FanoutConfig tunes the message fan-out. MaxSubscribers caps the
// subscriber query when positive; 0 reads the whole set.
type FanoutConfig struct {
	DefaultTitle      string
	ImagePlaceholder  string
	MissingRoomPolicy string
	MaxSubscribers    int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DedupTTL time.Duration
}

type PubSubConfig struct {
	Subscription string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT")),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			StoreDriver:     getEnv("STORE_DRIVER", StoreFirestore),
		},
		Push: PushConfig{
			Driver:           getEnv("PUSH_DRIVER", PushAuto),
			ExpoHost:         getEnv("EXPO_HOST", ""),
			AndroidChannelID: getEnv("ANDROID_CHANNEL_ID", "default"),
		},
		Fanout: FanoutConfig{
			DefaultTitle:      getEnv("DEFAULT_NOTIFICATION_TITLE", "New Message"),
			ImagePlaceholder:  getEnv("IMAGE_PLACEHOLDER_BODY", "📷 Image"),
			MissingRoomPolicy: getEnv("MISSING_ROOM_POLICY", MissingRoomDiscard),
			MaxSubscribers:    getEnvAsInt("MAX_FANOUT_SUBSCRIBERS", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			DedupTTL: getEnvAsDuration("DEDUP_TTL", 24*time.Hour),
		},
		PubSub: PubSubConfig{
			Subscription: getEnv("PUBSUB_SUBSCRIPTION", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Firebase.StoreDriver {
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when STORE_DRIVER=%s", StoreFirestore)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Firebase.StoreDriver)
	}

	switch c.Push.Driver {
	case PushAuto, PushFCM, PushExpo:
	default:
		return fmt.Errorf("unknown PUSH_DRIVER %q", c.Push.Driver)
	}

	switch c.Fanout.MissingRoomPolicy {
	case MissingRoomDiscard, MissingRoomFallback:
	default:
		return fmt.Errorf("unknown MISSING_ROOM_POLICY %q", c.Fanout.MissingRoomPolicy)
	}

	if c.Fanout.MaxSubscribers < 0 {
		return fmt.Errorf("MAX_FANOUT_SUBSCRIBERS must not be negative")
	}

	return nil
}

// DedupEnabled reports whether trigger de-duplication has a Redis backend.
func (c *Config) DedupEnabled() bool {
	return c.Redis.Addr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warnf("invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warnf("invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
