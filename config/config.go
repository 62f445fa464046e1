package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every variable; each field also accepts its bare tag name.
const EnvPrefix = "RECOVERY"

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"

	MQBackendNone     = "none"
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"

	ObjectStorageNone  = "none"
	ObjectStorageMinio = "minio"
	ObjectStorageGCS   = "gcs"
)

type Config struct {
	ServerPort   int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	StoreDriver  string        `envconfig:"STORE_DRIVER" default:"memory"`
	CORSOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	Log           LogConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Redis         RedisConfig
	MQ            MQConfig
	RabbitMQ      RabbitMQConfig
	PubSub        PubSubConfig
	ObjectStorage ObjectStorageConfig
	Minio         MinioConfig
	GCS           GCSConfig
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"recovery"`
	Password string `envconfig:"DB_PASSWORD" default:"password"`
	DBName   string `envconfig:"DB_NAME" default:"recovery_db"`
	UseSSL   bool   `envconfig:"DB_USE_SSL" default:"false"`
}

type AuthConfig struct {
	JWTSecret    string        `envconfig:"JWT_SECRET"`
	TokenTTL     time.Duration `envconfig:"JWT_TOKEN_TTL" default:"24h"`
	PasswordCost int           `envconfig:"PASSWORD_COST" default:"10"`
}

type RedisConfig struct {
	URL             string        `envconfig:"REDIS_URL"`
	RateLimitWindow time.Duration `envconfig:"AUTH_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMax    int           `envconfig:"AUTH_RATE_LIMIT_MAX" default:"20"`
}

type MQConfig struct {
	Backend string `envconfig:"MQ_BACKEND" default:"none"`
}

type RabbitMQConfig struct {
	URL             string `envconfig:"RABBITMQ_URL"`
	QueueDurable    bool   `envconfig:"RABBITMQ_QUEUE_DURABLE" default:"true"`
	QueueAutoDelete bool   `envconfig:"RABBITMQ_QUEUE_AUTO_DELETE" default:"false"`
	PrefetchCount   int    `envconfig:"RABBITMQ_PREFETCH_COUNT" default:"10"`
}

type PubSubConfig struct {
	ProjectID          string `envconfig:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `envconfig:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `envconfig:"PUBSUB_SUBSCRIPTION_SUFFIX" default:"-sub"`
}

type ObjectStorageConfig struct {
	Backend string `envconfig:"OBJECT_STORAGE_BACKEND" default:"none"`
}

type MinioConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"recovery-exports"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type GCSConfig struct {
	Bucket          string `envconfig:"GCS_BUCKET"`
	ProjectID       string `envconfig:"GCS_PROJECT_ID"`
	CredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverMemory, StoreDriverPostgres:
	default:
		return fmt.Errorf("unsupported store driver %q", c.StoreDriver)
	}
	switch c.MQ.Backend {
	case MQBackendNone, MQBackendRabbitMQ, MQBackendPubSub:
	default:
		return fmt.Errorf("unsupported mq backend %q", c.MQ.Backend)
	}
	switch c.ObjectStorage.Backend {
	case ObjectStorageNone, ObjectStorageMinio, ObjectStorageGCS:
	default:
		return fmt.Errorf("unsupported object storage backend %q", c.ObjectStorage.Backend)
	}
	return nil
}

// UsesPostgres reports whether the relational store is selected.
func (c Config) UsesPostgres() bool {
	return strings.EqualFold(c.StoreDriver, StoreDriverPostgres)
}
