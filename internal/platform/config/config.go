package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the process-wide configuration, read once at startup and passed
// explicitly to each component. Nothing reads the environment after this.
type Config struct {
	Addr     string
	Security Security
	Postgres Postgres
	Redis    Redis
	S3       S3
	Kafka    Kafka
}

// Security holds the token signing parameters. Immutable after startup.
type Security struct {
	SigningKey       string
	SigningAlgorithm string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
}

type Postgres struct {
	URL string
}

// Redis configures both the refresh-token allow-list and the permission
// graph; they share one server, the graph lives under its own name.
type Redis struct {
	URL          string
	GraphName    string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type S3 struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type Kafka struct {
	Brokers    string
	AuditTopic string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr: getenv("INKWELL_ADDR", ":8080"),
		Security: Security{
			SigningKey:       getenv("SECRET_KEY", "dev-secret-key-change-in-production"),
			SigningAlgorithm: getenv("SIGN_ALGORITHM", "HS256"),
			AccessTokenTTL:   minutes("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
			RefreshTokenTTL:  minutes("REFRESH_TOKEN_EXPIRE_MINUTES", 60*24),
		},
		Postgres: Postgres{
			URL: getenv("POSTGRES_URL", postgresURLFromParts()),
		},
		Redis: Redis{
			URL:          getenv("REDIS_URL", "redis://localhost:6379/0"),
			GraphName:    getenv("IAM_GRAPH_NAME", "iam"),
			PoolSize:     intenv("REDIS_POOL_SIZE", 10),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		S3: S3{
			Bucket:    os.Getenv("S3_BUCKET"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getenv("S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		Kafka: Kafka{
			Brokers:    os.Getenv("KAFKA_BROKERS"),
			AuditTopic: getenv("KAFKA_AUDIT_TOPIC", "inkwell.audit"),
		},
	}
}

// postgresURLFromParts assembles a connection URL from the discrete POSTGRES_*
// variables when POSTGRES_URL is not set directly.
func postgresURLFromParts() string {
	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "postgres")
	password := os.Getenv("POSTGRES_PASSWORD")
	db := getenv("POSTGRES_DB", "inkwell")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, db)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intenv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func minutes(key string, fallback int) time.Duration {
	return time.Duration(intenv(key, fallback)) * time.Minute
}
