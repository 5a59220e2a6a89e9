package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Config holds all gateway configuration.
type Config struct {
	AppPort string `envconfig:"APP_PORT" default:"8080"`
	AppEnv  string `envconfig:"APP_ENV" default:"development"`

	// Upstream services
	OrderSvcURL     string `envconfig:"ORDER_SVC_URL" default:"http://order_service:8002"`
	KitchenSvcURL   string `envconfig:"KITCHEN_SVC_URL" default:"http://kitchen_service:8003"`
	MenuSvcURL      string `envconfig:"MENU_SVC_URL" default:"http://menu_service:8001"`
	InventorySvcURL string `envconfig:"INVENTORY_SVC_URL" default:"http://inventory_service:8006"`
	ReportSvcURL    string `envconfig:"REPORT_SVC_URL" default:"http://report_service:8004"`
	UserSvcURL      string `envconfig:"USER_SVC_URL" default:"http://user_service:8005"`
	CarSvcURL       string `envconfig:"CAR_SVC_URL" default:"http://car_service:8007"`

	// n8n workflow webhook, notified on order status changes
	WebhookURL string `envconfig:"N8N_WEBHOOK_URL" default:"https://liberal-relative-panther.ngrok-free.app/webhook/trigger-order-status"`

	// Outbox database
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"cafe_gateway"`
	DBURL      string `envconfig:"DB_URL"`

	// Redis (kitchen snapshot store)
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	// Kafka (cancellation event mirror)
	KafkaBroker string `envconfig:"KAFKA_BROKER" default:"localhost:9092"`
	KafkaTopic  string `envconfig:"KAFKA_TOPIC" default:"order-lifecycle"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" default:"change-this-secret-in-production"`

	// Static pages
	PublicDir string `envconfig:"PUBLIC_DIR" default:"./public"`

	// Outbound HTTP timeout toward upstreams
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
}

var instance *Config

// Load initializes and returns the singleton Config instance.
func Load() (*Config, error) {
	if instance != nil {
		return instance, nil
	}

	// .env is optional, used for local development only.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment variables: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}

	instance = cfg
	return instance, nil
}

// Get returns the singleton Config instance (must call Load first).
func Get() *Config {
	if instance == nil {
		panic("config not loaded: call config.Load() first")
	}
	return instance
}

func (c *Config) MustInitRedis() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     c.RedisHost + ":" + c.RedisPort,
		Password: c.RedisPassword,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	return client
}

func (c *Config) NewKafkaWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(c.KafkaBroker),
		Topic:    c.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
}
