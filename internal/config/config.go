package config

import (
	"os"
	"time"
)

// Config carries every externally tunable setting. Service URLs and
// timeouts are passed into constructors explicitly; nothing reads the
// environment after Load.
type Config struct {
	HTTPAddr           string
	MySQLDSN           string
	RedisAddr          string
	StockServiceURL    string
	DeliveryServiceURL string
	ClientTimeout      time.Duration
	RetryInterval      time.Duration
	KafkaBrokers       string
	KafkaTopic         string
}

func Load() Config {
	return Config{
		HTTPAddr:           envOr("ORDER_HTTP_ADDR", ":8080"),
		MySQLDSN:           envOr("MYSQL_DSN", "root:root@tcp(localhost:3306)/orderapi?parseTime=true"),
		RedisAddr:          envOr("REDIS_ADDR", "localhost:6379"),
		StockServiceURL:    envOr("STOCK_SERVICE_URL", "http://localhost:8081/api"),
		DeliveryServiceURL: envOr("DELIVERY_SERVICE_URL", "http://localhost:8082/api/delivery"),
		ClientTimeout:      durationOr("CLIENT_TIMEOUT", 5*time.Second),
		RetryInterval:      durationOr("RETRY_INTERVAL", 30*time.Second),
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:         envOr("KAFKA_TOPIC", "order-events"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
