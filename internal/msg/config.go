package msg

import (
	"os"
	"strings"
)

// Config holds Kafka configuration. No brokers means streaming is off.
type Config struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// TopicOrderLifecycle carries one LifecycleEventMsg per order state change.
const TopicOrderLifecycle = "fix.orders.lifecycle"

// LoadConfig loads Kafka configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Brokers:  ParseBrokers(getEnvAsString("KAFKA_BROKERS", "")),
		ClientID: getEnvAsString("KAFKA_CLIENT_ID", "fix-order-client"),
		Topic:    getEnvAsString("KAFKA_LIFECYCLE_TOPIC", TopicOrderLifecycle),
	}
}

// Enabled reports whether any broker is configured.
func (c *Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
