package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Scenario names accepted in PT_SCENARIO.
const (
	ScenarioOrder      = "ORDER"
	ScenarioOrders     = "ORDERS"
	ScenarioRFQQuote   = "RFQ_QUOTE"
	ScenarioRFQListen  = "RFQ_LISTEN"
	defaultServiceName = "fixclient"
)

// Error reports required settings that were not provided.
type Error struct {
	Missing []string
}

// Error lists the missing variables.
func (e *Error) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

// Trading holds the order parameters shared by every scenario.
type Trading struct {
	Symbol    string
	Price     string
	Quantity  string
	Side      string
	OrderType string
	RFQTopics []string
}

// Config holds configuration for the FIX client and its sidecars.
type Config struct {
	ServiceName string
	Env         string

	// Counterparty endpoint
	Server       string
	Port         int
	PubKeyFile   string
	PemFile      string
	APIKey       string
	APIURI       string
	TargetCompID string
	InsecureTLS  bool
	ReadTimeout  time.Duration

	Scenario     string
	PublishEpoch int
	ListenEpoch  int
	CancelOrder  bool
	OrderCount   int

	HeartbeatEnabled bool
	HeartbeatSecs    int

	LogonEpochs    int
	LogonBackoff   time.Duration
	ConfirmEpochs  int
	ConfirmBackoff time.Duration
	CancelEpochs   int
	CancelBackoff  time.Duration

	Trading Trading

	// Log level: debug, info, warn, error
	LogLevel string
	LogFile  string

	// Health and metrics server ports; 0 disables the server
	HTTPPort int
	GRPCPort int

	// Lifecycle journal (sqlite); empty disables journaling
	JournalPath string
}

// EnvFile maps a -env flag value to the dotenv file it loads.
func EnvFile(env string) (string, error) {
	switch env {
	case "", "development", "dev":
		return ".env.dev", nil
	case "test":
		return ".env.test", nil
	case "production", "prod":
		return ".env.prod", nil
	}
	return "", fmt.Errorf("unknown environment %q", env)
}

// Load reads the dotenv file for env and then the process environment. A
// missing dotenv file is not an error; variables already set take precedence.
func Load(env string) (*Config, error) {
	file, err := EnvFile(env)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", file, err)
	}
	cfg := FromEnv()
	cfg.Env = env
	return cfg, nil
}

// FromEnv loads configuration from environment variables with defaults.
func FromEnv() *Config {
	return &Config{
		ServiceName:  getEnvAsString("SERVICE_NAME", defaultServiceName),
		Server:       getEnvAsString("PT_SERVER", ""),
		Port:         getEnvAsInt("PT_PORT", 2021),
		PubKeyFile:   getEnvAsString("PT_PUBKEY_FILE", ""),
		PemFile:      getEnvAsString("PT_PEM_FILE", ""),
		APIKey:       getEnvAsString("PT_API_KEY", ""),
		APIURI:       getEnvAsString("API_URI", ""),
		TargetCompID: getEnvAsString("PT_TARGET_COMP_ID", "PT-OE"),
		InsecureTLS:  getEnvAsBool("PT_INSECURE_TLS", true),
		ReadTimeout:  getEnvAsDuration("PT_READ_TIMEOUT", 5*time.Second),

		Scenario:     strings.ToUpper(getEnvAsString("PT_SCENARIO", "")),
		PublishEpoch: getEnvAsInt("PT_PUBLISH_EPOCH", 0),
		ListenEpoch:  getEnvAsInt("PT_LISTEN_EPOCH", 0),
		CancelOrder:  getEnvAsBool("PT_CANCEL_ORDER", true),
		OrderCount:   getEnvAsInt("PT_ORDER_COUNT", 1),

		HeartbeatEnabled: getEnvAsBool("PT_HEARTBEAT_ENABLED", false),
		HeartbeatSecs:    getEnvAsInt("PT_HEARTBEAT_INTERVAL", 30),

		LogonEpochs:    getEnvAsInt("PT_LOGON_EPOCH", 30),
		LogonBackoff:   getEnvAsDuration("PT_LOGON_BACKOFF", time.Second),
		ConfirmEpochs:  getEnvAsInt("PT_CONFIRM_EPOCH", 10),
		ConfirmBackoff: getEnvAsDuration("PT_CONFIRM_BACKOFF", 5*time.Second),
		CancelEpochs:   getEnvAsInt("PT_CANCEL_EPOCH", 10),
		CancelBackoff:  getEnvAsDuration("PT_CANCEL_BACKOFF", 5*time.Second),

		Trading: Trading{
			Symbol:    getEnvAsString("PT_SYMBOL", "SOL-USD"),
			Price:     getEnvAsString("PT_PRICE", "388"),
			Quantity:  getEnvAsString("PT_QUANTITY", "2"),
			Side:      getEnvAsString("PT_SIDE", "sell"),
			OrderType: getEnvAsString("PT_ORDER_TYPE", "limit"),
			RFQTopics: getEnvAsList("PT_RFQ_SYMBOLS", []string{"ETH-USD", "SOL-USD", "DOGE-USD"}),
		},

		LogLevel:    getEnvAsString("LOG_LEVEL", "info"),
		LogFile:     getEnvAsString("LOG_FILE", "app.log"),
		HTTPPort:    getEnvAsInt("PORT_HTTP", 8080),
		GRPCPort:    getEnvAsInt("PORT_GRPC", 0),
		JournalPath: getEnvAsString("JOURNAL_PATH", ""),
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Server == "" {
		missing = append(missing, "PT_SERVER")
	}
	if c.APIKey == "" {
		missing = append(missing, "PT_API_KEY")
	}
	if c.PemFile == "" {
		missing = append(missing, "PT_PEM_FILE")
	}
	if c.Scenario == "" {
		missing = append(missing, "PT_SCENARIO")
	}
	switch c.Scenario {
	case ScenarioRFQQuote:
		if c.PublishEpoch <= 0 {
			missing = append(missing, "PT_PUBLISH_EPOCH")
		}
	case ScenarioRFQListen:
		if c.ListenEpoch <= 0 {
			missing = append(missing, "PT_LISTEN_EPOCH")
		}
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}

// ServerAddr returns the counterparty host:port.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}

// GRPCAddr returns the gRPC server address
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// HTTPAddr returns the HTTP server address
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("5s") or bare seconds ("5").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
