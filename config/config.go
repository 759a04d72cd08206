package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Binance BinanceConfig `mapstructure:"binance"`
	Relay   RelayConfig   `mapstructure:"relay"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Log     LogConfig     `mapstructure:"log"`
}

type BinanceConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`

	Symbols []string `mapstructure:"symbols"`
	// SSM parameter holding a comma-separated symbol list; read only in prod.
	SymbolsParameter string `mapstructure:"symbols_parameter"`
}

type RESTConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	VerifySymbols bool          `mapstructure:"verify_symbols"`
}

type WSConfig struct {
	URL              string        `mapstructure:"url"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type RelayConfig struct {
	HistorySize   int           `mapstructure:"history_size"`
	StatsInterval time.Duration `mapstructure:"stats_interval"`
	PublishBuffer int           `mapstructure:"publish_buffer"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address, e.g. ":3001".
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig enables the Redis snapshot publisher when Addr is set.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// KafkaConfig enables the Kafka snapshot publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"

	// Rotation limits for OutputFile.
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("binance.symbols", []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT", "ADAUSDT", "DOGEUSDT"})
	v.SetDefault("binance.symbols_parameter", "")
	v.SetDefault("binance.rest.base_url", "https://api.binance.com")
	v.SetDefault("binance.rest.timeout", 10*time.Second)
	v.SetDefault("binance.rest.verify_symbols", false)
	v.SetDefault("binance.ws.url", "wss://stream.binance.com:9443/ws")
	v.SetDefault("binance.ws.reconnect_delay", 5*time.Second)
	v.SetDefault("binance.ws.handshake_timeout", 10*time.Second)

	v.SetDefault("relay.history_size", 100)
	v.SetDefault("relay.stats_interval", 30*time.Second)
	v.SetDefault("relay.publish_buffer", 1024)

	v.SetDefault("http.host", "")
	v.SetDefault("http.port", 3001)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "price:")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "price_snapshots")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)
}

// Load loads application configuration using Viper.
// It reads config.yaml when present, then overrides with environment variables.
func Load() *Config {
	cfg, err := LoadFrom(configPaths()...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// LoadFrom reads config.yaml from the first of paths that contains one. A missing
// file is not an error; defaults and environment variables still apply.
func LoadFrom(paths ...string) (*Config, error) {
	// .env is optional; real environment variables take precedence over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., BINANCE_WS_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// PORT is honoured for platforms that inject it
	if port := os.Getenv("PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.HTTP.Port = p
	}

	cfg.Binance.Symbols = splitSymbols(cfg.Binance.Symbols)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration the relay cannot run with.
func (c *Config) Validate() error {
	if len(c.Binance.Symbols) == 0 {
		return errors.New("binance.symbols must not be empty")
	}
	if c.Binance.WS.URL == "" {
		return errors.New("binance.ws.url must be set")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	return nil
}

// splitSymbols accepts both list values and a single comma-separated entry,
// which is what BINANCE_SYMBOLS=btcusdt,ethusdt produces.
func splitSymbols(in []string) []string {
	var out []string
	for _, item := range in {
		for _, s := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

func configPaths() []string {
	paths := []string{".", "./config"}
	if ex, err := os.Executable(); err == nil && !strings.Contains(ex, "go-build") {
		paths = append(paths, filepath.Join(filepath.Dir(ex), "../config"))
	}
	return paths
}
