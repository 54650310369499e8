package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		ErrorTopic string `yaml:"error_topic"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Pipeline Pipeline `yaml:"pipeline"`
	Model    Model    `yaml:"model"`
	Features Features `yaml:"features"`
	Market   Market   `yaml:"market_data"`
	Symbols  struct {
		List []string `yaml:"list"`
		File string   `yaml:"file"`
	} `yaml:"symbols"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"stock-history"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID         string        `yaml:"group_id" default:"stockpulse-consumer"`
			AutoOffsetReset string        `yaml:"auto_offset_reset" default:"earliest" validate:"oneof=earliest latest"`
			Workers         int           `yaml:"workers" default:"4"`
			BufferSize      int           `yaml:"buffer_size" default:"100"`
			RetryMax        int           `yaml:"retry_max" default:"3"`
			BackoffMin      time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax      time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic        string        `yaml:"dlq_topic" default:"stock-history-dlq"`
			MinBytes        int           `yaml:"min_bytes" default:"1"`
			MaxBytes        int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockpulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"stockpulse"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
	API struct {
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"60s"`
		RedisCache   bool          `yaml:"redis_cache"`
		RateCapacity float64       `yaml:"rate_capacity" default:"20"`
		RatePerSec   float64       `yaml:"rate_per_sec" default:"5"`
	} `yaml:"api"`
}

// Pipeline controls batch orchestration.
type Pipeline struct {
	Workers        int `yaml:"workers" default:"4" validate:"gte=1"`
	Horizon        int `yaml:"horizon" default:"3" validate:"gte=1"`
	EvalWindow     int `yaml:"eval_window" default:"31" validate:"gte=1"`
	HistoryDays    int `yaml:"history_days" default:"365" validate:"gte=1"`
	MinHistoryBars int `yaml:"min_history_bars" default:"252"`
}

// Model holds estimator and partition settings.
type Model struct {
	Alpha        float64 `yaml:"alpha" default:"1.0" validate:"gt=0"`
	MinRows      int     `yaml:"min_rows" default:"100" validate:"gte=1"`
	MinTrainSize int     `yaml:"min_train_size" default:"100" validate:"gte=1"`
	MinTestSize  int     `yaml:"min_test_size" default:"60" validate:"gte=1"`
	MinValSize   int     `yaml:"min_val_size" default:"30" validate:"gte=0"`
	TestFraction float64 `yaml:"test_fraction" default:"0.2" validate:"gt=0,lt=1"`
	ValFraction  float64 `yaml:"val_fraction" default:"0.1" validate:"gte=0,lt=1"`
}

// Features holds indicator periods.
type Features struct {
	Windows        []int `yaml:"windows" default:"[3,5,10,15]" validate:"min=1,dive,gte=2"`
	RSIPeriod      int   `yaml:"rsi_period" default:"14" validate:"gte=1"`
	RSIMAPeriod    int   `yaml:"rsi_ma_period" default:"10" validate:"gte=1"`
	MomentumPeriod int   `yaml:"momentum_period" default:"10" validate:"gte=1"`
	ChannelPeriod  int   `yaml:"channel_period" default:"20" validate:"gte=1"`
}

// Market selects and configures the daily bar provider.
type Market struct {
	Provider string `yaml:"provider" default:"finnhub" validate:"oneof=finnhub alpaca"`
	Finnhub  struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		Timeout time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"finnhub"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"alpaca"`
	RateCapacity float64 `yaml:"rate_capacity" default:"5"`
	RatePerSec   float64 `yaml:"rate_per_sec" default:"1"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML over them and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("FINNHUB_API_KEY"); v != "" {
		c.Market.Finnhub.APIKey = v
	}
	if v := getenv("ALPACA_API_KEY"); v != "" {
		c.Market.Alpaca.APIKey = v
	}
	if v := getenv("ALPACA_API_SECRET"); v != "" {
		c.Market.Alpaca.APISecret = v
	}
	if v := getenv("SYMBOLS"); v != "" {
		c.Symbols.List = splitList(v)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks tag constraints and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if len(c.Symbols.List) == 0 && c.Symbols.File == "" {
		return fmt.Errorf("symbols.list or symbols.file is required")
	}
	if c.Model.MinTrainSize < c.Model.MinRows {
		return fmt.Errorf("model.min_train_size (%d) must be at least model.min_rows (%d)", c.Model.MinTrainSize, c.Model.MinRows)
	}
	return nil
}

// Credentials reports whether the selected provider has what it needs to authenticate.
func (m Market) Credentials() error {
	switch m.Provider {
	case "finnhub":
		if m.Finnhub.APIKey == "" {
			return fmt.Errorf("market_data.finnhub.api_key is required")
		}
	case "alpaca":
		if m.Alpaca.APIKey == "" || m.Alpaca.APISecret == "" {
			return fmt.Errorf("market_data.alpaca api_key and api_secret are required")
		}
	}
	return nil
}
