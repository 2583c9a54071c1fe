package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"flowscreen/internal/logging"
)

// Duplicate handling policies for ledger.on_duplicate.
const (
	DuplicateFail      = "fail"
	DuplicateKeepFirst = "keep_first"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Source   SourceConfig   `mapstructure:"source"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	Alerting AlertingConfig `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// LedgerConfig controls parsing and detection.
type LedgerConfig struct {
	Delimiter   string  `mapstructure:"delimiter"`
	AmountRatio float64 `mapstructure:"amount_ratio"`
	BatchSize   int     `mapstructure:"batch_size"`
	HasHeader   bool    `mapstructure:"has_header"`
	OnDuplicate string  `mapstructure:"on_duplicate"`
}

// SourceConfig tunes remote ledger retrieval.
type SourceConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// OutputConfig names the report artifacts. Empty file names disable a sink.
type OutputConfig struct {
	Dir              string `mapstructure:"dir"`
	TransactionsFile string `mapstructure:"transactions_file"`
	EntitiesFile     string `mapstructure:"entities_file"`
	XLSXFile         string `mapstructure:"xlsx_file"`
	ChartFile        string `mapstructure:"chart_file"`
	TopEntities      int    `mapstructure:"top_entities"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the run archive.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AlertingConfig defines when a run summary is announced.
type AlertingConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	MinFlagged int            `mapstructure:"min_flagged"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLOWSCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	return decode(v)
}

// Default returns the built-in configuration without consulting files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic("invalid default configuration: " + err.Error())
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "flowscreen")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("ledger.delimiter", "|")
	v.SetDefault("ledger.amount_ratio", 0.9)
	v.SetDefault("ledger.batch_size", 50)
	v.SetDefault("ledger.has_header", true)
	v.SetDefault("ledger.on_duplicate", DuplicateFail)

	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.user_agent", "flowscreen/1.0")

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.transactions_file", "suspicious_transactions.csv")
	v.SetDefault("output.entities_file", "suspicious_entities.csv")
	v.SetDefault("output.xlsx_file", "")
	v.SetDefault("output.chart_file", "")
	v.SetDefault("output.top_entities", 20)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.min_flagged", 1)
	v.SetDefault("alerting.timeout", "10s")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Ledger.Delimiter) != 1 {
		return fmt.Errorf("ledger.delimiter must be a single character, got %q", c.Ledger.Delimiter)
	}
	if c.Ledger.AmountRatio <= 0 || c.Ledger.AmountRatio > 1 {
		return fmt.Errorf("ledger.amount_ratio must be in (0, 1]")
	}
	if c.Ledger.BatchSize < 1 {
		return fmt.Errorf("ledger.batch_size must be at least 1")
	}
	switch c.Ledger.OnDuplicate {
	case DuplicateFail, DuplicateKeepFirst:
	default:
		return fmt.Errorf("ledger.on_duplicate must be %q or %q", DuplicateFail, DuplicateKeepFirst)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	if c.Output.TopEntities < 0 {
		return fmt.Errorf("output.top_entities cannot be negative")
	}
	if c.Alerting.MinFlagged < 0 {
		return fmt.Errorf("alerting.min_flagged cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}
