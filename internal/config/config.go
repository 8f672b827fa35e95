package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"taxcsv/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Logging logging.Config `mapstructure:"logging"`
	Orai    OraiConfig     `mapstructure:"orai"`
	Sol     SolConfig      `mapstructure:"sol"`
	Tokens  TokensConfig   `mapstructure:"tokens"`
	Report  ReportConfig   `mapstructure:"report"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// OraiConfig covers Oraichain LCD access.
type OraiConfig struct {
	LCDURL            string        `mapstructure:"lcd_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	PageLimit         int           `mapstructure:"page_limit"`
	MaxTxs            int           `mapstructure:"max_txs"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// SolConfig covers Solana JSON-RPC access.
type SolConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	SignatureLimit    int           `mapstructure:"signature_limit"`
	MaxTxs            int           `mapstructure:"max_txs"`
}

// TokensConfig locates the token metadata registry.
type TokensConfig struct {
	Path           string        `mapstructure:"path"`
	ListURL        string        `mapstructure:"list_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ReportConfig sets report output behaviour.
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TAXCSV")
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
	v.SetDefault("app.name", "taxcsv")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("orai.lcd_url", "https://lcd.orai.io")
	v.SetDefault("orai.request_timeout", "15s")
	v.SetDefault("orai.requests_per_second", 4.0)
	v.SetDefault("orai.page_limit", 100)
	v.SetDefault("orai.max_txs", 20000)
	v.SetDefault("orai.user_agent", "taxcsv/1.0")

	v.SetDefault("sol.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("sol.request_timeout", "30s")
	v.SetDefault("sol.requests_per_second", 4.0)
	v.SetDefault("sol.signature_limit", 1000)
	v.SetDefault("sol.max_txs", 5000)

	v.SetDefault("tokens.path", "tokens/oraidex.json")
	v.SetDefault("tokens.list_url", "https://oraicommon.oraidex.io/api/v1/chains?dex=oraidex")
	v.SetDefault("tokens.request_timeout", "15s")

	v.SetDefault("report.dir", "_reports")
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
	if c.Orai.LCDURL == "" {
		return fmt.Errorf("orai.lcd_url is required")
	}
	if c.Orai.PageLimit <= 0 {
		return fmt.Errorf("orai.page_limit must be greater than zero")
	}
	if c.Orai.MaxTxs <= 0 {
		return fmt.Errorf("orai.max_txs must be greater than zero")
	}
	if c.Sol.RPCURL == "" {
		return fmt.Errorf("sol.rpc_url is required")
	}
	if c.Sol.SignatureLimit <= 0 || c.Sol.SignatureLimit > 1000 {
		return fmt.Errorf("sol.signature_limit must be in (0, 1000]")
	}
	if c.Tokens.Path == "" {
		return fmt.Errorf("tokens.path is required")
	}
	if c.Report.Dir == "" {
		return fmt.Errorf("report.dir is required")
	}
	return nil
}
