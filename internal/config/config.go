package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/spf13/viper"
)

type HTTP struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateWindow     time.Duration `mapstructure:"rate_window"`
	CacheMaxAge    int           `mapstructure:"cache_max_age"`
	DocsURL        string        `mapstructure:"docs_url"`
}

type Database struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type Auth struct {
	APIKey      string `mapstructure:"api_key"`
	AdminSecret string `mapstructure:"admin_secret"`
}

type Charts struct {
	SigningSecret   string        `mapstructure:"signing_secret"`
	BaseURL         string        `mapstructure:"base_url"`
	RendererURL     string        `mapstructure:"renderer_url"`
	RendererTimeout time.Duration `mapstructure:"renderer_timeout"`
}

type Premiums struct {
	CurrentYear int `mapstructure:"current_year"`
}

type ETL struct {
	DatasetURL string `mapstructure:"dataset_url"`
	WorkDir    string `mapstructure:"work_dir"`
}

type Config struct {
	HTTP     HTTP          `mapstructure:"http"`
	Database Database      `mapstructure:"database"`
	Auth     Auth          `mapstructure:"auth"`
	Charts   Charts        `mapstructure:"charts"`
	Premiums Premiums      `mapstructure:"premiums"`
	ETL      ETL           `mapstructure:"etl"`
	Log      logger.Config `mapstructure:"log"`
}

// env names kept from the deployed functions so existing secrets keep working
var envAliases = map[string]string{
	constants.ViperAPIKey:           "API_KEY",
	constants.ViperSigningSecretKey: "CHART_SIGNING_SECRET",
	constants.ViperChartsBaseURLKey: "FUNCTIONS_URL",
	constants.ViperDatabaseDSNKey:   "DATABASE_URL",
	constants.ViperAdminSecretKey:   "ADMIN_JWT_SECRET",
	constants.ViperHTTPAddrKey:      "HTTP_ADDR",
	constants.ViperLogLevelKey:      "LOG_LEVEL",
}

func setDefaults() {
	viper.SetDefault(constants.ViperHTTPAddrKey, ":8080")
	viper.SetDefault(constants.ViperAllowedOriginsKey, []string{
		"https://chat.openai.com",
		"https://chatgpt.com",
		"http://localhost:3000",
		"http://localhost:3001",
	})
	viper.SetDefault(constants.ViperRateLimitKey, 1000)
	viper.SetDefault(constants.ViperRateWindowKey, time.Hour)
	viper.SetDefault(constants.ViperCacheMaxAgeKey, 3600)
	viper.SetDefault(constants.ViperDocsURLKey, "")
	viper.SetDefault(constants.ViperDatabaseDSNKey, "")
	viper.SetDefault(constants.ViperDatabaseMaxConns, 10)
	viper.SetDefault(constants.ViperAPIKey, "")
	viper.SetDefault(constants.ViperAdminSecretKey, "")
	viper.SetDefault(constants.ViperSigningSecretKey, "")
	viper.SetDefault(constants.ViperChartsBaseURLKey, "https://krankenkassen.ragit.io")
	viper.SetDefault(constants.ViperRendererURLKey, "https://quickchart.io")
	viper.SetDefault(constants.ViperRendererTimeoutKey, 10*time.Second)
	viper.SetDefault(constants.ViperCurrentYearKey, 2026)
	viper.SetDefault(constants.ViperDatasetURLKey, "https://opendata.swiss/de/dataset/health-insurance-premiums")
	viper.SetDefault(constants.ViperETLWorkDirKey, "data")
	viper.SetDefault(constants.ViperLogLevelKey, "info")
	viper.SetDefault(constants.ViperLogFormatKey, "json")
	viper.SetDefault(constants.ViperLogOutputKey, "stderr")
	viper.SetDefault(constants.ViperLogDevelopmentKey, false)
}

// Load reads defaults, an optional config file and the environment into the global
// viper instance and returns the typed view of it.
func Load(path string) (*Config, error) {
	setDefaults()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("viper.ReadInConfig: %w", err)
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, env := range envAliases {
		if err := viper.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("viper.BindEnv %s: %w", key, err)
		}
	}

	cfg := new(Config)
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal: %w", err)
	}

	return cfg, nil
}

var (
	ErrMissingSigningSecret = errors.New("chart signing secret is not configured (CHART_SIGNING_SECRET)")
	ErrMissingAPIKey        = errors.New("api key is not configured (API_KEY)")
	ErrMissingDSN           = errors.New("database dsn is not configured (DATABASE_URL)")
)

// ValidateServer checks what the HTTP API cannot start without.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Charts.SigningSecret == "" {
		errs = append(errs, ErrMissingSigningSecret)
	}
	if c.Auth.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.Database.DSN == "" {
		errs = append(errs, ErrMissingDSN)
	}
	return errors.Join(errs...)
}

// ValidateTools checks what the MCP server cannot start without. The API key guards
// the HTTP surface only.
func (c *Config) ValidateTools() error {
	var errs []error
	if c.Charts.SigningSecret == "" {
		errs = append(errs, ErrMissingSigningSecret)
	}
	if c.Database.DSN == "" {
		errs = append(errs, ErrMissingDSN)
	}
	return errors.Join(errs...)
}
