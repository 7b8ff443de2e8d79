package auth

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. AUTH_HTTP_ADDR
const EnvPrefix = "AUTH"

// DefaultBodyLimit matches the 50MB JSON limit the front-ends rely on
const DefaultBodyLimit = 50 * 1024 * 1024

// Config is the process configuration
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Token    TokenSettings  `mapstructure:"token"`
	Register RegisterConfig `mapstructure:"register"`
	Log      LogConfig      `mapstructure:"log"`
	Debug    bool           `mapstructure:"debug"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	BodyLimit      int      `mapstructure:"body_limit"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// TokenSettings is the file/env form of TokenConfig
type TokenSettings struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	Issuer        string        `mapstructure:"issuer"`
}

type RegisterConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UseHashid bool          `mapstructure:"use_hashid"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// DefaultAllowedOrigins are the production front-ends
var DefaultAllowedOrigins = []string{
	"https://trungtamdaotaouav.vn",
	"https://www.trungtamdaotaouav.vn",
}

var configDefaults = map[string]any{
	"http.addr":                  ":5000",
	"http.body_limit":            DefaultBodyLimit,
	"http.allowed_origins":       DefaultAllowedOrigins,
	"database.dsn":               "root:@tcp(127.0.0.1:3306)/uav_training?charset=utf8mb4",
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 5 * time.Minute,
	"database.query_timeout":     5 * time.Second,
	"token.access_secret":        "",
	"token.refresh_secret":       "",
	"token.access_ttl":           time.Hour,
	"token.refresh_ttl":          7 * 24 * time.Hour,
	"token.issuer":               "uav-training",
	"register.timeout":           DefaultRegisterTimeout,
	"register.use_hashid":        false,
	"log.development":            false,
	"debug":                      false,
}

// LoadConfig reads an optional YAML file at path, a .env file when present,
// and AUTH_ prefixed environment variables, in increasing precedence.
// JWT_SECRET and JWT_REFRESH_SECRET are accepted for the token secrets.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load .env file")
	}

	v := viper.New()
	for key, val := range configDefaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("token.access_secret", EnvPrefix+"_TOKEN_ACCESS_SECRET", "JWT_SECRET")
	_ = v.BindEnv("token.refresh_secret", EnvPrefix+"_TOKEN_REFRESH_SECRET", "JWT_REFRESH_SECRET")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Database),
		validation.Field(&c.Token),
		validation.Field(&c.Register),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid configuration")
	}
	return nil
}

func (h HTTPConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Addr, validation.Required),
		validation.Field(&h.BodyLimit, validation.Min(1)),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.DSN, validation.Required),
		validation.Field(&d.QueryTimeout, validation.Min(time.Duration(0))),
	)
}

func (t TokenSettings) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.AccessSecret, validation.Required),
		validation.Field(&t.RefreshSecret,
			validation.Required,
			validation.NotIn(t.AccessSecret).Error("must differ from the access secret"),
		),
		validation.Field(&t.AccessTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&t.RefreshTTL,
			validation.Required,
			validation.By(func(any) error {
				if t.RefreshTTL <= t.AccessTTL {
					return stderrors.New("must be longer than the access ttl")
				}
				return nil
			}),
		),
	)
}

func (r RegisterConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// TokenConfig builds the token service configuration
func (c *Config) TokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  c.Token.AccessSecret,
		RefreshSecret: c.Token.RefreshSecret,
		AccessTTL:     c.Token.AccessTTL,
		RefreshTTL:    c.Token.RefreshTTL,
		Issuer:        c.Token.Issuer,
	}
}

// Masked returns a copy safe to print
func (c Config) Masked() Config {
	c.Token.AccessSecret = mask(c.Token.AccessSecret)
	c.Token.RefreshSecret = mask(c.Token.RefreshSecret)
	c.Database.DSN = maskDSN(c.Database.DSN)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return creds[:colon+1] + "********" + dsn[at:]
	}
	return dsn
}
