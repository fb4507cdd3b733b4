// Package config loads the server configuration. A Config is built once at startup,
// validated, and passed by value to every component that needs it.
package config

import (
	"bytes"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/rs/zerolog"
)

var (
	ErrConfig         apperrors.Error = apperrors.ErrInvalid.New("invalid configuration").SetExpandError(true)
	ErrUnknownOptions apperrors.Error = ErrConfig.New("unknown configuration options")
)

const (
	DefaultMaxConnections = 96
	DefaultMaxPageSize    = 1000
	DefaultCursorVersion  = 1
	DefaultMaxRetries     = 3
	DefaultListenAddress  = ":8080"
	DefaultBackingStore   = "sqlite::memory:"
)

type Config struct {
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
	Sharing SharingConfig `toml:"sharing"`
	Log     LogConfig     `toml:"log"`
}

type StoreConfig struct {
	BackingStoreURL      string   `toml:"backing_store_url" validate:"required"`
	MaxConnections       int      `toml:"max_connections" validate:"min=1"`
	MaxPageSize          int      `toml:"max_page_size" validate:"min=1"`
	CursorVersion        int      `toml:"cursor_version" validate:"eq=1"`
	MaxRetries           int      `toml:"max_retries" validate:"min=0,max=20"`
	RetryInitialInterval Duration `toml:"retry_initial_interval"`
	// SecretKey seals credential secrets at rest. Without it a random key is
	// used and secrets stored by earlier processes cannot be opened.
	SecretKey string `toml:"secret_key"`
}

type ServerConfig struct {
	ListenAddress     string  `toml:"listen_address" validate:"required"`
	HandleCORS        bool    `toml:"handle_cors"`
	CORSAllowedOrigin string  `toml:"cors_allowed_origin"`
	RateLimit         float64 `toml:"rate_limit" validate:"min=0"`
	RateBurst         int     `toml:"rate_burst" validate:"min=0"`
}

type SharingConfig struct {
	RequireAuthentication bool     `toml:"require_authentication"`
	SigningKey            string   `toml:"signing_key"`
	URLExpiration         Duration `toml:"url_expiration"`
	TokenLifetime         Duration `toml:"token_lifetime"`
}

type LogConfig struct {
	Level   string `toml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Console bool   `toml:"console"`
}

// Duration is a time.Duration read from a Go duration string.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Store: StoreConfig{
			BackingStoreURL:      DefaultBackingStore,
			MaxConnections:       DefaultMaxConnections,
			MaxPageSize:          DefaultMaxPageSize,
			CursorVersion:        DefaultCursorVersion,
			MaxRetries:           DefaultMaxRetries,
			RetryInitialInterval: Duration{50 * time.Millisecond},
		},
		Server: ServerConfig{
			ListenAddress:     DefaultListenAddress,
			CORSAllowedOrigin: "*",
		},
		Sharing: SharingConfig{
			URLExpiration: Duration{15 * time.Minute},
			TokenLifetime: Duration{90 * 24 * time.Hour},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path on top of the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, ErrConfig.MsgErr("unable to read configuration file", err)
	}
	return Parse(data)
}

// Parse decodes TOML configuration on top of the defaults. Keys that do not map
// to a known option are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	if err != nil {
		return Config{}, ErrConfig.Err(err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, ErrUnknownOptions.Msg("unknown configuration options: " + strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fe.Namespace()+" failed "+fe.Tag())
			}
			return ErrConfig.Msg("invalid configuration: " + strings.Join(fields, "; "))
		}
		return ErrConfig.Err(err)
	}
	if c.Sharing.RequireAuthentication && c.Sharing.TokenLifetime.Duration <= 0 {
		return ErrConfig.Msg("invalid configuration: sharing.token_lifetime must be positive")
	}
	return nil
}

// LogLevel returns the configured zerolog level, info when unset.
func (c LogConfig) LogLevel() zerolog.Level {
	if c.Level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
