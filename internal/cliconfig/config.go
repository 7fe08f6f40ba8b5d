// Package cliconfig loads goverify CLI settings from flags, environment
// variables, and an optional config file.
package cliconfig

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	goVerify "github.com/MrEthical07/goVerify"
	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/keys"
)

// EnvPrefix namespaces environment variables, e.g. GOVERIFY_ISSUER.
const EnvPrefix = "GOVERIFY"

// Config holds the verify command settings.
type Config struct {
	KeyFile string `mapstructure:"key" validate:"required_without=Secret"`
	// Secret is an HMAC secret given inline, usually through GOVERIFY_SECRET.
	Secret string `mapstructure:"secret" secret:"true"`

	Algorithms        []string      `mapstructure:"alg" default:"[\"RS256\"]" validate:"required,min=1,dive,required"`
	Issuer            string        `mapstructure:"issuer"`
	Audience          []string      `mapstructure:"audience" validate:"dive,required"`
	ClockSkew         time.Duration `mapstructure:"skew" default:"30s" validate:"gte=0"`
	RequireExpiration bool          `mapstructure:"require_exp" default:"true"`
	RequireIssuedAt   bool          `mapstructure:"require_iat"`
	RequiredClaims    []string      `mapstructure:"require_claim" validate:"dive,required"`

	LogLevel  string `mapstructure:"log_level" default:"WARN" validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFormat string `mapstructure:"log_format" default:"text" validate:"oneof=text json"`
}

// Load fills a Config from v. Struct defaults sit below every other source,
// including unchanged flag defaults bound into v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Config{}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("set struct defaults: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	rv := reflect.ValueOf(cfg)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		key := rt.Field(i).Tag.Get("mapstructure")
		v.SetDefault(key, rv.Field(i).Interface())
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %q: %w", key, err)
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and that every algorithm name is known.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	for _, a := range cfg.Algorithms {
		if _, ok := algorithm.Resolve(algorithm.ID(a)); !ok {
			return fmt.Errorf("unknown algorithm %q", a)
		}
	}
	return nil
}

// Policy converts the settings into a verification policy.
func (c *Config) Policy() goVerify.Policy {
	algs := make([]algorithm.ID, 0, len(c.Algorithms))
	for _, a := range c.Algorithms {
		algs = append(algs, algorithm.ID(a))
	}
	return goVerify.Policy{
		AllowedAlgorithms: algs,
		ExpectedIssuer:    c.Issuer,
		ExpectedAudience:  c.Audience,
		ClockSkew:         c.ClockSkew,
		RequireExpiration: c.RequireExpiration,
		RequireIssuedAt:   c.RequireIssuedAt,
		RequiredClaims:    c.RequiredClaims,
	}
}

var ErrUnrecognizedKeyFile = errors.New("key file is neither PEM, JWK, nor JWK Set")

// KeySet loads the configured key. A file may hold a PEM public key or
// certificate, a single JWK, or a JWK Set.
func (c *Config) KeySet() (*keys.Set, error) {
	if c.KeyFile == "" {
		m, err := keys.HMAC([]byte(c.Secret))
		if err != nil {
			return nil, err
		}
		return keys.NewSet(m)
	}

	data, err := os.ReadFile(c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParseKeys(data)
}

// ParseKeys detects the key encoding of data.
func ParseKeys(data []byte) (*keys.Set, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("-----BEGIN")):
		m, err := keys.FromPEM(trimmed)
		if err != nil {
			return nil, err
		}
		return keys.NewSet(m)
	case bytes.HasPrefix(trimmed, []byte("{")):
		if bytes.Contains(trimmed, []byte(`"keys"`)) {
			return keys.SetFromJWKS(trimmed)
		}
		m, err := keys.FromJWK(trimmed)
		if err != nil {
			return nil, err
		}
		return keys.NewSet(m)
	default:
		return nil, ErrUnrecognizedKeyFile
	}
}

// Logger builds the slog logger the CLI writes diagnostics to.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// String renders the config with secret fields redacted.
func (c *Config) String() string {
	v := reflect.ValueOf(*c)
	t := v.Type()
	var sb strings.Builder
	sb.WriteString("Config{")
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := fmt.Sprintf("%v", v.Field(i).Interface())
		if field.Tag.Get("secret") == "true" && value != "" {
			value = "***REDACTED***"
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.Name + ": " + value)
	}
	sb.WriteString("}")
	return sb.String()
}
