package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"search-assistant/backend"
)

// EnvPrefix namespaces environment overrides, e.g. SEARCH_ASSISTANT_BACKEND_TIMEOUT=10s
const EnvPrefix = "SEARCH_ASSISTANT"

const defaultAddr = ":8080"

type Server struct {
	Addr string `mapstructure:"addr"`
}

type Settings struct {
	Backend backend.Config `mapstructure:"backend"`
	Server  Server         `mapstructure:"server"`
}

func (s *Settings) Validate() error {
	if err := s.Backend.Validate(); err != nil {
		return err
	}
	if s.Server.Addr == "" {
		return errors.New("server address is required")
	}
	return nil
}

// Load reads settings from defaults, the optional file at path and SEARCH_ASSISTANT_* variables,
// later sources winning.
func Load(path string) (*Settings, error) {
	v := viper.New()

	defaults := backend.DefaultConfig()
	v.SetDefault("backend.endpoint", defaults.Endpoint)
	v.SetDefault("backend.timeout", defaults.Timeout)
	v.SetDefault("backend.max_attempts", defaults.MaxAttempts)
	v.SetDefault("backend.initial_delay", defaults.InitialDelay)
	v.SetDefault("backend.max_delay", defaults.MaxDelay)
	v.SetDefault("backend.user_agent", defaults.UserAgent)
	v.SetDefault("server.addr", defaultAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return &settings, nil
}

// Flags are the command line flags understood by FromCLI, shared by every command that talks to the backend.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Load configuration from a yaml, json or toml `FILE`",
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "Backend `URL` queries are posted to",
			EnvVars: []string{"BACKEND_ENDPOINT"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout for a single backend attempt",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Total attempts per query, including the first",
		},
		&cli.DurationFlag{
			Name:  "initial-delay",
			Usage: "Wait after the first failed attempt, doubled after each further failure",
		},
		&cli.DurationFlag{
			Name:  "max-delay",
			Usage: "Upper bound for the wait between attempts (0 for none)",
		},
	}
}

// FromCLI loads settings the way Load does and then applies any flags set on the command line.
func FromCLI(ctx *cli.Context) (*Settings, error) {
	settings, err := Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("endpoint") {
		settings.Backend.Endpoint = ctx.String("endpoint")
	}
	if ctx.IsSet("timeout") {
		settings.Backend.Timeout = ctx.Duration("timeout")
	}
	if ctx.IsSet("max-attempts") {
		settings.Backend.MaxAttempts = ctx.Int("max-attempts")
	}
	if ctx.IsSet("initial-delay") {
		settings.Backend.InitialDelay = ctx.Duration("initial-delay")
	}
	if ctx.IsSet("max-delay") {
		settings.Backend.MaxDelay = ctx.Duration("max-delay")
	}
	if ctx.IsSet("addr") {
		settings.Server.Addr = ctx.String("addr")
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}
