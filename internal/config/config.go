// Package config loads application configuration from, in increasing
// precedence: a YAML config file, RETAIN_* environment variables, and
// command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "RETAIN_"

// Config holds all runtime settings.
type Config struct {
	DBPath     string `koanf:"db" validate:"required"`
	ListenAddr string `koanf:"listen" validate:"required,hostname_port"`
	ReposDir   string `koanf:"repos_dir" validate:"required"`
}

// Flags returns the flag set the config layer understands, with defaults.
// The caller owns parsing; pass the parsed set to Load.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("retain", pflag.ContinueOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("db", "retain.db", "Path to the SQLite database file")
	f.String("listen", "localhost:8080", "Address for the web UI to listen on")
	f.String("repos-dir", "repos", "Directory for local checkouts of git card sources")
	return f
}

// Load builds the configuration from the parsed flag set plus the config
// file (if any) and environment.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Passing k makes flag defaults yield to file/env values; only flags
	// set on the command line override. Dashes in flag names map to
	// underscores in config keys.
	flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	})
	if err := k.Load(flagProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
