// Package config loads rpmfiles settings from defaults, an optional TOML
// file, RPMFILES_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/output"
	"github.com/ralt/rpmfiles/internal/patcher"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName        = "rpmfiles"
	ConfigFileName = "rpmfiles"
	ConfigFileExt  = "toml"
	EnvPrefix      = "RPMFILES"
)

// Config holds every tunable
type Config struct {
	LogLevel      string `mapstructure:"log_level"`
	Format        string `mapstructure:"format"`
	Compressor    string `mapstructure:"compressor"`
	Gzip          bool   `mapstructure:"gzip"`
	GPGKey        string `mapstructure:"gpg_key"`
	GPGPassphrase string `mapstructure:"gpg_passphrase"`
	Output        string `mapstructure:"output"`
}

// LoadOptions points Load at a config file, a config directory and flags
type LoadOptions struct {
	// ConfigFile is used exclusively when set
	ConfigFile string
	// ConfigDir overrides $XDG_CONFIG_HOME/rpmfiles
	ConfigDir string
	// Flags are bound on top of every other source; flag names use dashes
	Flags *pflag.FlagSet
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		Format:     string(output.FormatText),
		Compressor: patcher.CompressorXz.String(),
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/rpmfiles, falling back to ~/.config
func ConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// Load resolves the configuration and returns it with the path of the file
// it read, if any
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("compressor", defaults.Compressor)
	v.SetDefault("gzip", defaults.Gzip)
	v.SetDefault("gpg_key", defaults.GPGKey)
	v.SetDefault("gpg_passphrase", defaults.GPGPassphrase)
	v.SetDefault("output", defaults.Output)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	resolvedPath, err := readConfigFile(v, opts)
	if err != nil {
		return nil, "", invalid(resolvedPath, err)
	}

	if opts.Flags != nil {
		for _, key := range v.AllKeys() {
			if f := opts.Flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", invalid(f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", invalid(resolvedPath, fmt.Errorf("failed to parse config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", invalid(resolvedPath, err)
	}

	return &cfg, resolvedPath, nil
}

func readConfigFile(v *viper.Viper, opts LoadOptions) (string, error) {
	v.SetConfigType(ConfigFileExt)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return opts.ConfigFile, fmt.Errorf("failed to read config file: %w", err)
		}
		return opts.ConfigFile, nil
	}

	dir := opts.ConfigDir
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			logrus.Debugf("No user config directory: %v", err)
		}
	}

	v.SetConfigName(ConfigFileName)
	v.AddConfigPath(".")
	if dir != "" {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return v.ConfigFileUsed(), fmt.Errorf("failed to read config file: %w", err)
	}

	logrus.Debugf("Loaded configuration from %s", v.ConfigFileUsed())
	return v.ConfigFileUsed(), nil
}

// Validate checks enumerated values
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := patcher.ParseCompressor(c.Compressor); err != nil {
		return err
	}
	if c.GPGKey != "" && c.Output == "" {
		return fmt.Errorf("gpg_key requires output to be set")
	}
	return nil
}

// OutputFormat returns the parsed format
func (c *Config) OutputFormat() output.Format {
	f, _ := output.ParseFormat(c.Format)
	return f
}

// PayloadCompressor returns the parsed compressor
func (c *Config) PayloadCompressor() patcher.Compressor {
	comp, _ := patcher.ParseCompressor(c.Compressor)
	return comp
}

// Level returns the parsed log level
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func invalid(entry string, err error) error {
	return &models.Error{Type: models.ErrInvalidConfig, Entry: entry, Err: err}
}
