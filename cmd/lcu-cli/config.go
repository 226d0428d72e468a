package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configName = "lcu-cli"

// settings is the merged view of flags, LCU_* environment variables and the config file
type settings struct {
	Port     string        `mapstructure:"port" validate:"omitempty,numeric"`
	Token    string        `mapstructure:"token"`
	Cert     string        `mapstructure:"cert"`
	Lockfile string        `mapstructure:"lockfile"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Verbose  bool          `mapstructure:"verbose"`
}

// loadSettings layers flags over LCU_* env vars over lcu-cli.yaml.
// Example: LCU_PORT=51234 LCU_TOKEN=abc lcu-cli get /riotclient/region-locale
func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		v.SetConfigFile(found)
	}

	v.SetEnvPrefix("LCU")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return settings{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return settings{}, err
	}
	return s, nil
}

func (s settings) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("invalid settings: %w", err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q check", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// findConfigFile looks for lcu-cli.yaml or .yml with an explicit extension so
// the lcu-cli binary in the working directory is never picked up.
func findConfigFile() string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".lcu-cli"))
	}
	return findConfigFileInPaths(paths)
}

func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
