package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds the host-side configuration. The parsing engine itself has
// no configuration; everything here feeds the CLI and HTTP adapters.
type Settings struct {
	// Listen is the HTTP listen address for the serve command.
	Listen string `yaml:"listen"`

	// Timezone is the IANA zone in which the reference instant is interpreted
	// (e.g. "Europe/Helsinki"). "Local" uses the host zone.
	Timezone string `yaml:"timezone"`

	// Language selects the failure message locale.
	Language string `yaml:"language"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Recorded by Load and reported by LogLoaded once logging is configured.
	path   string
	envErr error
}

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Listen:   DefaultListen,
		Timezone: DefaultTimezone,
		Language: DefaultLanguage,
		LogLevel: DefaultLogLevel,
	}
}

// Normalize fills in missing values with defaults so that partially-filled
// files still behave correctly.
func (s *Settings) Normalize() {
	if s.Listen == "" {
		s.Listen = DefaultListen
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	s.Language = strings.ToLower(strings.TrimSpace(s.Language))
	if !isSupportedLanguage(s.Language) {
		s.Language = DefaultLanguage
	}
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
}

// Location resolves the configured timezone.
func (s *Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", ErrTimezone, s.Timezone, err)
	}
	return loc, nil
}

// Level maps LogLevel onto a slog level.
func (s *Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%s %q: %w", ErrLogLevel, s.LogLevel, err)
	}
	return level, nil
}

// Load builds Settings from defaults, an optional YAML file, an optional .env
// file in the working directory and finally NLCEP_* environment variables.
// A missing file at path is not an error; an empty path skips the file.
// Load does not log: the logger depends on the loaded level, so callers
// report the outcome with LogLoaded after setting it up.
func Load(path string) (*Settings, error) {
	s := DefaultSettings()
	s.path = path

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// keep defaults
		case err != nil:
			return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		default:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrSettingsDecode, err)
			}
		}
	}

	s.envErr = godotenv.Load()
	s.applyEnv()
	s.Normalize()
	return s, nil
}

// LogLoaded reports at debug level where the settings came from.
func (s *Settings) LogLoaded(logger *slog.Logger) {
	if s.envErr != nil {
		logger.Debug(MsgEnvFileMissing, LogKeyComponent, CompConfig, LogKeyError, s.envErr)
	}
	logger.Debug(MsgSettingsLoaded,
		LogKeyComponent, CompConfig,
		LogKeyFile, s.path,
		LogKeyTimezone, s.Timezone,
		LogKeyLang, s.Language,
	)
}

func (s *Settings) applyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvListen, &s.Listen},
		{EnvTimezone, &s.Timezone},
		{EnvLanguage, &s.Language},
		{EnvLogLevel, &s.LogLevel},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

func isSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
