package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	golobby "github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
	"github.com/joho/godotenv"
)

const DefaultPath = "config.yaml"

type Service string

const (
	LastFM       Service = "lastfm"
	ListenBrainz Service = "listenbrainz"
)

var ErrNoService = errors.New("no service enabled, set enable to lastfm or listenbrainz")

type Config struct {
	Enable   string         `yaml:"enable" env:"ENABLE"`
	Services ServiceOptions `yaml:"services"`
	Revolt   RevoltConfig   `yaml:"revolt"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Pushover PushoverConfig `yaml:"pushover"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServiceOptions struct {
	LastFM       LastFMConfig       `yaml:"lastfm"`
	ListenBrainz ListenBrainzConfig `yaml:"listenbrainz"`
}

type LastFMConfig struct {
	Username   string `yaml:"username" env:"SERVICES__LASTFM__USERNAME"`
	APIKey     string `yaml:"api_key" env:"SERVICES__LASTFM__API_KEY"`
	APIKeyFile string `yaml:"api_key_file,omitempty" env:"SERVICES__LASTFM__API_KEY_FILE"`
	APIURL     string `yaml:"api_url" env:"SERVICES__LASTFM__API_URL"`
	// CheckInterval is in seconds
	CheckInterval int `yaml:"check_interval" env:"SERVICES__LASTFM__CHECK_INTERVAL"`
}

type ListenBrainzConfig struct {
	Username      string `yaml:"username" env:"SERVICES__LISTENBRAINZ__USERNAME"`
	Token         string `yaml:"token,omitempty" env:"SERVICES__LISTENBRAINZ__TOKEN"`
	TokenFile     string `yaml:"token_file,omitempty" env:"SERVICES__LISTENBRAINZ__TOKEN_FILE"`
	APIURL        string `yaml:"api_url" env:"SERVICES__LISTENBRAINZ__API_URL"`
	CheckInterval int    `yaml:"check_interval" env:"SERVICES__LISTENBRAINZ__CHECK_INTERVAL"`
}

type RevoltConfig struct {
	APIURL           string       `yaml:"api_url" env:"REVOLT__API_URL"`
	SessionToken     string       `yaml:"session_token" env:"REVOLT__SESSION_TOKEN"`
	SessionTokenFile string       `yaml:"session_token_file,omitempty" env:"REVOLT__SESSION_TOKEN_FILE"`
	Status           StatusConfig `yaml:"status"`
	Revert           RevertConfig `yaml:"revert"`
}

type StatusConfig struct {
	Template string `yaml:"template" env:"REVOLT__STATUS__TEMPLATE"`
	// Idle is shown while nothing is playing. Empty clears the status.
	Idle string `yaml:"idle" env:"REVOLT__STATUS__IDLE"`
}

type RevertConfig struct {
	// MaxWait is in seconds, 0 waits as long as it takes
	MaxWait  int    `yaml:"max_wait" env:"REVOLT__REVERT__MAX_WAIT"`
	Fallback string `yaml:"fallback" env:"REVOLT__REVERT__FALLBACK"`
}

type DatabaseConfig struct {
	// Path to a sqlite database. Empty keeps everything in memory.
	Path string `yaml:"path" env:"DATABASE__PATH"`
	// SnapshotMaxAge is in hours. An unfinished run's saved status older
	// than this is not restored. 0 restores it however old it is.
	SnapshotMaxAge int `yaml:"snapshot_max_age" env:"DATABASE__SNAPSHOT_MAX_AGE"`
}

type ServerConfig struct {
	// Listen is the address for the status API, empty disables it
	Listen         string   `yaml:"listen" env:"SERVER__LISTEN"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type PushoverConfig struct {
	Recipient string `yaml:"recipient" env:"PUSHOVER__RECIPIENT"`
	Token     string `yaml:"token" env:"PUSHOVER__TOKEN"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	JSON  bool   `yaml:"json" env:"LOG_JSON"`
}

func Default() Config {
	return Config{
		Services: ServiceOptions{
			LastFM: LastFMConfig{
				APIURL:        "http://ws.audioscrobbler.com/2.0/",
				CheckInterval: 16,
			},
			ListenBrainz: ListenBrainzConfig{
				APIURL:        "https://api.listenbrainz.org",
				CheckInterval: 16,
			},
		},
		Revolt: RevoltConfig{
			APIURL: "https://api.revolt.chat",
			Status: StatusConfig{
				Template: "🎵 Listening to %NAME% by %ARTIST%",
			},
			Revert: RevertConfig{
				MaxWait:  30,
				Fallback: "keep",
			},
		},
		Database: DatabaseConfig{
			SnapshotMaxAge: 24 * 7,
		},
		Server: ServerConfig{
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// if there is one, then the environment (including a .env file).
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	c := golobby.New()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			c.AddFeeder(feeder.Yaml{Path: path})
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	c.AddFeeder(feeder.Env{})
	c.AddStruct(&cfg)
	if err := c.Feed(); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolveSecrets reads any secret given as a path to a file, such as a
// docker or systemd credential
func (c *Config) resolveSecrets() error {
	secrets := []struct {
		name  string
		value *string
		file  string
	}{
		{"revolt.session_token", &c.Revolt.SessionToken, c.Revolt.SessionTokenFile},
		{"services.lastfm.api_key", &c.Services.LastFM.APIKey, c.Services.LastFM.APIKeyFile},
		{"services.listenbrainz.token", &c.Services.ListenBrainz.Token, c.Services.ListenBrainz.TokenFile},
	}
	for _, secret := range secrets {
		if secret.file == "" {
			continue
		}
		data, err := os.ReadFile(secret.file)
		if err != nil {
			return fmt.Errorf("failed to read %s from file: %w", secret.name, err)
		}
		*secret.value = strings.TrimSpace(string(data))
	}
	return nil
}

func (c *Config) Service() Service {
	return Service(strings.ToLower(strings.TrimSpace(c.Enable)))
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Service() {
	case LastFM:
		if c.Services.LastFM.Username == "" {
			errs = append(errs, errors.New("services.lastfm.username is required"))
		}
		if c.Services.LastFM.APIKey == "" {
			errs = append(errs, errors.New("services.lastfm.api_key is required"))
		}
		if c.Services.LastFM.CheckInterval <= 0 {
			errs = append(errs, errors.New("services.lastfm.check_interval must be positive"))
		}
	case ListenBrainz:
		if c.Services.ListenBrainz.Username == "" {
			errs = append(errs, errors.New("services.listenbrainz.username is required"))
		}
		if c.Services.ListenBrainz.CheckInterval <= 0 {
			errs = append(errs, errors.New("services.listenbrainz.check_interval must be positive"))
		}
	case "":
		errs = append(errs, ErrNoService)
	default:
		errs = append(errs, fmt.Errorf("unknown service %q, expected lastfm or listenbrainz", c.Enable))
	}
	if c.Revolt.SessionToken == "" {
		errs = append(errs, errors.New("revolt.session_token is required"))
	}
	if c.Revolt.Status.Template == "" {
		errs = append(errs, errors.New("revolt.status.template must not be empty"))
	}
	if c.Revolt.Revert.MaxWait < 0 {
		errs = append(errs, errors.New("revolt.revert.max_wait must not be negative"))
	}
	if c.Database.SnapshotMaxAge < 0 {
		errs = append(errs, errors.New("database.snapshot_max_age must not be negative"))
	}
	switch c.Revolt.Revert.Fallback {
	case "keep", "clear":
	default:
		errs = append(errs, fmt.Errorf("revolt.revert.fallback must be keep or clear, got %q", c.Revolt.Revert.Fallback))
	}
	return errors.Join(errs...)
}

// CheckInterval is how often the enabled service is polled
func (c *Config) CheckInterval() time.Duration {
	seconds := c.Services.LastFM.CheckInterval
	if c.Service() == ListenBrainz {
		seconds = c.Services.ListenBrainz.CheckInterval
	}
	return time.Duration(seconds) * time.Second
}

func (c *Config) IdleStatus() *string {
	if c.Revolt.Status.Idle == "" {
		return nil
	}
	idle := c.Revolt.Status.Idle
	return &idle
}

func (c *Config) MaxRevertWait() time.Duration {
	return time.Duration(c.Revolt.Revert.MaxWait) * time.Second
}

func (c *Config) SnapshotMaxAge() time.Duration {
	return time.Duration(c.Database.SnapshotMaxAge) * time.Hour
}

// Redacted returns a copy that is safe to print
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Revolt.SessionToken = mask(c.Revolt.SessionToken)
	c.Services.LastFM.APIKey = mask(c.Services.LastFM.APIKey)
	c.Services.ListenBrainz.Token = mask(c.Services.ListenBrainz.Token)
	c.Pushover.Token = mask(c.Pushover.Token)
	return c
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Logging.Level)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" || logLevel == "warn" {
		return slog.LevelWarn
	}
	if logLevel == "info" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}
