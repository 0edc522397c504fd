package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the config and state directories.
const AppName = "lichlaunch"

// Config represents the complete lichlaunch configuration
type Config struct {
	// Accounts is the ordered roster. Viper lower-cases map keys and loses
	// their order, so the roster is read separately from the same file.
	Accounts  Roster          `mapstructure:"-"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Launch    LaunchConfig    `mapstructure:"launch"`
	Inspector InspectorConfig `mapstructure:"inspector"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PathsConfig locates the backend and frontend programs
type PathsConfig struct {
	// LichBin is the backend script started with --login
	LichBin string `mapstructure:"lich_bin"`
	// ProfanityBin is the frontend script attached with --port/--char
	ProfanityBin string `mapstructure:"profanity_bin"`
	// Interpreter runs both scripts (default: "ruby"). Empty executes the
	// scripts directly.
	Interpreter string `mapstructure:"interpreter"`
	// StateDir holds the launch lock, backend output and the launcher log.
	// Empty means $XDG_STATE_HOME/lichlaunch.
	StateDir string `mapstructure:"state_dir"`
}

// LaunchConfig controls the launch state machine
type LaunchConfig struct {
	// BasePort is handed out when no backend holds a port (default: 8000)
	BasePort int `mapstructure:"base_port"`
	// SettleDelayMs is the minimum wait between starting a backend and the
	// first attach (default: 4000)
	SettleDelayMs int `mapstructure:"settle_delay_ms"`
	// ReadyTimeoutMs bounds the readiness wait after starting a backend
	ReadyTimeoutMs int `mapstructure:"ready_timeout_ms"`
	// ReadyPollIntervalMs is how often readiness is re-checked
	ReadyPollIntervalMs int `mapstructure:"ready_poll_interval_ms"`
	// ReadyProbe also requires the port to accept a TCP connection
	ReadyProbe bool `mapstructure:"ready_probe"`
	// AttachAttempts is the total number of frontend attach attempts (default: 10)
	AttachAttempts int `mapstructure:"attach_attempts"`
	// AttachBackoffMs is the constant wait between attach attempts (default: 3000)
	AttachBackoffMs int `mapstructure:"attach_backoff_ms"`
	// Lock serializes allocation across concurrent lichlaunch invocations
	Lock bool `mapstructure:"lock"`
	// Term is set in the child environment when TERM is unset
	Term string `mapstructure:"term"`
	// Display is set in the child environment when DISPLAY is unset
	Display string `mapstructure:"display"`
}

// InspectorConfig controls process-table queries
type InspectorConfig struct {
	TimeoutMs int `mapstructure:"timeout_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is active (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// LoadError reports a config file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load config: %v", e.Err)
	}
	return fmt.Sprintf("load config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrNoConfigFile is returned when no config file was found on the search path.
var ErrNoConfigFile = errors.New("no config file found")

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Interpreter: "ruby",
		},
		Launch: LaunchConfig{
			BasePort:            8000,
			SettleDelayMs:       4000,
			ReadyTimeoutMs:      30000,
			ReadyPollIntervalMs: 500,
			ReadyProbe:          true,
			AttachAttempts:      10,
			AttachBackoffMs:     3000,
			Lock:                true,
			Term:                "screen-256color",
			Display:             ":0",
		},
		Inspector: InspectorConfig{
			TimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SettleDelay returns the settle delay as a time.Duration
func (c *LaunchConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ReadyTimeout returns the readiness timeout as a time.Duration (0 disables the wait)
func (c *LaunchConfig) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutMs) * time.Millisecond
}

// ReadyPollInterval returns the readiness poll interval as a time.Duration
func (c *LaunchConfig) ReadyPollInterval() time.Duration {
	return time.Duration(c.ReadyPollIntervalMs) * time.Millisecond
}

// AttachBackoff returns the attach backoff as a time.Duration
func (c *LaunchConfig) AttachBackoff() time.Duration {
	return time.Duration(c.AttachBackoffMs) * time.Millisecond
}

// Timeout returns the query timeout as a time.Duration
func (c *InspectorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ResolveStateDir returns the state directory, expanding a leading ~.
func (p *PathsConfig) ResolveStateDir() string {
	if p.StateDir == "" {
		return StateDir()
	}
	return expandHome(p.StateDir)
}

// Command returns the argv prefix that runs script: the interpreter (when
// set) followed by the script path.
func (p *PathsConfig) Command(script string) (string, []string) {
	script = expandHome(script)
	if p.Interpreter == "" {
		return script, nil
	}
	return p.Interpreter, []string{script}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	// Paths defaults
	v.SetDefault("paths.lich_bin", defaults.Paths.LichBin)
	v.SetDefault("paths.profanity_bin", defaults.Paths.ProfanityBin)
	v.SetDefault("paths.interpreter", defaults.Paths.Interpreter)
	v.SetDefault("paths.state_dir", defaults.Paths.StateDir)

	// Launch defaults
	v.SetDefault("launch.base_port", defaults.Launch.BasePort)
	v.SetDefault("launch.settle_delay_ms", defaults.Launch.SettleDelayMs)
	v.SetDefault("launch.ready_timeout_ms", defaults.Launch.ReadyTimeoutMs)
	v.SetDefault("launch.ready_poll_interval_ms", defaults.Launch.ReadyPollIntervalMs)
	v.SetDefault("launch.ready_probe", defaults.Launch.ReadyProbe)
	v.SetDefault("launch.attach_attempts", defaults.Launch.AttachAttempts)
	v.SetDefault("launch.attach_backoff_ms", defaults.Launch.AttachBackoffMs)
	v.SetDefault("launch.lock", defaults.Launch.Lock)
	v.SetDefault("launch.term", defaults.Launch.Term)
	v.SetDefault("launch.display", defaults.Launch.Display)

	// Inspector defaults
	v.SetDefault("inspector.timeout_ms", defaults.Inspector.TimeoutMs)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct, reads the
// roster from the config file viper used, and validates the result.
func Load() (*Config, error) {
	return load(viper.GetViper())
}

// LoadFile reads and validates one config file with a private viper
// instance. Environment overrides still apply.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	configureEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return load(v)
}

// ConfigureEnv makes LICHLAUNCH_<SECTION>_<KEY> override config keys.
func ConfigureEnv() {
	configureEnv(viper.GetViper())
}

func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("LICHLAUNCH")
	// e.g. LICHLAUNCH_LAUNCH_BASE_PORT for launch.base_port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func load(v *viper.Viper) (*Config, error) {
	path := v.ConfigFileUsed()
	if path == "" {
		return nil, &LoadError{Err: ErrNoConfigFile}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	roster, err := LoadRoster(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	cfg.Accounts = roster

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateDir returns the default state directory
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".local", "state", AppName)
}
