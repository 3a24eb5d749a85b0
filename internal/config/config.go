package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override, e.g. LOLC_ADVISORY_URL.
const EnvPrefix = "LOLC_"

// Config represents the application configuration.
type Config struct {
	// Application configuration
	App AppConfig `toml:"app" envPrefix:"APP_"`

	// Game client connection
	LCU LCUConfig `toml:"lcu" envPrefix:"LCU_"`

	// Connection supervisor
	Supervisor SupervisorConfig `toml:"supervisor" envPrefix:"SUPERVISOR_"`

	// Draft timer display
	Timer TimerConfig `toml:"timer" envPrefix:"TIMER_"`

	// Advisory service
	Advisory AdvisoryConfig `toml:"advisory" envPrefix:"ADVISORY_"`

	// Role selection
	Roles RolesConfig `toml:"roles" envPrefix:"ROLES_"`

	// Presentation API
	API APIConfig `toml:"api" envPrefix:"API_"`

	// Champion reference data
	Champions ChampionsConfig `toml:"champions" envPrefix:"CHAMPIONS_"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`   // debug, info, warn, error
	DebugMode bool   `toml:"debug_mode" env:"DEBUG_MODE"` // Forces debug logging with console output
}

// LCUConfig contains game client settings.
type LCUConfig struct {
	LockfilePath      string  `toml:"lockfile_path" env:"LOCKFILE_PATH"`             // Explicit lockfile (empty = search)
	InstallDir        string  `toml:"install_dir" env:"INSTALL_DIR"`                 // Client install directory
	RequestTimeout    string  `toml:"request_timeout" env:"REQUEST_TIMEOUT"`         // Per-request timeout (e.g., "5s")
	PollInterval      string  `toml:"poll_interval" env:"POLL_INTERVAL"`             // Session poll interval (e.g., "250ms")
	RequestsPerSecond float64 `toml:"requests_per_second" env:"REQUESTS_PER_SECOND"` // Client-side rate limit
	UseEventStream    bool    `toml:"use_event_stream" env:"USE_EVENT_STREAM"`       // Subscribe over WebSocket too
}

// SupervisorConfig contains connection probe settings.
type SupervisorConfig struct {
	ProbeInterval     string   `toml:"probe_interval" env:"PROBE_INTERVAL"`
	PhasePollInterval string   `toml:"phase_poll_interval" env:"PHASE_POLL_INTERVAL"`
	ProbeTimeout      string   `toml:"probe_timeout" env:"PROBE_TIMEOUT"`
	DraftPhases       []string `toml:"draft_phases" env:"DRAFT_PHASES"` // Game phases that count as a draft
}

// TimerConfig contains the timer render rate and per-phase ceilings.
type TimerConfig struct {
	Tick                string `toml:"tick" env:"TICK"`
	BanCeiling          string `toml:"ban_ceiling" env:"BAN_CEILING"`
	PickCeiling         string `toml:"pick_ceiling" env:"PICK_CEILING"`
	PlanningCeiling     string `toml:"planning_ceiling" env:"PLANNING_CEILING"`
	FinalizationCeiling string `toml:"finalization_ceiling" env:"FINALIZATION_CEILING"`
	DefaultCeiling      string `toml:"default_ceiling" env:"DEFAULT_CEILING"`
}

// AdvisoryConfig contains advisory service settings.
type AdvisoryConfig struct {
	URL      string `toml:"url" env:"URL"` // Empty disables advice
	Debounce string `toml:"debounce" env:"DEBOUNCE"`
	Timeout  string `toml:"timeout" env:"TIMEOUT"`
	TopK     int    `toml:"top_k" env:"TOP_K"`
}

// RolesConfig contains role selection settings.
type RolesConfig struct {
	AutoAssign string `toml:"auto_assign" env:"AUTO_ASSIGN"` // none or first_available
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int      `toml:"port" env:"PORT"`
	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

// ChampionsConfig contains champion catalog settings.
type ChampionsConfig struct {
	DBPath          string `toml:"db_path" env:"DB_PATH"` // Empty = ~/.lol-companion/champions.db
	Locale          string `toml:"locale" env:"LOCALE"`
	RefreshInterval string `toml:"refresh_interval" env:"REFRESH_INTERVAL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  "info",
			DebugMode: false,
		},
		LCU: LCUConfig{
			RequestTimeout:    "5s",
			PollInterval:      "250ms",
			RequestsPerSecond: 20,
			UseEventStream:    true,
		},
		Supervisor: SupervisorConfig{
			ProbeInterval:     "2s",
			PhasePollInterval: "1s",
			ProbeTimeout:      "3s",
			DraftPhases:       []string{"ChampSelect"},
		},
		Timer: TimerConfig{
			Tick:                "50ms",
			BanCeiling:          "30s",
			PickCeiling:         "30s",
			PlanningCeiling:     "30s",
			FinalizationCeiling: "60s",
			DefaultCeiling:      "90s",
		},
		Advisory: AdvisoryConfig{
			URL:      "",
			Debounce: "300ms",
			Timeout:  "5s",
			TopK:     5,
		},
		Roles: RolesConfig{
			AutoAssign: "none",
		},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Champions: ChampionsConfig{
			Locale:          "en_US",
			RefreshInterval: "24h",
		},
	}
}

// Dir returns the configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".lol-companion")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return configDir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location and applies
// environment overrides.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from path and applies environment
// overrides. A missing file yields the defaults. Keys absent from the file
// keep their default values.
func LoadFile(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the configuration to path.
func (c *Config) SaveFile(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.App.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.App.LogLevel)
	}

	durations := []struct {
		name  string
		value string
	}{
		{"lcu.request_timeout", c.LCU.RequestTimeout},
		{"lcu.poll_interval", c.LCU.PollInterval},
		{"supervisor.probe_interval", c.Supervisor.ProbeInterval},
		{"supervisor.phase_poll_interval", c.Supervisor.PhasePollInterval},
		{"supervisor.probe_timeout", c.Supervisor.ProbeTimeout},
		{"timer.tick", c.Timer.Tick},
		{"timer.ban_ceiling", c.Timer.BanCeiling},
		{"timer.pick_ceiling", c.Timer.PickCeiling},
		{"timer.planning_ceiling", c.Timer.PlanningCeiling},
		{"timer.finalization_ceiling", c.Timer.FinalizationCeiling},
		{"timer.default_ceiling", c.Timer.DefaultCeiling},
		{"advisory.debounce", c.Advisory.Debounce},
		{"advisory.timeout", c.Advisory.Timeout},
		{"champions.refresh_interval", c.Champions.RefreshInterval},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("%s must be positive: %s", d.name, d.value)
		}
	}

	if c.LCU.RequestsPerSecond <= 0 {
		return fmt.Errorf("lcu requests per second must be positive: %v", c.LCU.RequestsPerSecond)
	}

	if len(c.Supervisor.DraftPhases) == 0 {
		return errors.New("supervisor draft phases cannot be empty")
	}

	if c.Advisory.TopK <= 0 {
		return fmt.Errorf("advisory top_k must be positive: %d", c.Advisory.TopK)
	}

	switch strings.ToLower(strings.TrimSpace(c.Roles.AutoAssign)) {
	case "", "none", "first_available":
	default:
		return fmt.Errorf("invalid roles auto_assign %q", c.Roles.AutoAssign)
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", c.API.Port)
	}

	return nil
}

// GetRequestTimeout returns the LCU request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return durationOrZero(c.LCU.RequestTimeout)
}

// GetPollInterval returns the session poll interval as a duration.
func (c *Config) GetPollInterval() time.Duration {
	return durationOrZero(c.LCU.PollInterval)
}

// GetProbeInterval returns the connectivity probe interval.
func (c *Config) GetProbeInterval() time.Duration {
	return durationOrZero(c.Supervisor.ProbeInterval)
}

// GetPhasePollInterval returns the in-draft phase probe interval.
func (c *Config) GetPhasePollInterval() time.Duration {
	return durationOrZero(c.Supervisor.PhasePollInterval)
}

// GetProbeTimeout returns the timeout for a single probe.
func (c *Config) GetProbeTimeout() time.Duration {
	return durationOrZero(c.Supervisor.ProbeTimeout)
}

// GetTick returns the timer render interval.
func (c *Config) GetTick() time.Duration {
	return durationOrZero(c.Timer.Tick)
}

// Ceilings returns the per-phase timer ceilings in the order ban, pick,
// planning, finalization, default.
func (c *Config) Ceilings() (ban, pick, planning, finalization, def time.Duration) {
	return durationOrZero(c.Timer.BanCeiling),
		durationOrZero(c.Timer.PickCeiling),
		durationOrZero(c.Timer.PlanningCeiling),
		durationOrZero(c.Timer.FinalizationCeiling),
		durationOrZero(c.Timer.DefaultCeiling)
}

// GetDebounce returns the advisory debounce period.
func (c *Config) GetDebounce() time.Duration {
	return durationOrZero(c.Advisory.Debounce)
}

// GetAdvisoryTimeout returns the advisory request timeout.
func (c *Config) GetAdvisoryTimeout() time.Duration {
	return durationOrZero(c.Advisory.Timeout)
}

// GetRefreshInterval returns the champion catalog refresh interval.
func (c *Config) GetRefreshInterval() time.Duration {
	return durationOrZero(c.Champions.RefreshInterval)
}

// ChampionDBPath returns the catalog database path, defaulting to the
// configuration directory.
func (c *Config) ChampionDBPath() (string, error) {
	if c.Champions.DBPath != "" {
		return c.Champions.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "champions.db"), nil
}

// durationOrZero parses a value already checked by Validate. Unparseable input
// yields zero so that callers fall back to their own defaults.
func durationOrZero(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
