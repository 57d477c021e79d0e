// internal/config/config.go
//
// Configuration for the hotspot server.
// Responsibilities:
//   - Defaults suitable for local development.
//   - Optional config.yaml override (./, ./configs).
//   - Environment overrides: HOTSPOT_SERVER_PORT → server.port, etc.
//   - Validation with all problems reported at once.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/robalobadob/hotspot/internal/game"
	"github.com/robalobadob/hotspot/internal/geo"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Daily    DailyConfig    `mapstructure:"daily"`
	Game     GameConfig     `mapstructure:"game"`
	Places   PlacesConfig   `mapstructure:"places"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ClientOrigin string `mapstructure:"client_origin"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenTTLHrs int    `mapstructure:"token_ttl_hours"`
	CookieName  string `mapstructure:"cookie_name"`
}

type DailyConfig struct {
	Salt string `mapstructure:"salt"`
}

type GameConfig struct {
	// TargetLat/TargetLng is the fixed classic-mode target.
	TargetLat       float64 `mapstructure:"target_lat"`
	TargetLng       float64 `mapstructure:"target_lng"`
	RevealRadiusM   float64 `mapstructure:"reveal_radius_m"`
	HotRadiusM      float64 `mapstructure:"hot_radius_m"`
	SameToleranceM  float64 `mapstructure:"same_tolerance_m"`
	ScoreMaxErrorM  float64 `mapstructure:"score_max_error_m"`
	DebounceMs      int     `mapstructure:"debounce_ms"`
	DebounceRadiusM float64 `mapstructure:"debounce_radius_m"`
	InitialZoom     int     `mapstructure:"initial_zoom"`
	HintResolution  int     `mapstructure:"hint_resolution"`
	RoamJitterM     float64 `mapstructure:"roam_jitter_m"`
}

type PlacesConfig struct {
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Target returns the fixed classic-mode target.
func (g GameConfig) Target() geo.Point {
	return geo.Point{Lat: g.TargetLat, Lng: g.TargetLng}
}

// Rules converts the game section into engine rules.
func (g GameConfig) Rules() game.Rules {
	return game.Rules{
		RevealRadiusM:   g.RevealRadiusM,
		HotRadiusM:      g.HotRadiusM,
		SameToleranceM:  g.SameToleranceM,
		ScoreMaxErrorM:  g.ScoreMaxErrorM,
		DebounceWindow:  time.Duration(g.DebounceMs) * time.Millisecond,
		DebounceRadiusM: g.DebounceRadiusM,
	}
}

// TokenTTL returns the JWT lifetime as a duration.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHrs) * time.Hour
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	defaults := game.DefaultRules()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.client_origin", "http://localhost:5173")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.path", "./data/hotspot.db")
	v.SetDefault("database.migrations_dir", "sql")
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.token_ttl_hours", 24*7)
	v.SetDefault("auth.cookie_name", "hotspot_token")
	v.SetDefault("daily.salt", "hotspot-daily-v1")
	v.SetDefault("game.target_lat", 32.794)
	v.SetDefault("game.target_lng", 34.989)
	v.SetDefault("game.reveal_radius_m", defaults.RevealRadiusM)
	v.SetDefault("game.hot_radius_m", defaults.HotRadiusM)
	v.SetDefault("game.same_tolerance_m", defaults.SameToleranceM)
	v.SetDefault("game.score_max_error_m", defaults.ScoreMaxErrorM)
	v.SetDefault("game.debounce_ms", int(defaults.DebounceWindow/time.Millisecond))
	v.SetDefault("game.debounce_radius_m", defaults.DebounceRadiusM)
	v.SetDefault("game.initial_zoom", game.DefaultZoom)
	v.SetDefault("game.hint_resolution", game.DefaultHintResolution)
	v.SetDefault("game.roam_jitter_m", 25_000)
	v.SetDefault("places.file", "")
	v.SetDefault("log.level", "info")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: HOTSPOT_SERVER_PORT → server.port
	v.SetEnvPrefix("HOTSPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.MigrationsDir == "" {
		errs = append(errs, "database.migrations_dir is required")
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required")
	}
	if c.Auth.TokenTTLHrs <= 0 {
		errs = append(errs, "auth.token_ttl_hours must be positive")
	}
	if c.Game.TargetLat < -90 || c.Game.TargetLat > 90 {
		errs = append(errs, fmt.Sprintf("game.target_lat must be -90..90, got %v", c.Game.TargetLat))
	}
	if c.Game.TargetLng < -180 || c.Game.TargetLng > 180 {
		errs = append(errs, fmt.Sprintf("game.target_lng must be -180..180, got %v", c.Game.TargetLng))
	}
	if c.Game.RevealRadiusM <= 0 {
		errs = append(errs, fmt.Sprintf("game.reveal_radius_m must be positive, got %v", c.Game.RevealRadiusM))
	}
	if c.Game.HotRadiusM <= c.Game.RevealRadiusM {
		errs = append(errs, fmt.Sprintf("game.hot_radius_m must exceed reveal_radius_m, got %v", c.Game.HotRadiusM))
	}
	if c.Game.SameToleranceM < 0 {
		errs = append(errs, "game.same_tolerance_m must not be negative")
	}
	if c.Game.ScoreMaxErrorM <= 0 {
		errs = append(errs, "game.score_max_error_m must be positive")
	}
	if c.Game.DebounceMs < 0 {
		errs = append(errs, "game.debounce_ms must not be negative")
	}
	if c.Game.InitialZoom < 1 || c.Game.InitialZoom > 19 {
		errs = append(errs, fmt.Sprintf("game.initial_zoom must be 1-19, got %d", c.Game.InitialZoom))
	}
	if c.Game.HintResolution < 0 || c.Game.HintResolution > 15 {
		errs = append(errs, fmt.Sprintf("game.hint_resolution must be 0-15, got %d", c.Game.HintResolution))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
