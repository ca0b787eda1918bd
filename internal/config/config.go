package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds everything the worker reads at start. It is loaded once and
// never mutated afterwards; every job sees the same limits and defaults.
//
// Fields:
// - Env: the current environment (local, development, production).
// - Server: listen address, worker pool size and pipeline endpoints.
// - ServiceLimits: validation and pre-check limits.
// - CostingOptions: per-mode default options handed to the cost factory.
// - Tiles: graph tiling levels and the tile cache memory budget.
type Config struct {
	Env            string                    `mapstructure:"env"`
	Server         ServerConfig              `mapstructure:"server"`
	ServiceLimits  ServiceLimits             `mapstructure:"service_limits"`
	CostingOptions map[string]map[string]any `mapstructure:"costing_options"`
	Tiles          TilesConfig               `mapstructure:"tiles"`
}

// ServerConfig holds the endpoints of this worker and its pipeline peers.
type ServerConfig struct {
	Listen      string `mapstructure:"listen"`       // HTTP listen address of the worker front.
	MonitorPort int    `mapstructure:"monitor_port"` // Port of the /healthz and /metrics server.
	Workers     int    `mapstructure:"workers"`      // Number of worker replicas in this process.
	Downstream  string `mapstructure:"downstream"`   // Endpoint forward messages are delivered to.
}

// ServiceLimits bounds what a single request may ask for.
type ServiceLimits struct {
	MaxRouteLocations int                `mapstructure:"max_route_locations"`
	MaxDistance       map[string]float64 `mapstructure:"max_distance"` // Meters, keyed by costing name.
}

// TilesConfig describes the graph tiling and the cache budget.
type TilesConfig struct {
	CacheBudgetBytes int64         `mapstructure:"cache_budget_bytes"`
	Levels           []LevelConfig `mapstructure:"levels"`
}

// LevelConfig is one tiling level.
type LevelConfig struct {
	Level int     `mapstructure:"level"`
	Name  string  `mapstructure:"name"`
	Size  float64 `mapstructure:"size"` // Tile edge length in degrees.
}

// MustLoad loads the configuration, panicking on failure. The config file
// path comes from ANCHOR_CONFIG; without one the defaults plus ANCHOR_*
// environment overrides apply.
func MustLoad() *Config {
	_ = godotenv.Load()

	cfg, err := Load(os.Getenv("ANCHOR_CONFIG"))
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	return cfg
}

// Load reads the optional YAML config file at path and applies environment
// overrides on top of the built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ANCHOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Server.Workers < 1 {
		return nil, fmt.Errorf("server.workers must be at least 1, got %d", cfg.Server.Workers)
	}
	if len(cfg.Tiles.Levels) == 0 {
		return nil, fmt.Errorf("tiles.levels must not be empty")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("server.listen", ":8002")
	v.SetDefault("server.monitor_port", 8080)
	v.SetDefault("server.workers", 1)
	v.SetDefault("server.downstream", "http://localhost:8003/path")

	v.SetDefault("service_limits.max_route_locations", 20)
	v.SetDefault("service_limits.max_distance", map[string]float64{
		"auto":         5_000_000,
		"auto_shorter": 5_000_000,
		"bus":          5_000_000,
		"bicycle":      500_000,
		"pedestrian":   250_000,
	})

	v.SetDefault("costing_options", map[string]map[string]any{
		"auto":         {},
		"auto_shorter": {},
		"bus":          {},
		"bicycle":      {},
		"pedestrian":   {},
	})

	v.SetDefault("tiles.cache_budget_bytes", int64(1<<30))
	v.SetDefault("tiles.levels", []map[string]any{
		{"level": 0, "name": "highway", "size": 4.0},
		{"level": 1, "name": "arterial", "size": 1.0},
		{"level": 2, "name": "local", "size": 0.25},
	})
}

// CostingDefaults returns the per-mode default options with every value
// rendered to its string form, the shape the cost factory consumes.
func (c *Config) CostingDefaults() map[string]map[string]string {
	out := make(map[string]map[string]string, len(c.CostingOptions))
	for name, raw := range c.CostingOptions {
		opts := make(map[string]string, len(raw))
		for key, value := range raw {
			opts[key] = cast.ToString(value)
		}
		out[name] = opts
	}
	return out
}
