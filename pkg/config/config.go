package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/owenkobasz/cyclone/pkg/aiseed"
	"github.com/owenkobasz/cyclone/pkg/engine/routingalgorithm"
	"github.com/owenkobasz/cyclone/pkg/engine/sampler"
	"github.com/owenkobasz/cyclone/pkg/engine/synthesizer"
	"github.com/owenkobasz/cyclone/pkg/graphhopper"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Graph       GraphConfig       `mapstructure:"graph"`
	Engine      EngineConfig      `mapstructure:"engine"`
	GraphHopper GraphHopperConfig `mapstructure:"graphhopper"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Elevation   ElevationConfig   `mapstructure:"elevation"`
}

type ServerConfig struct {
	ListenAddr   string   `mapstructure:"listen_addr"`
	CorsOrigins  []string `mapstructure:"cors_origins"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type GraphConfig struct {
	PbfFile        string  `mapstructure:"pbf_file"`
	KVDir          string  `mapstructure:"kv_dir"`
	RegionLat      float64 `mapstructure:"region_lat"`
	RegionLon      float64 `mapstructure:"region_lon"`
	RegionRadiusKm float64 `mapstructure:"region_radius_km"`
	AvoidHighways  bool    `mapstructure:"avoid_highways"`
}

// HasRegion a zero radius loads the whole stored graph.
func (g GraphConfig) HasRegion() bool {
	return g.RegionRadiusKm > 0
}

type EngineConfig struct {
	Seed             uint64           `mapstructure:"seed"`
	Timeout          int              `mapstructure:"timeout"`
	CyclingSpeedKmh  float64          `mapstructure:"cycling_speed_kmh"`
	CandidateCount   int              `mapstructure:"candidate_count"`
	GrowthThreshold  float64          `mapstructure:"growth_threshold"`
	ClosureTolerance float64          `mapstructure:"closure_tolerance"`
	OvershootFactor  float64          `mapstructure:"overshoot_factor"`
	ContinuityBonus  float64          `mapstructure:"continuity_bonus"`
	DispersionBonus  float64          `mapstructure:"dispersion_bonus"`
	DispersionMinKm  float64          `mapstructure:"dispersion_min_km"`
	DFS              DFSConfig        `mapstructure:"dfs"`
	Walk             RandomWalkConfig `mapstructure:"walk"`
}

type DFSConfig struct {
	MaxDepth  int     `mapstructure:"max_depth"`
	MaxRoutes int     `mapstructure:"max_routes"`
	Tolerance float64 `mapstructure:"tolerance"`
}

type RandomWalkConfig struct {
	MaxAttempts int     `mapstructure:"max_attempts"`
	WindowM     float64 `mapstructure:"window_m"`
}

type GraphHopperConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Vehicle           string  `mapstructure:"vehicle"`
	MaxAttempts       int     `mapstructure:"max_attempts"`
	InitialBackoff    int     `mapstructure:"initial_backoff_ms"`
	Multiplier        float64 `mapstructure:"multiplier"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
	Workers           int     `mapstructure:"workers"`
}

func (g GraphHopperConfig) Enabled() bool {
	return g.APIKey != ""
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type ElevationConfig struct {
	CacheDir string `mapstructure:"cache_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":5000")
	v.SetDefault("server.cors_origins", []string{"https://*", "http://*"})
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("graph.pbf_file", "")
	v.SetDefault("graph.kv_dir", "")
	v.SetDefault("graph.region_lat", 0.0)
	v.SetDefault("graph.region_lon", 0.0)
	v.SetDefault("graph.region_radius_km", 0.0)
	v.SetDefault("graph.avoid_highways", true)

	syn := synthesizer.DefaultConfig()
	smp := sampler.DefaultConfig()
	dfs := routingalgorithm.DefaultDFSConfig()
	walk := routingalgorithm.DefaultRandomWalkConfig()
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.timeout", 30)
	v.SetDefault("engine.cycling_speed_kmh", 22.5)
	v.SetDefault("engine.candidate_count", smp.CandidateCount)
	v.SetDefault("engine.growth_threshold", syn.GrowthThreshold)
	v.SetDefault("engine.closure_tolerance", syn.ClosureTolerance)
	v.SetDefault("engine.overshoot_factor", syn.OvershootFactor)
	v.SetDefault("engine.continuity_bonus", smp.ContinuityBonus)
	v.SetDefault("engine.dispersion_bonus", smp.DispersionBonus)
	v.SetDefault("engine.dispersion_min_km", smp.DispersionMinKm)
	v.SetDefault("engine.dfs.max_depth", dfs.MaxDepth)
	v.SetDefault("engine.dfs.max_routes", dfs.MaxRoutes)
	v.SetDefault("engine.dfs.tolerance", dfs.Tolerance)
	v.SetDefault("engine.walk.max_attempts", walk.MaxAttempts)
	v.SetDefault("engine.walk.window_m", walk.WindowM)

	gh := graphhopper.DefaultConfig()
	v.SetDefault("graphhopper.api_key", "")
	v.SetDefault("graphhopper.base_url", gh.BaseURL)
	v.SetDefault("graphhopper.vehicle", gh.Vehicle)
	v.SetDefault("graphhopper.max_attempts", gh.MaxAttempts)
	v.SetDefault("graphhopper.initial_backoff_ms", int(gh.InitialBackoff/time.Millisecond))
	v.SetDefault("graphhopper.multiplier", gh.BackoffMultiplier)
	v.SetDefault("graphhopper.requests_per_minute", gh.RequestsPerMinute)
	v.SetDefault("graphhopper.workers", 4)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", aiseed.DefaultBaseURL)
	v.SetDefault("openai.model", aiseed.DefaultModel)

	v.SetDefault("elevation.cache_dir", "")
}

// legacyEnv environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"graphhopper.api_key":  "GRAPHHOPPER_API_KEY",
	"graphhopper.base_url": "GRAPHHOPPER_BASE_URL",
	"openai.api_key":       "OPENAI_API_KEY",
	"openai.base_url":      "OPENAI_API_URL",
}

// Load reads configuration from file and environment variables. An empty path looks for config.yaml in
// the working directory and ./configs, a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: CYCLONE_GRAPH_KV_DIR → graph.kv_dir
	v.SetEnvPrefix("CYCLONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "CYCLONE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

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

	if c.Server.ListenAddr == "" {
		errs = append(errs, "server.listen_addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	if c.Graph.RegionRadiusKm < 0 {
		errs = append(errs, "graph.region_radius_km must not be negative")
	}
	if c.Graph.HasRegion() && (math.Abs(c.Graph.RegionLat) > 90 || math.Abs(c.Graph.RegionLon) > 180) {
		errs = append(errs, "graph.region_lat/region_lon out of range")
	}
	if c.Engine.Timeout <= 0 {
		errs = append(errs, "engine.timeout must be positive")
	}
	if c.Engine.CyclingSpeedKmh <= 0 {
		errs = append(errs, "engine.cycling_speed_kmh must be positive")
	}
	if c.Engine.CandidateCount <= 0 {
		errs = append(errs, "engine.candidate_count must be positive")
	}
	if c.Engine.GrowthThreshold <= 0 || c.Engine.GrowthThreshold >= 1 {
		errs = append(errs, "engine.growth_threshold must be in (0, 1)")
	}
	if c.Engine.ClosureTolerance <= 0 || c.Engine.ClosureTolerance >= 1 {
		errs = append(errs, "engine.closure_tolerance must be in (0, 1)")
	}
	if c.Engine.OvershootFactor <= 1 {
		errs = append(errs, "engine.overshoot_factor must be greater than 1")
	}
	if c.Engine.DFS.MaxDepth <= 0 || c.Engine.DFS.MaxRoutes <= 0 {
		errs = append(errs, "engine.dfs.max_depth and engine.dfs.max_routes must be positive")
	}
	if c.Engine.DFS.Tolerance <= 0 {
		errs = append(errs, "engine.dfs.tolerance must be positive")
	}
	if c.Engine.Walk.MaxAttempts <= 0 || c.Engine.Walk.WindowM <= 0 {
		errs = append(errs, "engine.walk.max_attempts and engine.walk.window_m must be positive")
	}
	if c.GraphHopper.MaxAttempts <= 0 {
		errs = append(errs, "graphhopper.max_attempts must be positive")
	}
	if c.GraphHopper.RequestsPerMinute < 0 {
		errs = append(errs, "graphhopper.requests_per_minute must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) SynthesizerConfig() synthesizer.Config {
	return synthesizer.Config{
		GrowthThreshold:  c.Engine.GrowthThreshold,
		ClosureTolerance: c.Engine.ClosureTolerance,
		OvershootFactor:  c.Engine.OvershootFactor,
	}
}

func (c *Config) SamplerConfig() sampler.Config {
	cfg := sampler.DefaultConfig()
	cfg.CandidateCount = c.Engine.CandidateCount
	cfg.ContinuityBonus = c.Engine.ContinuityBonus
	cfg.DispersionBonus = c.Engine.DispersionBonus
	cfg.DispersionMinKm = c.Engine.DispersionMinKm
	return cfg
}

func (c *Config) DFSConfig() routingalgorithm.DFSConfig {
	return routingalgorithm.DFSConfig{
		MaxDepth:  c.Engine.DFS.MaxDepth,
		MaxRoutes: c.Engine.DFS.MaxRoutes,
		Tolerance: c.Engine.DFS.Tolerance,
	}
}

func (c *Config) RandomWalkConfig() routingalgorithm.RandomWalkConfig {
	return routingalgorithm.RandomWalkConfig{
		MaxAttempts: c.Engine.Walk.MaxAttempts,
		WindowM:     c.Engine.Walk.WindowM,
	}
}

func (c *Config) GraphHopperClientConfig() graphhopper.Config {
	cfg := graphhopper.DefaultConfig()
	cfg.APIKey = c.GraphHopper.APIKey
	cfg.BaseURL = c.GraphHopper.BaseURL
	cfg.Vehicle = c.GraphHopper.Vehicle
	cfg.MaxAttempts = c.GraphHopper.MaxAttempts
	cfg.InitialBackoff = time.Duration(c.GraphHopper.InitialBackoff) * time.Millisecond
	cfg.BackoffMultiplier = c.GraphHopper.Multiplier
	cfg.RequestsPerMinute = c.GraphHopper.RequestsPerMinute
	cfg.Workers = c.GraphHopper.Workers
	return cfg
}

func (c *Config) SeederConfig() aiseed.Config {
	return aiseed.Config{
		APIKey:  c.OpenAI.APIKey,
		BaseURL: c.OpenAI.BaseURL,
		Model:   c.OpenAI.Model,
	}
}

func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.Timeout) * time.Second
}
