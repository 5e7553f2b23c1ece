package config

import (
	"log/slog"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v2"
)

// =============================================================================
// Game server configuration, with environment overrides
// =============================================================================

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Transport  TransportConfig  `yaml:"transport"`
	Tick       TickConfig       `yaml:"tick"`
	Game       GameConfig       `yaml:"game"`
	Persist    PersistConfig    `yaml:"persist"`
	Registry   RegistryConfig   `yaml:"registry"`
	HostPool   HostPoolConfig   `yaml:"host_pool"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Spectate   SpectateConfig   `yaml:"spectate"`
	Fleet      FleetConfig      `yaml:"fleet"`
	Security   SecurityConfig   `yaml:"security"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ServerConfig is the admin/control-plane HTTP surface.
type ServerConfig struct {
	Env         string `yaml:"env"`
	AdminAddr   string `yaml:"admin_addr"`
	GRPCAddr    string `yaml:"grpc_addr"`
	ShutdownSec int    `yaml:"shutdown_timeout_sec"`
}

// TransportConfig is the UDP game wire.
type TransportConfig struct {
	Addr string `yaml:"addr"`
}

// TickConfig drives the fixed-rate game loop.
type TickConfig struct {
	RateHz          int `yaml:"rate_hz"`
	SnapshotEveryN  int `yaml:"snapshot_every_n"`
}

// GameConfig locates the JSON archetype data read once at startup.
type GameConfig struct {
	EnemiesPath    string  `yaml:"enemies_path"`
	LevelsPath     string  `yaml:"levels_path"`
	DefaultLevelID string  `yaml:"default_level_id"`
	DefaultSpawnX  float64 `yaml:"default_spawn_x"`
	DefaultSpawnY  float64 `yaml:"default_spawn_y"`
	PlayerMaxHP    int     `yaml:"player_max_hp"`
	PlayerWidth    float64 `yaml:"player_width"`
	PlayerHeight   float64 `yaml:"player_height"`
	PlayerSpeed    float64 `yaml:"player_speed"`
	WorldWidth     float64 `yaml:"world_width"`
	WorldHeight    float64 `yaml:"world_height"`
}

// PersistConfig selects the optional match-result persistence backend.
type PersistConfig struct {
	DatabaseURL string `yaml:"database_url"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
}

// RegistryConfig is the optional cross-instance lobby registry.
type RegistryConfig struct {
	RedisAddr string `yaml:"redis_addr"`
}

// HostPoolConfig is the optional pre-warmed dedicated-lobby container pool.
type HostPoolConfig struct {
	Enabled bool   `yaml:"enabled"`
	Image   string `yaml:"image"`
	Min     int    `yaml:"min"`
	Max     int    `yaml:"max"`
}

// MetricsConfig is the Prometheus exposition surface.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SpectateConfig is the Socket.IO spectator relay.
type SpectateConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// FleetConfig is the admin gRPC fleet-control client.
type FleetConfig struct {
	Addr string `yaml:"addr"`
}

// SecurityConfig is the optional SPIFFE/mTLS posture for the fleet client.
type SecurityConfig struct {
	SpiffeEnabled    bool   `yaml:"spiffe_enabled"`
	SpiffeSocketPath string `yaml:"spiffe_socket_path"`
}

// TelemetryConfig is the optional Pub/Sub-backed analytics fan-out.
type TelemetryConfig struct {
	GCPProjectID string `yaml:"gcp_project_id"`
	TopicID      string `yaml:"topic_id"`
	Enabled      bool   `yaml:"enabled"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the process-wide singleton config, loading it on first use.
func Get() *Config {
	once.Do(func() {
		cfg, err := LoadConfig(getEnv("CONFIG_PATH", "config.yaml"))
		if err != nil {
			slog.Warn("config: failed to load config file, using defaults", "error", err)
		}
		if cfg == nil {
			cfg = &Config{}
		}
		cfg.applyDefaults()
		cfg.applyEnvOverrides()
		instance = cfg
	})
	return instance
}

// LoadConfig loads config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets environment variables win over YAML, the same
// precedence the admin tooling uses.
func (c *Config) applyEnvOverrides() {
	c.Server.Env = getEnv("GAME_ENV", c.Server.Env)
	c.Server.AdminAddr = getEnv("ADMIN_ADDR", c.Server.AdminAddr)
	c.Server.GRPCAddr = getEnv("ADMIN_GRPC_ADDR", c.Server.GRPCAddr)
	if v := getEnvInt("SHUTDOWN_TIMEOUT_SEC", 0); v > 0 {
		c.Server.ShutdownSec = v
	}

	c.Transport.Addr = getEnv("UDP_ADDR", c.Transport.Addr)

	if v := getEnvInt("TICK_RATE_HZ", 0); v > 0 {
		c.Tick.RateHz = v
	}
	if v := getEnvInt("SNAPSHOT_EVERY_N", 0); v > 0 {
		c.Tick.SnapshotEveryN = v
	}

	c.Game.EnemiesPath = getEnv("ENEMIES_CONFIG_PATH", c.Game.EnemiesPath)
	c.Game.LevelsPath = getEnv("LEVELS_CONFIG_PATH", c.Game.LevelsPath)
	c.Game.DefaultLevelID = getEnv("DEFAULT_LEVEL_ID", c.Game.DefaultLevelID)

	c.Persist.DatabaseURL = getEnv("DATABASE_URL", c.Persist.DatabaseURL)
	c.Persist.SupabaseURL = getEnv("SUPABASE_URL", c.Persist.SupabaseURL)
	c.Persist.SupabaseKey = getEnv("SUPABASE_SERVICE_KEY", c.Persist.SupabaseKey)

	c.Registry.RedisAddr = getEnv("REDIS_ADDR", c.Registry.RedisAddr)

	c.HostPool.Enabled = getEnvBool("HOSTPOOL_ENABLED", c.HostPool.Enabled)
	c.HostPool.Image = getEnv("HOSTPOOL_IMAGE", c.HostPool.Image)
	if v := getEnvInt("HOSTPOOL_MIN", 0); v > 0 {
		c.HostPool.Min = v
	}
	if v := getEnvInt("HOSTPOOL_MAX", 0); v > 0 {
		c.HostPool.Max = v
	}

	c.Metrics.Enabled = getEnvBool("METRICS_ENABLED", c.Metrics.Enabled)

	c.Spectate.Enabled = getEnvBool("SPECTATE_ENABLED", c.Spectate.Enabled)
	c.Spectate.Addr = getEnv("SPECTATE_ADDR", c.Spectate.Addr)

	c.Fleet.Addr = getEnv("FLEET_GRPC_ADDR", c.Fleet.Addr)

	c.Security.SpiffeEnabled = getEnvBool("SPIFFE_ENABLED", c.Security.SpiffeEnabled)
	c.Security.SpiffeSocketPath = getEnv("SPIFFE_ENDPOINT_SOCKET", c.Security.SpiffeSocketPath)

	c.Telemetry.GCPProjectID = getEnv("GCP_PROJECT_ID", c.Telemetry.GCPProjectID)
	c.Telemetry.TopicID = getEnv("TELEMETRY_TOPIC_ID", c.Telemetry.TopicID)
	c.Telemetry.Enabled = getEnvBool("TELEMETRY_ENABLED", c.Telemetry.Enabled)
}

// applyDefaults fills in zero-value fields with the shipped defaults.
func (c *Config) applyDefaults() {
	if c.Server.AdminAddr == "" {
		c.Server.AdminAddr = ":8080"
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":9090"
	}
	if c.Server.ShutdownSec == 0 {
		c.Server.ShutdownSec = 5
	}
	if c.Transport.Addr == "" {
		c.Transport.Addr = ":4242"
	}
	if c.Tick.RateHz == 0 {
		c.Tick.RateHz = 60
	}
	if c.Tick.SnapshotEveryN == 0 {
		c.Tick.SnapshotEveryN = 1
	}
	if c.Game.EnemiesPath == "" {
		c.Game.EnemiesPath = "config/enemies.json"
	}
	if c.Game.LevelsPath == "" {
		c.Game.LevelsPath = "config/levels.json"
	}
	if c.Game.PlayerMaxHP == 0 {
		c.Game.PlayerMaxHP = 100
	}
	if c.Game.PlayerWidth == 0 {
		c.Game.PlayerWidth = 32
	}
	if c.Game.PlayerHeight == 0 {
		c.Game.PlayerHeight = 32
	}
	if c.Game.PlayerSpeed == 0 {
		c.Game.PlayerSpeed = 200
	}
	if c.Game.WorldWidth == 0 {
		c.Game.WorldWidth = 1600
	}
	if c.Game.WorldHeight == 0 {
		c.Game.WorldHeight = 1200
	}
	if c.Game.DefaultLevelID == "" {
		c.Game.DefaultLevelID = "level_1"
	}
	if c.HostPool.Min == 0 {
		c.HostPool.Min = 1
	}
	if c.HostPool.Max == 0 {
		c.HostPool.Max = 4
	}
	if c.HostPool.Image == "" {
		c.HostPool.Image = "lobby-host:latest"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Spectate.Addr == "" {
		c.Spectate.Addr = ":8081"
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// IsProduction reports whether the server is configured for a production
// environment.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
