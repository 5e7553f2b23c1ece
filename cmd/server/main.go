// Command server boots the authoritative UDP game server: loads config
// and static game data, wires every optional subsystem (persistence,
// cross-instance registry, spectator relay, fleet control plane, SPIFFE
// identity, dedicated-host pool) behind its feature flag, then runs the
// game loop until an interrupt or SIGTERM arrives.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ocx/backend/internal/adminrpc"
	"github.com/ocx/backend/internal/api"
	"github.com/ocx/backend/internal/config"
	"github.com/ocx/backend/internal/dispatch"
	"github.com/ocx/backend/internal/gameconfig"
	"github.com/ocx/backend/internal/gameloop"
	"github.com/ocx/backend/internal/hostpool"
	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/internal/metrics"
	"github.com/ocx/backend/internal/observer"
	"github.com/ocx/backend/internal/persist"
	"github.com/ocx/backend/internal/registry"
	"github.com/ocx/backend/internal/security"
	"github.com/ocx/backend/internal/spectate"
	"github.com/ocx/backend/internal/telemetry"
	"github.com/ocx/backend/internal/transport"
)

func main() {
	cfg := config.Get()
	logger := slog.Default()

	enemies := gameconfig.NewEnemyConfigManager()
	if err := enemies.LoadFromFile(cfg.Game.EnemiesPath); err != nil {
		logger.Error("server: failed to load enemies config", "path", cfg.Game.EnemiesPath, "err", err)
		os.Exit(1)
	}
	levels := gameconfig.NewLevelConfigManager()
	if err := levels.LoadFromFile(cfg.Game.LevelsPath); err != nil {
		logger.Error("server: failed to load levels config", "path", cfg.Game.LevelsPath, "err", err)
		os.Exit(1)
	}
	defaultLevel, ok := levels.Config(cfg.Game.DefaultLevelID)
	if !ok {
		logger.Warn("server: default level not found in levels config", "level_id", cfg.Game.DefaultLevelID)
	}

	spawnCfg := func() lobby.SpawnConfig {
		return lobby.SpawnConfig{
			SpawnX:       cfg.Game.DefaultSpawnX,
			SpawnY:       cfg.Game.DefaultSpawnY,
			PlayerMaxHP:  cfg.Game.PlayerMaxHP,
			PlayerWidth:  cfg.Game.PlayerWidth,
			PlayerHeight: cfg.Game.PlayerHeight,
			WorldWidth:   cfg.Game.WorldWidth,
			WorldHeight:  cfg.Game.WorldHeight,
			PlayerSpeed:  cfg.Game.PlayerSpeed,
			Level:        defaultLevel,
			Enemies:      enemies,
		}
	}

	tr := transport.NewServerTransport(cfg.Transport.Addr, logger)
	manager := lobby.NewManager(tr, spawnCfg, logger)

	// Telemetry: Pub/Sub fan-out if configured, else the in-process bus
	// that also feeds the admin dashboard.
	bus := telemetry.NewBus()
	var emitter telemetry.Emitter = bus
	if cfg.Telemetry.Enabled && cfg.Telemetry.GCPProjectID != "" {
		pubsubBus, err := telemetry.NewPubSubBus(cfg.Telemetry.GCPProjectID, cfg.Telemetry.TopicID)
		if err != nil {
			logger.Warn("server: pubsub telemetry init failed, using in-process bus only", "err", err)
		} else {
			defer pubsubBus.Close()
			emitter = pubsubBus
		}
	}
	manager.SetEmitter(emitter)

	dashboard := observer.NewDashboardStreamer(logger)
	dashboard.AttachBus(bus)
	go dashboard.Run()

	// Optional match-result persistence: Postgres takes priority over
	// Supabase when both are configured.
	var store persist.Store
	switch {
	case cfg.Persist.DatabaseURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pg, err := persist.NewPostgresStore(ctx, cfg.Persist.DatabaseURL)
		cancel()
		if err != nil {
			logger.Warn("server: postgres store init failed, match results will not be persisted", "err", err)
		} else {
			defer pg.Close()
			store = pg
		}
	case cfg.Persist.SupabaseURL != "" && cfg.Persist.SupabaseKey != "":
		sb, err := persist.NewSupabaseStore()
		if err != nil {
			logger.Warn("server: supabase store init failed, match results will not be persisted", "err", err)
		} else {
			store = sb
		}
	}
	if store != nil {
		manager.SetStore(store)
	}

	// Optional cross-instance lobby registry. Falls back to a
	// single-process in-memory registry so ReapEnded/CreateLobby's
	// registration path is always exercised.
	var reg registry.Registry
	instanceAddr := getEnvOrDefault("INSTANCE_ADDR", cfg.Transport.Addr)
	if cfg.Registry.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisReg, err := registry.NewRedisRegistry(ctx, cfg.Registry.RedisAddr, "", 0)
		cancel()
		if err != nil {
			logger.Warn("server: redis registry init failed, falling back to in-memory registry", "err", err)
			reg = registry.NewMemoryRegistry()
		} else {
			defer redisReg.Close()
			reg = redisReg
		}
	} else {
		reg = registry.NewMemoryRegistry()
	}
	manager.SetRegistry(reg, instanceAddr)

	// Optional Socket.IO spectator relay.
	var relay *spectate.Relay
	if cfg.Spectate.Enabled {
		relay = spectate.NewRelay(logger)
		defer relay.Close()
		relay.AttachBus(bus)
		manager.SetSpectateRelay(relay)
		if err := relay.Serve(); err != nil {
			logger.Warn("server: spectate relay event loop failed to start", "err", err)
		}
		go func() {
			logger.Info("server: spectate relay listening", "addr", cfg.Spectate.Addr)
			if err := http.ListenAndServe(cfg.Spectate.Addr, relay.Handler()); err != nil && err != http.ErrServerClosed {
				logger.Error("server: spectate relay stopped", "err", err)
			}
		}()
	}

	// Optional pre-warmed dedicated-host container pool. It is started and
	// stopped here only; no lobby acquires a host from it.
	if cfg.HostPool.Enabled {
		pool := hostpool.NewPoolManager(cfg.HostPool.Min, cfg.HostPool.Max, cfg.HostPool.Image, logger)
		defer pool.Stop()
	}

	// Optional SPIFFE/SPIRE workload identity. It is created and closed
	// here only; the fleet gRPC client below dials with insecure
	// credentials whether or not it exists.
	if cfg.Security.SpiffeEnabled {
		id, err := security.NewInstanceIdentity(cfg.Security.SpiffeSocketPath, logger)
		if err != nil {
			logger.Warn("server: spiffe identity init failed, fleet client will use insecure transport", "err", err)
		} else {
			defer id.Close()
		}
	}

	// Optional fleet admin gRPC client, heartbeating this instance's
	// capacity and lobby list to a controller.
	var fleetClient *adminrpc.FleetClient
	if cfg.Fleet.Addr != "" {
		fc, err := adminrpc.NewFleetClient(cfg.Fleet.Addr, instanceAddr, cfg.HostPool.Max, logger)
		if err != nil {
			logger.Warn("server: fleet client init failed, fleet heartbeat disabled", "err", err)
		} else {
			defer fc.Close()
			fleetClient = fc
		}
	}

	router := dispatch.NewServerRouter(manager, tr, logger)
	metricsReg := metrics.New()
	router.SetMetrics(metricsReg)

	driver := gameloop.NewDriver(tr, manager, router, cfg.Tick.RateHz, logger)
	driver.SetMetrics(metricsReg)

	adminServer := api.NewServer(manager, logger)
	adminServer.SetDashboard(dashboard)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server: admin api listening", "addr", cfg.Server.AdminAddr)
		if err := adminServer.ListenAndServe(cfg.Server.AdminAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server: admin api stopped", "err", err)
		}
	}()

	if fleetClient != nil {
		go runFleetHeartbeat(ctx, fleetClient, manager, logger)
	}

	logger.Info("server: game loop starting", "udp_addr", cfg.Transport.Addr, "tick_hz", cfg.Tick.RateHz)
	if err := driver.Run(ctx); err != nil {
		logger.Error("server: game loop failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server: shut down")
}

// runFleetHeartbeat periodically reports this instance's load to the fleet
// controller until ctx is canceled.
func runFleetHeartbeat(ctx context.Context, fc *adminrpc.FleetClient, manager *lobby.Manager, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hbCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			_, err := fc.Heartbeat(hbCtx, manager)
			cancel()
			if err != nil {
				logger.Warn("server: fleet heartbeat failed", "err", err)
			}
		}
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
