package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teknik1/hardcorelogoff/internal/config"
	"github.com/teknik1/hardcorelogoff/internal/core/event"
	coresys "github.com/teknik1/hardcorelogoff/internal/core/system"
	"github.com/teknik1/hardcorelogoff/internal/data"
	"github.com/teknik1/hardcorelogoff/internal/guard"
	gonet "github.com/teknik1/hardcorelogoff/internal/net"
	"github.com/teknik1/hardcorelogoff/internal/reconcile"
	"github.com/teknik1/hardcorelogoff/internal/restore"
	"github.com/teknik1/hardcorelogoff/internal/sched"
	"github.com/teknik1/hardcorelogoff/internal/snapshot"
	"github.com/teknik1/hardcorelogoff/internal/system"
	"github.com/teknik1/hardcorelogoff/internal/world"
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("LOGOFFD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("booting", zap.String("server", cfg.Server.Name))

	// 3. Load data tables
	mobTable, err := data.LoadMobTable(cfg.World.MobList)
	if err != nil {
		return fmt.Errorf("mob table: %w", err)
	}
	terrain, err := data.LoadTerrain(cfg.World.Terrain)
	if err != nil {
		return fmt.Errorf("terrain: %w", err)
	}
	log.Info("data loaded",
		zap.Int("mob_templates", mobTable.Count()),
		zap.Int("terrain_columns", terrain.Columns()))

	// 4. World state and engine components
	ws := world.NewState(mobTable, terrain, cfg.World.DefaultDespawn, log)
	zones := zone.NewIndex(cfg.Snapshot.TileSize)
	lists := reconcile.Lists{
		Capture: cfg.Prefixes.Capture,
		Restore: cfg.Prefixes.Restore,
		Trigger: cfg.Prefixes.Trigger,
		Exclude: cfg.Prefixes.Exclude,
	}
	timers := sched.New()
	store := snapshot.NewStore(snapshot.Config{
		Radius:         cfg.Snapshot.Radius,
		VerticalRadius: cfg.Snapshot.VerticalRadius,
		MaxMobs:        cfg.Snapshot.MaxMobs,
		TTLMinMinutes:  cfg.Snapshot.TTLMinMinutes,
		TTLMaxMinutes:  cfg.Snapshot.TTLMaxMinutes,
	}, lists, ws, log)
	despawnGuard := guard.New(ws, timers, log)
	restorer := restore.NewScheduler(restore.Config{
		Radius:         cfg.Snapshot.Radius,
		VerticalRadius: cfg.Snapshot.VerticalRadius,
		RetryInterval:  cfg.Restore.RetryInterval,
		MaxAttempts:    cfg.Restore.MaxAttempts,
		ForceRestore:   cfg.Restore.ForceRestore,
		RequeueMin:     cfg.Restore.RequeueMin,
		RequeueMax:     cfg.Restore.RequeueMax,
		PinPadding:     cfg.Restore.PinPadding,
		KeepPinned:     cfg.Restore.KeepPinned,
		VerifyDelay:    cfg.Restore.VerifyDelay,
		DespawnGrace:   cfg.Restore.DespawnGrace,
	}, zones, store, lists, ws, timers, despawnGuard, log)

	// 5. Network server
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, cfg.Network.InQueueSize, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 6. Systems
	bus := event.NewBus()
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, ws, bus, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewPresenceSystem(bus, zones, store, restorer))
	runner.Register(system.NewTimerSystem(timers))
	runner.Register(system.NewDespawnSystem(ws, log))
	runner.Register(system.NewChunkSystem(ws, cfg.World.ChunkViewRadius))

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	log.Info("server ready",
		zap.String("addr", netServer.Addr().String()),
		zap.Duration("tick", cfg.Network.TickRate))

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			netServer.Shutdown()
			log.Info("server stopped",
				zap.Int("snapshots_discarded", store.Len()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
