package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Network  NetworkConfig  `toml:"network"`
	World    WorldConfig    `toml:"world"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Restore  RestoreConfig  `toml:"restore"`
	Prefixes PrefixConfig   `toml:"prefixes"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"`
	TickRate          time.Duration `toml:"tick_rate"`
	InQueueSize       int           `toml:"in_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
}

type WorldConfig struct {
	MobList         string        `toml:"mob_list"`
	Terrain         string        `toml:"terrain"`
	ChunkViewRadius int           `toml:"chunk_view_radius"` // chunks kept resident around a player
	DefaultDespawn  time.Duration `toml:"default_despawn"`   // idle-despawn threshold for mobs without one
}

type SnapshotConfig struct {
	TileSize       int     `toml:"tile_size"` // zone edge length, clamped to >= 32
	Radius         float64 `toml:"radius"`    // capture radius around the disconnect position
	VerticalRadius float64 `toml:"vertical_radius"`
	MaxMobs        int     `toml:"max_mobs"` // 0 = unlimited
	TTLMinMinutes  int     `toml:"ttl_min_minutes"`
	TTLMaxMinutes  int     `toml:"ttl_max_minutes"`
}

type RestoreConfig struct {
	RetryInterval time.Duration `toml:"retry_interval"`
	MaxAttempts   int           `toml:"max_attempts"`
	ForceRestore  bool          `toml:"force_restore"`
	RequeueMin    time.Duration `toml:"requeue_min"`
	RequeueMax    time.Duration `toml:"requeue_max"`
	PinPadding    int           `toml:"pin_padding"`
	KeepPinned    time.Duration `toml:"keep_pinned"`
	VerifyDelay   time.Duration `toml:"verify_delay"`
	DespawnGrace  time.Duration `toml:"despawn_grace"`
}

type PrefixConfig struct {
	Capture []string `toml:"capture"`
	Restore []string `toml:"restore"`
	Trigger []string `toml:"trigger"`
	Exclude []string `toml:"exclude"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "hardcorelogoff",
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:7311",
			TickRate:          200 * time.Millisecond,
			InQueueSize:       128,
			MaxPacketsPerTick: 32,
		},
		World: WorldConfig{
			MobList:         "data/mob_list.yaml",
			Terrain:         "data/terrain.yaml",
			ChunkViewRadius: 8,
			DefaultDespawn:  5 * time.Minute,
		},
		Snapshot: SnapshotConfig{
			TileSize:       128,
			Radius:         48,
			VerticalRadius: 24,
			MaxMobs:        0,
			TTLMinMinutes:  120,
			TTLMaxMinutes:  360,
		},
		Restore: RestoreConfig{
			RetryInterval: 2 * time.Second,
			MaxAttempts:   10,
			ForceRestore:  false,
			RequeueMin:    200 * time.Millisecond,
			RequeueMax:    600 * time.Millisecond,
			PinPadding:    2,
			KeepPinned:    30 * time.Second,
			VerifyDelay:   time.Second,
			DespawnGrace:  2 * time.Minute,
		},
		Prefixes: PrefixConfig{
			Capture: []string{"wastes:"},
			Restore: []string{"wastes:drifter", "wastes:locust"},
			Trigger: []string{"wastes:warden"},
			Exclude: []string{"wastes:wisp"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
