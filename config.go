package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"snakez/server/game"
)

const (
	// Network
	InputQueueSize   = 10000
	WriteChannelSize = 256
	PingInterval     = 25 * time.Second
	PongWait         = 60 * time.Second
	WriteWait        = 10 * time.Second
	MaxMessageSize   = 4096

	// Defaults
	DefaultPort            = "3000"
	DefaultTickRate        = 60
	DefaultLeaderboardSize = 10
	DefaultGraceWindowMs   = 5000
	DefaultBotCount        = 5
)

// Config holds the server and local-mode settings.
type Config struct {
	Port            string  `json:"port"`
	TickRate        int     `json:"tickRate"`
	FoodTarget      int     `json:"foodTarget"`
	LeaderboardSize int     `json:"leaderboardSize"`
	GraceWindowMs   int     `json:"graceWindowMs"`
	WorldWidth      float64 `json:"worldWidth"`
	WorldHeight     float64 `json:"worldHeight"`
	BotCount        int     `json:"botCount"`
}

// DefaultConfig returns the reference settings.
func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		TickRate:        DefaultTickRate,
		FoodTarget:      game.DefaultFoodTarget,
		LeaderboardSize: DefaultLeaderboardSize,
		GraceWindowMs:   DefaultGraceWindowMs,
		WorldWidth:      game.WorldWidth,
		WorldHeight:     game.WorldHeight,
		BotCount:        DefaultBotCount,
	}
}

// TickInterval is the duration of one simulation tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// GraceWindow is how long dead snakes stay in the world.
func (c Config) GraceWindow() time.Duration {
	return time.Duration(c.GraceWindowMs) * time.Millisecond
}

// normalize replaces unusable values with defaults.
func (c *Config) normalize() {
	d := DefaultConfig()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.TickRate <= 0 {
		c.TickRate = d.TickRate
	}
	if c.FoodTarget < 0 {
		c.FoodTarget = d.FoodTarget
	}
	if c.LeaderboardSize <= 0 {
		c.LeaderboardSize = d.LeaderboardSize
	}
	if c.GraceWindowMs < 0 {
		c.GraceWindowMs = d.GraceWindowMs
	}
	if c.WorldWidth <= 2*game.SpawnMargin || c.WorldHeight <= 2*game.SpawnMargin {
		c.WorldWidth, c.WorldHeight = d.WorldWidth, d.WorldHeight
	}
	if c.BotCount < 0 {
		c.BotCount = d.BotCount
	}
}

// LoadConfig reads the config file at path. A missing file is created with the defaults.
// A .env file, when present, is loaded and PORT overrides the file's port.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := saveConfig(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		loaded, err := readConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	// .env is optional
	_ = godotenv.Load()
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	return cfg, nil
}

func readConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func saveConfig(path string, cfg Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// WatchConfig calls onChange with the re-read config whenever the file at path is written.
// It blocks until ctx is cancelled.
func WatchConfig(ctx context.Context, path string, logger *slog.Logger, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := readConfig(target)
			if err != nil {
				logger.Warn("config reload failed", "path", target, "err", err)
				continue
			}
			logger.Info("config reloaded", "path", target)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "err", err)
		}
	}
}
