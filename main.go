package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	port := flag.String("port", "", "listen port (overrides config and PORT)")
	local := flag.Bool("local", false, "play locally in the terminal against bots")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	if *local {
		// The terminal belongs to the game screen.
		out = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *local {
		err = runLocal(ctx, cfg, logger)
	} else {
		err = runServer(ctx, cfg, *configPath, logger)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runLocal(ctx context.Context, cfg Config, logger *slog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return RunLocal(ctx, screen, NewLocalGame(cfg, rng, time.Now()), logger)
}

func runServer(ctx context.Context, cfg Config, configPath string, logger *slog.Logger) error {
	world := NewWorld(cfg, logger)
	go world.Run(ctx)
	go func() {
		if err := WatchConfig(ctx, configPath, logger, world.Reload); err != nil {
			logger.Warn("config hot reload disabled", "err", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(world, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "ws", "ws://localhost:"+cfg.Port+"/ws")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// NewRouter wires the HTTP and WebSocket endpoints.
func NewRouter(world *World, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Snakez Server Running")
	})
	router.GET("/ws", HandleWebSocket(world, logger))
	router.GET("/api/leaderboard", func(c *gin.Context) {
		c.JSON(http.StatusOK, world.Leaderboard())
	})
	router.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, world.Stats())
	})
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}
