package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/config"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/monitor"
	"github.com/wfunc/flashfive/persistence"
	"github.com/wfunc/flashfive/server"
	"github.com/wfunc/flashfive/timer"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.InitWithLevel(cfg.Log.Level); err != nil {
		logger.Log.Warnf("Invalid log level %q, keeping info: %v", cfg.Log.Level, err)
	}

	// Initialize catalog storage
	storage, err := persistence.NewByEngine(cfg.Storage)
	if err != nil {
		logger.Log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Engine, err)
	}
	defer storage.Close()

	store := catalog.NewStore(storage, cfg.Storage.Key)
	c := store.Load()
	logger.Log.Infof("Catalog loaded: demo plus %d game categories", len(c.GameImages))

	timers := timer.NewTimerManager()
	defer timers.Stop()

	mon := monitor.NewMonitor("flashfive")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	// Initialize Game Server
	gameServer, err := server.NewGameServer(*cfg, store, timers, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create game server: %v", err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Log.Info("Shutting down game server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("Shutdown error: %v", err)
		}
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
