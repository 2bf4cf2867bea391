package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "realtime-relay/internal/app"
	"realtime-relay/internal/bus"
	httpx "realtime-relay/internal/http"
	"realtime-relay/internal/registry"
	"realtime-relay/internal/rooms"
	"realtime-relay/internal/router"
	"realtime-relay/internal/typing"
	ws "realtime-relay/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env, cfg.LogLevel, os.Stdout)
	logger.Info("config.loaded", "env", cfg.Env, "addr", cfg.HTTPAddr, "redis", cfg.RedisAddr,
		"typing_expiry", cfg.TypingExpiry, "typing_sweep", cfg.TypingSweepInterval)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Live connections + relay state
	hub := ws.NewHub(logger, cfg.CORSAllow, cfg.SendBuffer)
	reg := registry.New(hub, logger)
	rm := rooms.New(hub, logger)
	tracker := typing.New(rm, logger,
		typing.WithExpiry(cfg.TypingExpiry),
		typing.WithInterval(cfg.TypingSweepInterval),
	)
	go tracker.Run(ctx)

	// Optional redis mirror for the persistence side
	var opts []router.Option
	if cfg.RedisAddr != "" {
		mirror, err := bus.NewRedisMirror(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer mirror.Close()
		// publish off the connections' read loops
		queue := bus.NewQueue(mirror, logger, cfg.MirrorQueue, 2*time.Second)
		go queue.Run(ctx)
		opts = append(opts, router.WithMirror(queue))
	}
	rt := router.New(reg, rm, tracker, logger, opts...)

	// HTTP + WS router
	mw := httpx.NewMiddleware(cfg)
	go mw.Limiter().Run(ctx)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(cfg, logger, mw, hub, rt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown: hijacked websockets are not tracked by srv, close them ourselves
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	hub.Close()

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
