package main

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/jraweb/jraweb/cache"
	"github.com/jraweb/jraweb/config"
	"github.com/jraweb/jraweb/db"
	"github.com/jraweb/jraweb/handlers"
	applog "github.com/jraweb/jraweb/logger"
	"github.com/jraweb/jraweb/repository"
)

//go:embed all:build/*
var embeddedFiles embed.FS

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	c := openCache(cfg, logger)
	defer c.Close()

	repos := repository.New(bdb, repository.Options{BcryptCost: cfg.BcryptCost})
	h := handlers.New(repos, handlers.Options{
		Cache:             c,
		CacheTTL:          cfg.CacheTTL,
		OtherAchievements: cfg.OtherAchievements,
		Entry:             cfg.Entry,
		JWTKey:            cfg.JWTKey(),
		Logger:            logger,
	})

	// Strip the "build/" prefix so URLs work correctly
	site, err := fs.Sub(embeddedFiles, "build")
	if err != nil {
		logger.Fatal("open embedded build fs failed", zap.Error(err))
	}
	e := newServer(h, site, logger)

	if cfg.Debug || len(cfg.TLSDomains) == 0 {
		logger.Info("starting server", zap.Bool("debug", cfg.Debug), zap.String("addr", cfg.Port), zap.String("driver", cfg.Driver))
		if err := e.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	logger.Info("starting tls server", zap.Strings("domains", cfg.TLSDomains))
	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}

// openCache prefers Redis when configured and falls back to process memory.
func openCache(cfg *config.Config, logger *zap.Logger) cache.Cache {
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cache.RedisPrefix)
		if err == nil {
			logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
			return r
		}
		logger.Warn("redis unavailable, using memory cache", zap.Error(err))
	}
	return cache.NewMemory(cfg.CacheTTL)
}
