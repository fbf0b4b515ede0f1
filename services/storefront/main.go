package main

import (
	"context"

	"github.com/glowempire/storefront/internal/api"
	"github.com/glowempire/storefront/internal/config"
	"github.com/glowempire/storefront/internal/localstore"
	"github.com/glowempire/storefront/internal/orders"
	"github.com/glowempire/storefront/internal/remote"
	"github.com/glowempire/storefront/internal/store"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("Falling back to info logging")
	}

	ctx := context.Background()

	local, closeLocal, err := localstore.Open(ctx, localstore.Options{
		Backend:     cfg.StateBackend,
		Dir:         cfg.StateDir,
		RedisAddr:   cfg.RedisAddr,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		log.Fatal("Failed to open local state: ", err)
	}
	defer closeLocal()

	client := remote.NewSupabaseClient(remote.Config{
		BaseURL:       cfg.BackendURL,
		AnonKey:       cfg.AnonKey,
		Bucket:        cfg.Bucket,
		Timeout:       cfg.RemoteTimeout,
		UploadTimeout: cfg.UploadTimeout,
		Sessions:      local,
	})
	defer client.Close()

	st := store.New(ctx, client, local)
	defer st.Close()

	router := api.NewRouter(st, orders.NewManager(client, st), api.Options{
		ServiceName:    "storefront",
		AllowedOrigins: cfg.AllowedOrigins,
		CircuitStatus:  client.CircuitStatus,
	})

	log.WithFields(log.Fields{
		"backend_url":   cfg.BackendURL,
		"state_backend": cfg.StateBackend,
		"addr":          cfg.HTTPAddr,
	}).Info("Storefront starting")

	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
