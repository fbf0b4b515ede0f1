package main

import (
	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/config"
	"github.com/glowempire/storefront/internal/emulator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	cfg, err := config.LoadEmulator()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("Falling back to info logging")
	}

	backend, err := emulator.New(emulator.Config{
		AnonKey:   cfg.AnonKey,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Users:     map[string]string{cfg.AdminEmail: cfg.AdminPassword},
		Seed:      true,
	})
	if err != nil {
		log.Fatal("Failed to initialize backend: ", err)
	}

	router := backend.Router()
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.WithFields(log.Fields{
		"public_url":  cfg.PublicURL,
		"admin_email": cfg.AdminEmail,
	}).Info("Backend emulator starting on " + cfg.Addr)

	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
