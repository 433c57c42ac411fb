package main

import (
	"NailSegmentation/internal/config"
	"NailSegmentation/pkg/log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := log.NewLogger()

	validator := config.NewValidator()
	env, err := config.LoadEnv(validator)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "Error loading configuration")
	}

	if env.CORSOrigins == "*" && env.AppEnv == "production" {
		log.Warn(log.Fields{"cors_origins": env.CORSOrigins}, "CORS allows every origin in production")
	}

	predictor, err := config.NewPredictor(env, logger)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error(), "backend": env.ModelBackend}, "Error creating model backend")
	}

	fiberApp := config.NewFiber(logger, env)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithEnv(env),
		config.WithValidator(validator),
		config.WithPredictor(predictor),
		config.WithMiddleware(),
		config.WithUtils(),
	)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "Error creating server")
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			log.Fatal(log.Fields{"error": err.Error()}, "Error starting server")
		}
	}()

	log.Info(log.Fields{"port": env.AppPort, "backend": env.ModelBackend}, "Server started successfully")

	sig := <-sigChan
	log.Info(log.Fields{"signal": sig.String()}, "Shutting down server...")

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error(log.Fields{"error": err.Error()}, "Graceful shutdown failed")
		os.Exit(1)
	}

	log.Info(nil, "Server stopped")
}
