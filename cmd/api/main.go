package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jwalitptl/healthplus/config"
	"github.com/jwalitptl/healthplus/internal/app"
	"github.com/jwalitptl/healthplus/internal/router"
	"github.com/jwalitptl/healthplus/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("api", pflag.ExitOnError)
	configFile := flags.String("config", "", "path to the config file")
	flags.Int("port", 8080, "listen port")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlag("server.port", flags.Lookup("port")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(v, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Log.ToLoggerConfig()).Named("api")
	if cfg.JWT.Secret == "" {
		log.Fatal(errors.New("jwt.secret is empty"), "refusing to start")
	}
	if cfg.Server.AnonKey == "" {
		log.Warn("server.anon_key is empty; signup and token routes will reject every caller")
	}
	if logger.ParseLevel(cfg.Log.Level) > logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize the key-value table every repository lives in
	ctx := context.Background()
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal(err, "failed to open store", "driver", cfg.Store.Driver)
	}
	defer closeStore()

	r := router.NewBackend(store, cfg, log, router.Options{})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "base_path", cfg.Server.BasePath, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
		return
	}

	log.Info("server exited properly")
}
