package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"rugby-coach/internal/config"
	"rugby-coach/internal/database"
	"rugby-coach/internal/dataset"
	"rugby-coach/internal/game"
	"rugby-coach/internal/optimizer"
	"rugby-coach/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := cfg.NewLogger()
	log := logrus.NewEntry(logger)
	log.Info("Starting coach server...")

	data, err := dataset.Load(cfg.DataDir)
	if err != nil {
		log.WithError(err).WithField("dir", cfg.DataDir).Fatal("Cannot load data")
	}
	log.WithFields(logrus.Fields{
		"players":   data.Players.Len(),
		"stints":    len(data.Stints),
		"countries": len(data.Players.Countries()),
	}).Info("Data loaded")

	store, err := database.Open(cfg.DBDriver, cfg.DBDSN, cfg.MongoDatabase, log.WithField("component", "database"))
	if err != nil {
		log.WithError(err).WithField("driver", cfg.DBDriver).Fatal("Cannot open database")
	}
	defer store.Close()

	opt := optimizer.New(log.WithField("component", "optimizer"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(game.Options{
		Data:          data,
		Optimizer:     opt,
		Recorder:      store,
		DisabilityCap: cfg.DisabilityCap,
		LineupSize:    cfg.LineupSize,
	}, log.WithField("component", "hub"))
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})

	api := &server.API{
		Data:          data,
		Optimizer:     opt,
		Store:         store,
		DisabilityCap: cfg.DisabilityCap,
		LineupSize:    cfg.LineupSize,
		Log:           log.WithField("component", "api"),
	}
	api.HandleRoutes(mux)

	fs := http.FileServer(http.Dir(cfg.StaticDir))
	mux.Handle("/", fs)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.ListenAddr).Info("Listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("Server failed")
	}
	log.Info("Server stopped")
}
