package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Osdague92/fullstack-docker/domain"
	"github.com/Osdague92/fullstack-docker/pkg/api"
	"github.com/Osdague92/fullstack-docker/pkg/config"
	"github.com/Osdague92/fullstack-docker/pkg/logging"
	"github.com/Osdague92/fullstack-docker/pkg/metrics"
	"github.com/Osdague92/fullstack-docker/pkg/repo/mongo"
	"github.com/rs/zerolog"
)

const connectTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv() // загружаем переменные окружения
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, "itemsrv", cfg.LogLevel, cfg.DevMode)
	mainLog := logger.With().Str("component", "main").Logger()

	// без БД не стартуем, повторных попыток нет
	cctx, ccancel := context.WithTimeout(context.Background(), connectTimeout)
	db, err := mongo.New(cctx, cfg.MongoURI, cfg.Database, cfg.Collection)
	ccancel()
	if err != nil {
		mainLog.Error().Err(err).Msg("failed to connect to MongoDB")
		return err
	}
	defer db.Close()
	mainLog.Info().Str("database", cfg.Database).Str("collection", cfg.Collection).Msg("connected to MongoDB")

	var wg sync.WaitGroup
	wg.Add(1)

	servers := []*http.Server{
		startRestServer(db, logger, cfg, &wg),
	}

	// логика закрытия сервера
	cancelation(mainLog, servers)

	wg.Wait()

	return nil
}

// cancelation отслеживает сигналы прерывания и,
// если они получены, "мягко" гасит серверы.
func cancelation(logger zerolog.Logger, servers []*http.Server) {
	// ловим сигналы прерывания, типа CTRL-C
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-stop // получили сигнал
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// закрываем серверы
		for i := range servers {
			if err := servers[i].Shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}
		}
	}()
}

// startRestServer запускает сервер REST API.
func startRestServer(db domain.Repository, logger zerolog.Logger, cfg config.Server, wg *sync.WaitGroup) *http.Server {
	opts := []api.Option{api.WithCORSOrigin(cfg.CORSOrigin)}
	if cfg.MetricsEnabled {
		opts = append(opts, api.WithMetrics(metrics.New()))
	}

	// REST API
	api := api.New(db, logger, opts...)

	// конфигурируем сервер
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Router(),
		IdleTimeout:       3 * time.Minute,
		ReadHeaderTimeout: time.Minute,
	}

	go func() {
		defer wg.Done()
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
		logger.Info().Msg("server is shut down")
	}()
	return srv
}
