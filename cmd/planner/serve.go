package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"work-allocation/internal/events"
	"work-allocation/internal/handler"
	"work-allocation/internal/metrics"
	"work-allocation/internal/realtime"
	"work-allocation/internal/service"
	"work-allocation/pkg/mqtt"
	"work-allocation/pkg/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the real-time hub",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		// Закрываем соединение с БД
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("Error closing database")
		}
	}()

	var (
		recorder       *metrics.Recorder
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if recorder, err = metrics.NewRecorder(reg); err != nil {
			return err
		}
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	hub := realtime.NewHub(logger, realtime.WithCheckOrigin(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == cfg.FrontendURL
	}))
	defer hub.Close()

	publishers := []events.Publisher{hub}

	if cfg.MQTT.Enabled() {
		bridge, err := mqtt.Connect(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		}, logger)
		if err != nil {
			// Мост необязателен, сервер работает и без брокера
			logger.WithError(err).Warn("MQTT bridge disabled")
		} else {
			defer bridge.Close()
			publishers = append(publishers, bridge)
		}
	}

	if cfg.Telegram.Enabled() {
		client, err := telegram.NewClient(cfg.Telegram.Token, false)
		if err != nil {
			logger.WithError(err).Warn("Telegram notifications disabled")
		} else {
			logger.Infof("Authorized on account %s", client.Bot.Self.UserName)
			notifier := telegram.NewNotifier(client, cfg.Telegram.ChatID, logger)
			go notifier.Run(ctx)
			publishers = append(publishers, notifier)
		}
	}

	publisher := metrics.InstrumentPublisher(events.NewMultiPublisher(publishers...), recorder)
	opts := []service.Option{
		service.WithRoom(cfg.EventRoom),
		service.WithMetrics(recorder),
		service.WithLogger(logger),
	}

	h := handler.NewHandler(
		service.NewReconciler(store, publisher, opts...),
		service.NewWorkerService(store, publisher, opts...),
		service.NewPostService(store, publisher, opts...),
		service.NewAuthService(store, cfg.JWTSecret, opts...),
		store,
		handler.WithFrontendURL(cfg.FrontendURL),
		handler.WithRealtime(hub),
		handler.WithMetrics(metricsHandler),
		handler.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Server started. Press Ctrl+C to stop.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Server shutdown interrupted")
	}

	logger.Info("Server stopped gracefully")
	return nil
}
