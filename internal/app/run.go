package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"weatherhub-server/internal/config"
	"weatherhub-server/internal/db"
	"weatherhub-server/internal/httpapi"
	"weatherhub-server/internal/modules/telemetry"
	"weatherhub-server/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"dbPath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"rollupInterval", cfg.RollupInterval,
	)
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := db.Migrate(dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRow(`SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	mux := httpapi.NewMux(dbConn)
	telemetryService := telemetry.RegisterFeature(mux, dbConn)

	// Attach the handler before Connect so OnConnectHandler can subscribe
	// immediately. The broker may send queued messages right after
	// CONNACK; we must be subscribed before that to receive them.
	var mqttSubscriber *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		mqttSubscriber, err = mqtt.NewSubscriber(cfg, slog.Default())
		if err != nil {
			return err
		}
		telemetry.RegisterMQTT(mqttSubscriber, telemetryService, slog.Default())

		// Short timeout for the initial connect so startup does not block
		// when the broker is down.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = mqttSubscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		slog.Info("mqtt disabled (no broker configured)")
	}

	rollupCtx, rollupCancel := context.WithCancel(ctx)
	defer rollupCancel()
	go telemetryService.RunRollupLoop(rollupCtx, cfg.RollupInterval)

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttSubscriber != nil {
		slog.Info("mqtt disconnecting")
		mqttSubscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
