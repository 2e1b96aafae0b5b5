package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/config"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/delivery/httpd"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/delivery/ws"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/relay"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/repository"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/service"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/worker"
)

type App struct {
	wsServer      *http.Server
	notifyServer  *http.Server
	logger        zerolog.Logger
	config        *config.Config
	db            *sql.DB
	registry      *relay.Registry
	scannerWorker worker.ScannerWorker
	rabbitMQRepo  repository.RabbitMQRepository
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	registry := relay.NewRegistry(log)

	voterRepo := repository.NewVoterRepository(db, log)
	fingerprintService := service.NewFingerprintService(voterRepo, cfg.Database.QueryTimeout, log)
	broadcastService := service.NewBroadcastService(registry, log)

	wsHandler := ws.NewHandler(registry, fingerprintService, cfg.Relay, log)
	httpHandler := httpd.NewHandler(broadcastService, registry, log)

	// WebSocket surface: the persistent-connection listener plus the
	// operational endpoints. No read/write timeouts here, they would tear
	// down long-lived WebSockets.
	wsRouter := chi.NewRouter()
	wsRouter.Use(middleware.RequestID)
	wsRouter.Use(middleware.RealIP)
	wsRouter.Use(middleware.Recoverer)
	wsRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))
	wsRouter.Get("/ws", wsHandler.HandleWS)
	httpHandler.RegisterRoutes(wsRouter)

	wsServer := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     wsRouter,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	// Notify surface: one-shot submissions from the scanner-control process,
	// reachable without any open WebSocket.
	notifyServer := &http.Server{
		Addr:         cfg.Server.NotifyAddress,
		Handler:      httpHandler.NotifyRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	app := &App{
		wsServer:     wsServer,
		notifyServer: notifyServer,
		logger:       log,
		config:       cfg,
		db:           db,
		registry:     registry,
	}

	if cfg.RabbitMQ.Enabled {
		rabbitMQRepo, err := repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, log)
		if err != nil {
			return nil, err
		}

		if err := rabbitMQRepo.SetupQueue(
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.QueueName,
			cfg.RabbitMQ.RoutingKey,
		); err != nil {
			return nil, err
		}

		app.rabbitMQRepo = rabbitMQRepo
		app.scannerWorker = worker.NewScannerWorker(
			rabbitMQRepo,
			broadcastService,
			cfg.RabbitMQ.QueueName,
			cfg.RabbitMQ.ConsumerTag,
			log,
		)
	}

	return app, nil
}

func (a *App) Run() error {
	if a.scannerWorker != nil {
		if err := a.scannerWorker.Start(context.Background()); err != nil {
			a.logger.Error().Err(err).Msg("Failed to start scanner event consumer")
			return err
		}
	}

	go func() {
		a.logger.Info().Str("address", a.notifyServer.Addr).Msg("Notify trigger listening")
		if err := a.notifyServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("Notify server error")
		}
	}()

	a.logger.Info().Str("address", a.wsServer.Addr).Msg("Starting realtime service")
	if err := a.wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down realtime service...")

	if a.scannerWorker != nil {
		if err := a.scannerWorker.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop scanner event consumer")
		}
	}

	if a.rabbitMQRepo != nil {
		if err := a.rabbitMQRepo.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if err := a.notifyServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown notify server")
	}

	if err := a.wsServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown WebSocket server")
		return err
	}

	a.registry.CloseAll()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	a.logger.Info().Msg("Realtime service stopped")
	return nil
}
