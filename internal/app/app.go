package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/db"
	"github.com/yungbote/meetingdesk-backend/internal/http"
	"github.com/yungbote/meetingdesk-backend/internal/observability"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/realtime"
	"github.com/yungbote/meetingdesk-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Hub      *realtime.Hub
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		Enabled:     cfg.Telemetry.OtelEnabled,
		ServiceName: cfg.Telemetry.OtelServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.OtelEndpoint,
		Headers:     observability.ParseHeaders(cfg.Telemetry.OtelHeaders),
		Insecure:    cfg.Telemetry.OtelInsecure,
		SampleRatio: cfg.Telemetry.OtelSampleRatio,
	})
	metrics := observability.Init(log, cfg.Telemetry.MetricsEnabled)

	dbService, err := db.Open(log, cfg.dbConfig())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	hub := realtime.NewHub(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(theDB, log, cfg, serviceset, hub)
	middleware := wireMiddleware(log, cfg, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)
	server.RegisterOnShutdown(hub.CloseAll)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Hub:          hub,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Start connects the event bus to the SSE hub and starts the metric
// collectors.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Clients.Bus.Subscribe(ctx, a.Hub.Broadcast); err != nil {
		return fmt.Errorf("subscribe artefact events: %w", err)
	}
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 0)
	a.Metrics.StartRedisCollector(ctx, a.Log, bus.RedisClient(a.Clients.Bus), 0)
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr, a.Cfg.shutdownTimeout())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Transcription != nil {
		a.Services.Transcription.Drain()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
