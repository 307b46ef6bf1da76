package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/pathforge-backend/internal/data/db"
	"github.com/yungbote/pathforge-backend/internal/http"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/platform/envutil"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *http.Server

	pg           *db.PostgresService
	shutdownOTel func(context.Context) error
	cancel       context.CancelFunc
}

// New wires the full service graph. Call Close when done.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.Service,
		Environment: cfg.Env,
		Version:     cfg.Version,
	})
	var metrics *observability.Metrics
	if observability.Enabled() {
		metrics = observability.Init(log)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		_ = shutdownOTel(ctx)
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if envutil.Bool("AUTO_MIGRATE", true) {
		if err := db.AutoMigrateAll(pg.DB(), cfg.EmbeddingDim); err != nil {
			_ = pg.Close()
			_ = shutdownOTel(ctx)
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}
	theDB := pg.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = pg.Close()
		_ = shutdownOTel(ctx)
		return nil, err
	}

	reposet := wireRepos(theDB, log, cfg.EmbeddingDim)
	index, err := resolveCourseIndex(log, cfg, reposet.CourseEmbedding)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		_ = shutdownOTel(ctx)
		return nil, err
	}

	ssehub := realtime.NewSSEHub(log)
	serviceset := wireServices(theDB, log, cfg, clients, reposet, index, ssehub)
	handlerset := wireHandlers(log, serviceset, ssehub)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       ssehub,
		Server:       server,
		pg:           pg,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Start launches background work: the redis forwarder that feeds bus messages into the local hub.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start sse forwarder: %w", err)
		}
		a.Log.Info("sse forwarder started", "channel", a.Cfg.RedisChannel)
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	if err := a.Start(); err != nil {
		return err
	}
	return a.Server.Serve(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("postgres close failed", "error", err)
		}
	}
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}

// Migrate enables the extensions and creates every table and index.
func Migrate(log *logger.Logger, cfg Config) error {
	pg, err := db.NewPostgresService(log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer pg.Close()
	if err := db.AutoMigrateAll(pg.DB(), cfg.EmbeddingDim); err != nil {
		return fmt.Errorf("postgres automigrate: %w", err)
	}
	log.Info("migrations applied", "embedding_dim", cfg.EmbeddingDim)
	return nil
}
