package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"quickapply-backend/internal/applications"
	"quickapply-backend/internal/jobs"
	"quickapply-backend/internal/queue"
	"quickapply-backend/internal/quickapply"
	"quickapply-backend/internal/reconcile"
	"quickapply-backend/internal/services/health"
	"quickapply-backend/internal/shared/config"
	"quickapply-backend/internal/shared/server"
	"quickapply-backend/internal/shared/server/middleware"
	"quickapply-backend/internal/shared/storage/artifact"
	localstore "quickapply-backend/internal/shared/storage/artifact/local"
	s3store "quickapply-backend/internal/shared/storage/artifact/s3"
	"quickapply-backend/internal/shared/storage/db"
	"quickapply-backend/internal/shared/telemetry"
	"quickapply-backend/internal/summaries"
	"quickapply-backend/internal/tracking"
)

const (
	memoryQueueSize        = 256
	memoryQueueConcurrency = 2
	redisKeyPrefix         = "quickapply:ratelimit:"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  artifact.Store
	Queue  queue.Client
	// MemoryQueue is set when summaries are processed in-process; Start drains it.
	MemoryQueue *queue.MemoryClient
	Redis       *redis.Client

	JobsRepo         jobs.Repo
	ApplicationsRepo applications.Repo

	Applications *applications.Service
	QuickApply   *quickapply.Service
	Tracking     *tracking.Service
	Summaries    *summaries.Service
	Health       *health.Service
}

// Build prepares dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	app, err := BuildCore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.JobsSeedFile != "" {
		if err := seedJobs(ctx, app.JobsRepo, cfg.JobsSeedFile); err != nil {
			app.Close()
			return nil, err
		}
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	if mem, ok := queueClient.(*queue.MemoryClient); ok {
		app.MemoryQueue = mem
	}
	app.Queue = queueClient
	app.QuickApply.Queue = queueClient

	limiter := buildLimiter(ctx, app)

	queueMode := "sqs"
	if app.MemoryQueue != nil {
		queueMode = "memory"
	}
	app.Health = health.NewService(pinger(app.DB), cfg.ArtifactStoreType, queueMode)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		QuickApplyHandler: quickapply.NewHandler(app.QuickApply),
		TrackingHandler:   tracking.NewHandler(app.Tracking),
		AdminHandler:      applications.NewHandler(app.Applications, app.JobsRepo),
		Health:            app.Health,
		Limiter:           limiter,
	})
	return app, nil
}

// BuildCore wires storage, repositories and services without HTTP or queue
// concerns. The worker and the CLI use it directly.
func BuildCore(ctx context.Context, cfg config.Config) (*App, error) {
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store}
	buildServices(app)
	return app, nil
}

// Start launches background work owned by the API process. It returns immediately.
func (a *App) Start(ctx context.Context) {
	if a.MemoryQueue != nil && a.Summaries != nil {
		go a.MemoryQueue.Run(ctx, a.Summaries, memoryQueueConcurrency)
	}
}

// Sweeper returns an orphan sweeper over the app's store and records.
func (a *App) Sweeper(dryRun bool) *reconcile.Sweeper {
	return &reconcile.Sweeper{
		Store:  a.Store,
		Keys:   a.Applications,
		Grace:  a.Config.OrphanGrace,
		DryRun: dryRun,
	}
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.WithPool(db.DefaultServerOptions(), cfg.DB))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (artifact.Store, error) {
	switch cfg.ArtifactStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, s3store.Options{
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			KMSKeyID:      cfg.SSEKMSKeyID,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		return localstore.New(cfg.UploadsDir, cfg.PublicBaseURL+cfg.PublicUploadsPath), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return queue.NewMemoryClient(memoryQueueSize), nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
}

// buildLimiter returns a Redis limiter when REDIS_URL is usable, otherwise nil
// so the router falls back to its in-process token bucket.
func buildLimiter(ctx context.Context, app *App) middleware.Limiter {
	if strings.TrimSpace(app.Config.RedisURL) == "" {
		return nil
	}
	opts, err := redis.ParseURL(app.Config.RedisURL)
	if err != nil {
		telemetry.Warn("bootstrap.redis_invalid", map[string]any{"error": err})
		return nil
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err})
		_ = client.Close()
		return nil
	}
	app.Redis = client
	return middleware.NewRedisLimiter(client, redisKeyPrefix)
}

func buildServices(app *App) {
	if app.DB != nil {
		app.JobsRepo = &jobs.PGRepo{DB: app.DB}
		app.ApplicationsRepo = &applications.PGRepo{DB: app.DB}
	} else {
		app.JobsRepo = jobs.NewMemoryRepo()
		app.ApplicationsRepo = applications.NewMemoryRepo()
	}

	app.Applications = &applications.Service{Repo: app.ApplicationsRepo}
	app.QuickApply = &quickapply.Service{
		Jobs:         app.JobsRepo,
		Store:        app.Store,
		Applications: app.Applications,
	}
	app.Tracking = &tracking.Service{
		Applications: app.Applications,
		Jobs:         app.JobsRepo,
		Store:        app.Store,
	}
	app.Summaries = &summaries.Service{
		Applications: app.Applications,
		Jobs:         app.JobsRepo,
		Store:        app.Store,
	}
}

func seedJobs(ctx context.Context, repo jobs.Repo, path string) error {
	list, err := jobs.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("load jobs seed: %w", err)
	}
	n, err := jobs.Seed(ctx, repo, list)
	if err != nil {
		return fmt.Errorf("seed jobs: %w", err)
	}
	telemetry.Info("bootstrap.jobs_seeded", map[string]any{"count": n, "file": path})
	return nil
}

// pinger avoids storing a typed nil *sql.DB in the health interface.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
