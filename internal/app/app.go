package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/voicememo/server/internal/ai"
	"github.com/voicememo/server/internal/config"
	"github.com/voicememo/server/internal/db"
	"github.com/voicememo/server/internal/middleware"
	"github.com/voicememo/server/internal/repository"
	"github.com/voicememo/server/internal/service"
	"github.com/voicememo/server/internal/storage"
	"github.com/voicememo/server/internal/worker"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Storage          storage.Storage
	Pool             *worker.Pool
	Scheduler        *worker.Scheduler
	AuthLimiter      *middleware.RateLimiter
	AuthService      *service.AuthService
	UserService      *service.UserService
	RecordingService *service.RecordingService
	Processor        *service.Processor
	Sweeper          *service.Sweeper

	cancel context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Storage
	blobs, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Transcription and summarization providers
	transcriber, summarizer, err := ai.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize ai providers: %v", err)
	}

	return Build(cfg, database, blobs, transcriber, summarizer)
}

// Build wires repositories, services and background workers on top of ready infrastructure.
// Tests call it with a temp database and fake providers.
func Build(
	cfg *config.Config,
	database *sqlx.DB,
	blobs storage.Storage,
	transcriber ai.Transcriber,
	summarizer ai.Summarizer,
) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Repositories
	userRepository := repository.NewUserRepository(database)
	recordingRepository := repository.NewRecordingRepository(database)

	// Background workers
	pool := worker.NewPool(cfg.ProcessingConcurrency)
	scheduler := worker.NewScheduler(time.UTC)

	// Services
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepository, cfg.UserCacheTTL)
	processor := service.NewProcessor(
		recordingRepository,
		blobs,
		transcriber,
		summarizer,
		pool,
		cfg.ProcessingCallTimeout,
	)
	recordingService := service.NewRecordingService(
		recordingRepository,
		blobs,
		processor,
		cfg.UploadMaxBytes,
		cfg.S3PresignExpiry,
	)
	sweeper := service.NewSweeper(recordingRepository, cfg.ProcessingStaleAfter)

	err := scheduler.Add("sweep stale recordings", cfg.ProcessingSweepSchedule, func(ctx context.Context) error {
		_, err := sweeper.Sweep(ctx)
		return err
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule sweeper: %v", err)
	}

	return &App{
		Cfg:              cfg,
		DB:               database,
		Storage:          blobs,
		Pool:             pool,
		Scheduler:        scheduler,
		AuthLimiter:      middleware.NewRateLimiter(ctx, int(cfg.AuthRateLimit), cfg.AuthRateWindow),
		AuthService:      authService,
		UserService:      userService,
		RecordingService: recordingService,
		Processor:        processor,
		Sweeper:          sweeper,
		cancel:           cancel,
	}, nil
}

// Start runs the scheduled jobs
func (a *App) Start() {
	a.Scheduler.Start()
}

// Close stops the scheduler, drains the background pool until ctx is done and closes the database.
// Jobs still running when ctx expires are cancelled; the sweeper fails their recordings on a later run.
func (a *App) Close(ctx context.Context) error {
	a.cancel()
	a.Scheduler.Stop(ctx)

	var errs []error
	err := a.Pool.Shutdown(ctx)
	if err != nil {
		slog.Warn("background jobs did not finish before shutdown", "error", err)
		errs = append(errs, err)
	}

	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}

	return errors.Join(errs...)
}
