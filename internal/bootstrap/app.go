package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"docintake-backend/internal/audit"
	"docintake-backend/internal/classify"
	"docintake-backend/internal/extract"
	"docintake-backend/internal/failures"
	"docintake-backend/internal/files"
	"docintake-backend/internal/ingest"
	"docintake-backend/internal/notify"
	"docintake-backend/internal/scheduled"
	"docintake-backend/internal/shared/config"
	"docintake-backend/internal/shared/server"
	"docintake-backend/internal/shared/storage/db"
	"docintake-backend/internal/shared/storage/object"
	localstore "docintake-backend/internal/shared/storage/object/local"
	s3store "docintake-backend/internal/shared/storage/object/s3"
	"docintake-backend/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Extractor       extract.TextExtractor
	Classifier      *classify.Classifier
	Pipeline        *ingest.Pipeline
	Scheduler       *scheduled.Scheduler
	AuditService    *audit.Service
	FailureService  *failures.Service
	UploadHandler   *uploads.Handler
	FileHandler     *files.Handler
	FailureHandler  *failures.Handler
	AuditHandler    *audit.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	extractor := buildExtractor(cfg)
	corpus := classify.LoadCorpus(ctx, cfg.CorpusDir, cfg.Categories, extractor)
	classifier := classify.NewClassifier(corpus)

	app := &App{
		Config:     cfg,
		DB:         sqlDB,
		Store:      store,
		Extractor:  extractor,
		Classifier: classifier,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		UploadHandler:  app.UploadHandler,
		FileHandler:    app.FileHandler,
		FailureHandler: app.FailureHandler,
		AuditHandler:   app.AuditHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildExtractor(cfg config.Config) extract.TextExtractor {
	if cmd := strings.TrimSpace(cfg.ExtractorCommand); cmd != "" {
		parts := strings.Fields(cmd)
		return &extract.CommandExtractor{Command: parts[0], Args: parts[1:]}
	}
	return &extract.PDFExtractor{}
}

func buildServices(app *App) {
	var auditRepo audit.Repo
	var failureRepo failures.Repo
	var queueRepo scheduled.Repo

	if app.DB != nil {
		auditRepo = &audit.PGRepo{DB: app.DB}
		failureRepo = &failures.PGRepo{DB: app.DB}
		queueRepo = &scheduled.PGRepo{DB: app.DB}
	} else {
		auditRepo = audit.NewMemoryRepo()
		failureRepo = failures.NewMemoryRepo()
		queueRepo = scheduled.NewMemoryRepo()
	}

	auditSvc := &audit.Service{Repo: auditRepo}
	notifier := notify.LogNotifier{}

	failureSvc := &failures.Service{
		Repo:  failureRepo,
		Store: app.Store,
	}

	pipeline := &ingest.Pipeline{
		Store:      app.Store,
		Extractor:  app.Extractor,
		Classifier: app.Classifier,
		Failures:   failureSvc,
		Audit:      auditSvc,
		Notifier:   notifier,
	}
	// Retry re-runs the pipeline for staged payloads.
	failureSvc.Pipeline = pipeline

	app.AuditService = auditSvc
	app.FailureService = failureSvc
	app.Pipeline = pipeline
	app.Scheduler = &scheduled.Scheduler{
		Repo:     queueRepo,
		Pipeline: pipeline,
		Interval: app.Config.SchedulerInterval,
	}

	app.UploadHandler = uploads.NewHandler(pipeline, queueRepo)
	app.FileHandler = files.NewHandler(app.Store, auditSvc)
	app.FailureHandler = failures.NewHandler(failureSvc)
	app.AuditHandler = audit.NewHandler(auditSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
