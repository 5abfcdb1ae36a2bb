package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"claimdocs-backend/internal/documents"
	"claimdocs-backend/internal/ocr"
	"claimdocs-backend/internal/queue"
	"claimdocs-backend/internal/shared/config"
	"claimdocs-backend/internal/shared/server"
	"claimdocs-backend/internal/shared/storage/db"
	"claimdocs-backend/internal/shared/storage/object"
	localstore "claimdocs-backend/internal/shared/storage/object/local"
	s3store "claimdocs-backend/internal/shared/storage/object/s3"
	"claimdocs-backend/internal/shared/telemetry"
	"claimdocs-backend/internal/validation"
)

// App holds shared dependencies wired from configuration.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Queue            queue.Client
	MemoryQueue      *queue.MemoryClient
	Repo             documents.Repo
	OCREngine        *ocr.Engine
	ValidationEngine *validation.Engine
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildQueue(ctx, app); err != nil {
		return nil, err
	}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		DB:               app.DB,
		DocumentsHandler: app.DocumentsHandler,
	})

	return app, nil
}

// StartWorkers launches in-process queue consumers when the memory queue is
// in use. With SQS the separate worker binary consumes the queue instead.
func (a *App) StartWorkers(ctx context.Context) {
	if a.MemoryQueue == nil {
		return
	}
	a.MemoryQueue.Start(ctx, a.Config.WorkerConcurrency, func(ctx context.Context, msg queue.Message) error {
		if err := a.DocumentsService.ProcessExtraction(ctx, msg.DocumentID); err != nil {
			telemetry.Error("worker.extraction.failed", map[string]any{
				"document_id": msg.DocumentID,
				"request_id":  msg.RequestID,
				"err":         err.Error(),
			})
			return err
		}
		return nil
	})
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, app *App) error {
	if app.Config.QueueType == "sqs" && strings.TrimSpace(app.Config.SQSQueueURL) != "" {
		client, err := queue.NewSQSClient(ctx)
		if err != nil {
			return err
		}
		app.Queue = client
		return nil
	}
	mem := queue.NewMemoryClient(app.Config.QueueBuffer)
	app.Queue = mem
	app.MemoryQueue = mem
	return nil
}

func buildServices(ctx context.Context, app *App) error {
	var repo documents.Repo
	if app.DB != nil {
		repo = &documents.PGRepo{DB: app.DB}
	} else {
		repo = documents.NewMemoryRepo()
	}

	provider, err := buildOCRProvider(ctx, app.Config)
	if err != nil {
		return err
	}

	app.Repo = repo
	app.OCREngine = ocr.NewEngine(
		provider,
		ocr.NewExtractorRegistry(),
		app.Config.ConfidenceThreshold,
		app.Config.ExtractionTimeout,
	)
	app.ValidationEngine = validation.NewEngine(
		app.Config.ConfidenceThreshold,
		validation.NewBusinessRuleRegistry(),
	)
	app.DocumentsService = &documents.Service{
		Repo:      repo,
		Store:     app.Store,
		Queue:     app.Queue,
		OCR:       app.OCREngine,
		Validator: app.ValidationEngine,
		BulkLimit: app.Config.BulkValidateLimit,
	}
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	return nil
}

func buildOCRProvider(ctx context.Context, cfg config.Config) (ocr.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.OCRProvider)) {
	case "", "textract":
		return ocr.NewTextractProvider(ctx)
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCRProvider)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
