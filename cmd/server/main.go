package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/config"
	"github.com/mamadbah2/rigcost/internal/repository"
	"github.com/mamadbah2/rigcost/internal/repository/attachments"
	"github.com/mamadbah2/rigcost/internal/repository/flatfile"
	"github.com/mamadbah2/rigcost/internal/repository/mongodb"
	"github.com/mamadbah2/rigcost/internal/repository/sheets"
	"github.com/mamadbah2/rigcost/internal/repository/sqlite"
	"github.com/mamadbah2/rigcost/internal/scheduler"
	"github.com/mamadbah2/rigcost/internal/server/handlers"
	"github.com/mamadbah2/rigcost/internal/server/router"
	publishingsvc "github.com/mamadbah2/rigcost/internal/service/publishing"
	reportingsvc "github.com/mamadbah2/rigcost/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/rigcost/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/rigcost/pkg/clients/whatsapp"
	"github.com/mamadbah2/rigcost/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	records, estimates, closeStore := openStores(cfg.Storage, baseLogger)
	defer closeStore()

	files := openAttachments(ctx, cfg.Attachments, baseLogger)

	reportingSvc := reportingsvc.NewService(records, estimates, files, baseLogger.Named("svc.reporting"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	} else {
		baseLogger.Info("google sheets mirror disabled")
	}

	var snapshots mongodb.SnapshotRepository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		snapshots = mongoRepo
	} else {
		baseLogger.Info("cost snapshots disabled")
	}

	var messenger whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messenger = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, baseLogger.Named("svc.whatsapp"))
	} else {
		baseLogger.Info("whatsapp notifications disabled")
	}

	publisher := publishingsvc.NewService(reportingSvc, sheetsRepo, snapshots, messenger, baseLogger.Named("svc.publishing"))

	engine := router.New(router.Handlers{
		Entries: handlers.NewEntryHandler(reportingSvc, cfg.Attachments.MaxUploadBytes(), baseLogger.Named("handlers.entries")),
		Reports: handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
		Publish: handlers.NewPublishHandler(publisher, baseLogger.Named("handlers.publish")),
	}, router.Options{
		InputPassword:      cfg.Auth.InputPassword,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MaxMultipartMemory: cfg.Attachments.MaxUploadBytes(),
	}, baseLogger.Named("router"))

	if publisher.Enabled() {
		sched := scheduler.NewScheduler(cfg.Reporting, publisher, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver), zap.String("attachments", cfg.Attachments.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStores returns the report log and estimate stores for the configured driver.
func openStores(cfg config.StorageConfig, log *zap.Logger) (repository.RecordStore, repository.EstimateStore, func()) {
	switch cfg.Driver {
	case config.StorageSQLite:
		store, err := sqlite.New(cfg.SQLitePath, log.Named("repo.sqlite"))
		if err != nil {
			log.Fatal("failed to open sqlite store", zap.Error(err))
		}
		if err := store.Migrate(context.Background()); err != nil {
			log.Fatal("failed to migrate sqlite store", zap.Error(err))
		}
		return store, store, func() {
			if err := store.Close(); err != nil {
				log.Error("failed to close sqlite store", zap.Error(err))
			}
		}
	default:
		records, err := flatfile.NewRecordStore(cfg.ReportLogPath, log.Named("repo.records"))
		if err != nil {
			log.Fatal("failed to prepare report log directory", zap.Error(err))
		}
		estimates, err := flatfile.NewEstimateStore(cfg.EstimatePath, log.Named("repo.estimates"))
		if err != nil {
			log.Fatal("failed to open estimate file", zap.Error(err))
		}
		return records, estimates, func() {}
	}
}

func openAttachments(ctx context.Context, cfg config.AttachmentConfig, log *zap.Logger) repository.AttachmentStore {
	if cfg.Backend == config.AttachmentsMinIO {
		store, err := attachments.NewMinIOStore(ctx, attachments.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		}, log.Named("repo.attachments"))
		if err != nil {
			log.Fatal("failed to connect attachment bucket", zap.Error(err))
		}
		return store
	}

	store, err := attachments.NewLocalStore(cfg.UploadDir, log.Named("repo.attachments"))
	if err != nil {
		log.Fatal("failed to open upload directory", zap.Error(err))
	}
	return store
}
