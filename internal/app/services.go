package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/catalog_import"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/catalog_sync"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/requisite_choices"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/requisites_harvest"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/requisites_propagate"
	jobruntime "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/worker"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
	"github.com/yungbote/coursecatalog-backend/internal/services"
)

type Services struct {
	Requisites  requisites.Usecases
	JobNotifier services.JobNotifier
	Jobs        services.JobService
	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	notifiers := []services.JobNotifier{services.NewLogJobNotifier(log)}
	if clients.JobEvents != nil {
		notifiers = append(notifiers, services.NewRedisJobNotifier(log, clients.JobEvents))
	}
	jobNotifier := services.NewMultiJobNotifier(notifiers...)
	jobService := services.NewJobService(log, repos.JobRun, jobNotifier)

	uc := requisites.New(requisites.UsecasesDeps{
		DB:            db,
		Log:           log,
		Requisites:    repos.Requisite,
		Courses:       repos.Course,
		CourseSets:    repos.CourseSet,
		RequisiteSets: repos.RequisiteSet,
		Programs:      repos.Program,
		Catalog:       clients.Catalog,
		Generator:     clients.Generator,
		BatchSize:     cfg.SyncBatchSize,
		Concurrency:   cfg.SyncConcurrency,
		TxTimeout:     cfg.SyncTxTimeout,
		ChoiceCount:   cfg.ChoiceCount,
	})

	registry := jobruntime.NewRegistry()
	if err := registry.Register(
		catalog_import.New(log, uc),
		requisites_harvest.New(log, uc),
		requisites_propagate.New(log, uc),
		requisite_choices.New(log, uc),
		catalog_sync.New(log, uc),
	); err != nil {
		return Services{}, fmt.Errorf("register job handlers: %w", err)
	}

	w := worker.NewWorker(db, log, repos.JobRun, registry, jobNotifier, worker.Config{
		Concurrency:  cfg.WorkerConcurrency,
		PollInterval: cfg.WorkerPoll,
		MaxAttempts:  cfg.JobMaxAttempts,
		RetryDelay:   cfg.JobRetryDelay,
		StaleRunning: cfg.JobStaleRunning,
	})

	return Services{
		Requisites:  uc,
		JobNotifier: jobNotifier,
		Jobs:        jobService,
		JobRegistry: registry,
		JobWorker:   w,
	}, nil
}
