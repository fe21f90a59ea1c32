package app

import (
	"time"

	"github.com/yungbote/coursecatalog-backend/internal/clients/redis"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
	"github.com/yungbote/coursecatalog-backend/internal/utils"
)

type Config struct {
	CatalogBaseURL  string
	CatalogAPIKey   string
	CatalogTimeout  time.Duration
	CatalogPageSize int

	GeneratorURL     string
	GeneratorAPIKey  string
	GeneratorTimeout time.Duration

	SyncBatchSize   int
	SyncConcurrency int
	SyncTxTimeout   time.Duration
	ChoiceCount     int

	WorkerConcurrency int
	WorkerPoll        time.Duration
	JobMaxAttempts    int
	JobRetryDelay     time.Duration
	JobStaleRunning   time.Duration

	RedisAddr    string
	RedisChannel string

	Environment string
	Version     string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		CatalogBaseURL:  utils.GetEnv("CATALOG_BASE_URL", "", log),
		CatalogAPIKey:   utils.GetEnv("CATALOG_API_KEY", "", log),
		CatalogTimeout:  utils.GetEnvAsDuration("CATALOG_TIMEOUT_SECONDS", 60, time.Second, log),
		CatalogPageSize: utils.GetEnvAsInt("CATALOG_PAGE_SIZE", 100, log),

		GeneratorURL:     utils.GetEnv("GENERATOR_URL", "", log),
		GeneratorAPIKey:  utils.GetEnv("GENERATOR_API_KEY", "", log),
		GeneratorTimeout: utils.GetEnvAsDuration("GENERATOR_TIMEOUT_SECONDS", 120, time.Second, log),

		SyncBatchSize:   utils.GetEnvAsInt("SYNC_BATCH_SIZE", 50, log),
		SyncConcurrency: utils.GetEnvAsInt("SYNC_BATCH_CONCURRENCY", 10, log),
		SyncTxTimeout:   utils.GetEnvAsDuration("SYNC_TX_TIMEOUT_MINUTES", 20, time.Minute, log),
		ChoiceCount:     utils.GetEnvAsInt("REQUISITE_CHOICE_COUNT", 3, log),

		WorkerConcurrency: utils.GetEnvAsInt("WORKER_CONCURRENCY", 1, log),
		WorkerPoll:        utils.GetEnvAsDuration("WORKER_POLL_SECONDS", 1, time.Second, log),
		JobMaxAttempts:    utils.GetEnvAsInt("JOB_MAX_ATTEMPTS", 3, log),
		JobRetryDelay:     utils.GetEnvAsDuration("JOB_RETRY_DELAY_SECONDS", 30, time.Second, log),
		JobStaleRunning:   utils.GetEnvAsDuration("JOB_STALE_RUNNING_MINUTES", 30, time.Minute, log),

		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
		RedisChannel: utils.GetEnv("REDIS_CHANNEL", redis.DefaultChannel, log),

		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	}
}
