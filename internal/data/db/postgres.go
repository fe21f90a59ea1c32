package db

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
	"github.com/yungbote/coursecatalog-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
	postgresName := utils.GetEnv("POSTGRES_NAME", "coursecatalog", logg)
	maxOpen := utils.GetEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 20, logg)

	// DATABASE_URL wins over the discrete POSTGRES_* settings.
	dsn := utils.GetEnv("DATABASE_URL", "", logg)
	if dsn == "" {
		dsn = (&url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(utils.GetEnv("POSTGRES_USER", "postgres", logg), utils.GetEnv("POSTGRES_PASSWORD", "", logg)),
			Host:     net.JoinHostPort(postgresHost, utils.GetEnv("POSTGRES_PORT", "5432", logg)),
			Path:     "/" + postgresName,
			RawQuery: "sslmode=" + url.QueryEscape(utils.GetEnv("POSTGRES_SSLMODE", "disable", logg)),
		}).String()
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access Postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	serviceLog.Info("Connected to Postgres", "host", postgresHost, "database", postgresName)
	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
