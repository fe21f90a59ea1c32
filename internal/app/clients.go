package app

import (
	"fmt"
	"strings"

	catalogclient "github.com/yungbote/coursecatalog-backend/internal/clients/catalog"
	"github.com/yungbote/coursecatalog-backend/internal/clients/generator"
	"github.com/yungbote/coursecatalog-backend/internal/clients/redis"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

// Clients holds upstream integrations. Each is nil when its address is unset.
type Clients struct {
	Catalog   catalogclient.Client
	Generator generator.Generator
	JobEvents redis.JobEvents
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	if strings.TrimSpace(cfg.CatalogBaseURL) != "" {
		c, err := catalogclient.NewClient(log, catalogclient.Config{
			BaseURL:  cfg.CatalogBaseURL,
			APIKey:   cfg.CatalogAPIKey,
			Timeout:  cfg.CatalogTimeout,
			PageSize: cfg.CatalogPageSize,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init catalog client: %w", err)
		}
		out.Catalog = c
	} else {
		log.Warn("CATALOG_BASE_URL not set; catalog imports disabled")
	}

	if strings.TrimSpace(cfg.GeneratorURL) != "" {
		g, err := generator.NewClient(log, generator.Config{
			URL:     cfg.GeneratorURL,
			APIKey:  cfg.GeneratorAPIKey,
			Timeout: cfg.GeneratorTimeout,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init generator client: %w", err)
		}
		out.Generator = g
	}

	if strings.TrimSpace(cfg.RedisAddr) != "" {
		ev, err := redis.NewJobEvents(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis job events: %w", err)
		}
		out.JobEvents = ev
	}
	return out, nil
}

func (c Clients) Close() {
	if c.JobEvents != nil {
		_ = c.JobEvents.Close()
	}
}
