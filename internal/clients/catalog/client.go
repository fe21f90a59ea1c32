// Package catalog fetches raw vendor collections from the upstream catalog source.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/coursecatalog-backend/internal/normalization"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type Collection string

const (
	CollectionCourses       Collection = "courses"
	CollectionCourseSets    Collection = "course_sets"
	CollectionRequisiteSets Collection = "requisite_sets"
	CollectionPrograms      Collection = "programs"
)

var Collections = []Collection{CollectionCourses, CollectionCourseSets, CollectionRequisiteSets, CollectionPrograms}

func ParseCollection(s string) (Collection, error) {
	c := Collection(normalization.ParseInputString(s))
	for _, known := range Collections {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown catalog collection %q", s)
}

const (
	DefaultTimeout  = 60 * time.Second
	DefaultPageSize = 100
)

type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	PageSize int
}

// Client reads paginated JSON array pages. Requests are not retried; retry is
// left to the job queue.
type Client interface {
	FetchPage(ctx context.Context, collection Collection, skip, limit int) ([]map[string]any, error)
	FetchAll(ctx context.Context, collection Collection) ([]map[string]any, error)
}

type client struct {
	log      *logger.Logger
	http     *resty.Client
	pageSize int
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing catalog base url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	hc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		hc.SetHeader("Authorization", "Bearer "+key)
	}
	return &client{
		log:      log.With("client", "CatalogClient"),
		http:     hc,
		pageSize: pageSize,
	}, nil
}

func (c *client) FetchPage(ctx context.Context, collection Collection, skip, limit int) ([]map[string]any, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"skip":  strconv.Itoa(skip),
			"limit": strconv.Itoa(limit),
		}).
		Get("/" + string(collection))
	if err != nil {
		return nil, fmt.Errorf("fetch %s skip=%d: %w", collection, skip, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s skip=%d: status %d", collection, skip, resp.StatusCode())
	}
	var page []map[string]any
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, fmt.Errorf("decode %s page skip=%d: %w", collection, skip, err)
	}
	return page, nil
}

// FetchAll walks pages until one comes back shorter than the page size.
func (c *client) FetchAll(ctx context.Context, collection Collection) ([]map[string]any, error) {
	var out []map[string]any
	for skip := 0; ; skip += c.pageSize {
		page, err := c.FetchPage(ctx, collection, skip, c.pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		c.log.Debug("catalog page fetched", "collection", collection, "skip", skip, "count", len(page))
		if len(page) < c.pageSize {
			break
		}
	}
	return out, nil
}
