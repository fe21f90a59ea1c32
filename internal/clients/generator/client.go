// Package generator calls the text-to-json-logic generation service.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

const DefaultTimeout = 120 * time.Second

type Request struct {
	Text          string `json:"text"`
	RequisiteType string `json:"requisite_type"`
	Department    string `json:"department"`
	Faculty       string `json:"faculty"`
	N             int    `json:"n"`
}

type response struct {
	Choices []json.RawMessage `json:"choices"`
}

// Generator returns n cleaned candidate trees for one requisite text.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]any, error)
}

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	http *resty.Client
	url  string
}

func NewClient(log *logger.Logger, cfg Config) (Generator, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("missing generator url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		hc.SetHeader("Authorization", "Bearer "+key)
	}
	return &client{
		log:  log.With("client", "GeneratorClient"),
		http: hc,
		url:  url,
	}, nil
}

func (c *client) Generate(ctx context.Context, req Request) ([]any, error) {
	if req.N <= 0 {
		req.N = 1
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("generate choices: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("generate choices: status %d", resp.StatusCode())
	}
	var out response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode generator response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("generator returned no choices")
	}

	candidates := make([]any, 0, len(out.Choices))
	for i, rawChoice := range out.Choices {
		text := string(rawChoice)
		var s string
		if err := json.Unmarshal(rawChoice, &s); err == nil {
			text = s
		}
		tree, err := Clean(text)
		if err != nil {
			return nil, fmt.Errorf("clean choice %d: %w", i, err)
		}
		candidates = append(candidates, tree)
	}
	c.log.Debug("generated choices", "type", req.RequisiteType, "count", len(candidates))
	return candidates, nil
}
