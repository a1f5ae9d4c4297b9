// Package collect gathers raw evidence over HTTP: fetch, robots.txt
// compliance, per-host throttling, and HTML-to-text reduction. The pipeline
// itself only consumes the resulting evidence store; collection stays at its
// edge.
package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
	"github.com/avolkhin/fincascade/internal/worker"
)

// Collector fetches evidence pages politely: robots.txt checked first, one
// per-host rate limit, bounded body size.
type Collector struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// NewCollector creates a collector from configuration.
func NewCollector(cfg model.CollectorConfig, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	var robots *RobotsChecker
	if cfg.RespectRobots {
		robots = NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}

	return &Collector{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    robots,
		limiter:   worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:    logger,
	}
}

// Collect fetches each URL into an evidence document of the given source
// category. URLs disallowed by robots.txt or failing to fetch are skipped
// with a log line; collection returns whatever evidence it could gather and
// errors only when nothing was collected at all.
func (c *Collector) Collect(ctx context.Context, category string, urls []string) (*evidence.Store, error) {
	var docs []evidence.Document
	for _, rawURL := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := c.fetch(ctx, category, rawURL)
		if err != nil {
			c.logger.Warn("skipping evidence source",
				zap.String("url", rawURL),
				zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 && len(urls) > 0 {
		return nil, fmt.Errorf("no evidence collected from %d sources", len(urls))
	}
	return evidence.NewStore(docs), nil
}

func (c *Collector) fetch(ctx context.Context, category, rawURL string) (evidence.Document, error) {
	if c.robots != nil {
		allowed, crawlDelay, err := c.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return evidence.Document{}, err
		}
		if !allowed {
			return evidence.Document{}, fmt.Errorf("disallowed by robots.txt")
		}
		if err := c.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return evidence.Document{}, err
		}
	} else if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return evidence.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return evidence.Document{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return evidence.Document{}, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return evidence.Document{}, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return evidence.Document{}, fmt.Errorf("read body: %w", err)
	}

	text := ExtractText(string(body))
	if text == "" {
		return evidence.Document{}, fmt.Errorf("page contains no text")
	}

	return evidence.Document{
		ID:       documentID(resp.Request.URL),
		Content:  text,
		Category: category,
		Origin:   resp.Request.URL.String(),
	}, nil
}

// documentID derives a readable, stable id from the final URL.
func documentID(u *url.URL) string {
	id := u.Host + u.Path
	if u.RawQuery != "" {
		id += "?" + u.RawQuery
	}
	return id
}

// CollectWithDeadline wraps Collect with an overall deadline, for callers
// that bound collection cost as a whole rather than per page.
func (c *Collector) CollectWithDeadline(ctx context.Context, category string, urls []string, deadline time.Duration) (*evidence.Store, error) {
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	return c.Collect(ctx, category, urls)
}
