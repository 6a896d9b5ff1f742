// Package probe checks that the deployed application answers over HTTPS.
// DNS propagation and task startup make the first minutes flaky, so the probe
// retries on transport errors and server errors before giving up.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avezina/shiplift/internal/logging"
)

// Result is the outcome of a successful probe.
type Result struct {
	URL        string
	StatusCode int
	Attempts   int
	Elapsed    time.Duration
}

type Prober struct {
	client   *http.Client
	log      logging.Logger
	attempts int
	interval time.Duration
}

func New(log logging.Logger) *Prober {
	return &Prober{
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.WithName("probe"),
		attempts: 30,
		interval: 10 * time.Second,
	}
}

// WaitHealthy polls url until it answers with a non-5xx status. Redirects are
// followed, so a login redirect still counts as healthy.
func (p *Prober) WaitHealthy(ctx context.Context, url string) (Result, error) {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		status, err := p.check(ctx, url)
		if err == nil && status < http.StatusInternalServerError {
			res := Result{URL: url, StatusCode: status, Attempts: attempt, Elapsed: time.Since(start)}
			p.log.Info("endpoint healthy", "url", url, "status", status, "attempts", attempt)
			return res, nil
		}
		if err != nil {
			lastErr = err
			p.log.Debug("probe attempt failed", "url", url, "attempt", attempt, "error", err.Error())
		} else {
			lastErr = fmt.Errorf("status %d", status)
			p.log.Debug("probe attempt failed", "url", url, "attempt", attempt, "status", status)
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(p.interval):
		}
	}

	return Result{}, fmt.Errorf("endpoint %s not healthy after %d attempts: %w", url, p.attempts, lastErr)
}

func (p *Prober) check(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
