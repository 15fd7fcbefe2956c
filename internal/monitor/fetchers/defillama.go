package fetchers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const llamaAPI = "https://api.llama.fi"

// DefiLlama fetches protocol TVL from the DeFiLlama aggregator. The
// /tvl/{slug} endpoint returns the TVL as a bare decimal body.
type DefiLlama struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewDefiLlama(logger *slog.Logger) *DefiLlama {
	return &DefiLlama{
		client:     &http.Client{Timeout: 10 * time.Second},
		baseURL:    llamaAPI,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     logger,
	}
}

// TVL returns the current TVL in USD for a DeFiLlama protocol slug. Server
// errors and timeouts are retried with a linear backoff; a 404 means the
// slug is unknown and is not retried.
func (d *DefiLlama) TVL(ctx context.Context, slug string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/tvl/%s", d.baseURL, slug)

	var lastErr error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			case <-time.After(d.retryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return decimal.Zero, err
		}

		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
			d.logger.Warn("defillama request failed",
				"slug", slug, "attempt", attempt+1, "error", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			tvl, err := decimal.NewFromString(strings.TrimSpace(string(body)))
			if err != nil {
				return decimal.Zero, fmt.Errorf("parse tvl for %s: %w", slug, err)
			}
			return tvl, nil
		case resp.StatusCode == http.StatusNotFound:
			return decimal.Zero, fmt.Errorf("protocol %s not found on defillama", slug)
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("defillama status %d", resp.StatusCode)
			d.logger.Warn("defillama server error",
				"slug", slug, "status", resp.StatusCode, "attempt", attempt+1)
		default:
			return decimal.Zero, fmt.Errorf("defillama status %d", resp.StatusCode)
		}
	}
	return decimal.Zero, fmt.Errorf("defillama tvl %s: retries exhausted: %w", slug, lastErr)
}
