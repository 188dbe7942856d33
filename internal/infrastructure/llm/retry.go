package llm

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration for classification requests.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int

	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

// DefaultRetryConfig retries once after one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 1, Delay: time.Second}
}

// Retrier repeats a send on transport errors and 5xx responses only.
// 4xx responses are returned on the first attempt so credential problems surface as-is.
type Retrier struct {
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// NewRetrier builds a retrier that sleeps on the wall clock.
func NewRetrier(cfg RetryConfig, logger *slog.Logger) *Retrier {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{config: cfg, sleep: sleepContext, logger: logger}
}

// Do runs send up to MaxRetries+1 times. After the last attempt it returns
// the final 5xx response, or the final transport error when no response came back.
func (r *Retrier) Do(ctx context.Context, send func(ctx context.Context) (*WireResponse, error)) (*WireResponse, error) {
	var lastErr error
	attempts := r.config.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := send(ctx)
		if err == nil && resp.Status < http.StatusInternalServerError {
			return resp, nil
		}

		last := attempt == attempts
		if err == nil {
			if last {
				return resp, nil
			}
			r.logger.Warn("server error, retrying", "status", resp.Status, "attempt", attempt, "delay", r.config.Delay)
		} else {
			lastErr = err
			if last {
				break
			}
			r.logger.Warn("network error, retrying", "error", err, "attempt", attempt, "delay", r.config.Delay)
		}

		if err := r.sleep(ctx, r.config.Delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
