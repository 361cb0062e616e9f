// Package ratings posts end-of-game summaries to the external ratings
// service. Reporting is fire-and-forget: it runs outside any room lock,
// retries with backoff, and a permanent failure is only ever logged.
// Gameplay must never stall or roll back because a rating was lost.
package ratings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"

	"github.com/lox/ratrace/internal/game"
)

const (
	defaultMaxTries       = 5
	defaultRequestTimeout = 10 * time.Second
)

// Reporter delivers player results to the ratings endpoint.
type Reporter struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
	maxTries uint
	wg       sync.WaitGroup
}

// New creates a reporter. An empty endpoint disables reporting.
func New(endpoint string, logger *log.Logger) *Reporter {
	return &Reporter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultRequestTimeout},
		logger:   logger.WithPrefix("ratings"),
		maxTries: defaultMaxTries,
	}
}

// Report delivers a game summary asynchronously, one POST per player.
func (r *Reporter) Report(summary game.GameSummary) {
	if r.endpoint == "" {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for _, result := range summary.Results {
			if err := r.post(context.Background(), result); err != nil {
				r.logger.Error("dropping rating after retries",
					"room", result.RoomID, "player", result.PlayerID, "error", err)
			}
		}
	}()
}

// Wait blocks until all in-flight reports finish. Used on shutdown and
// in tests.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

func (r *Reporter) post(ctx context.Context, result game.PlayerResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}

	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return struct{}{}, fmt.Errorf("ratings service returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			// Client errors will not succeed on retry.
			return struct{}{}, backoff.Permanent(fmt.Errorf("ratings service rejected report: %d", resp.StatusCode))
		}
		return struct{}{}, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 250 * time.Millisecond
	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(r.maxTries))
	return err
}
