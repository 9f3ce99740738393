// Package oracle is the HTTP client for the external churn scoring
// service. The service is a black box: decoded rows go in, an ordered
// probability array plus a feature-importance map come out. The client
// wraps every call in a circuit breaker so a struggling scorer is cut
// off instead of tying up request handlers, and every call carries a
// bounded timeout.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/churn-prediction-api/internal/tabular"
)

// Scoring failures are all-or-nothing for the caller: on any of these
// errors no dataset or prediction may be persisted.
var (
	// ErrUnreachable covers transport failures, timeouts and an open
	// circuit breaker.
	ErrUnreachable = errors.New("scoring service unreachable")
	// ErrBadResponse covers non-success statuses and unparsable bodies.
	ErrBadResponse = errors.New("scoring service bad response")
	// ErrLengthMismatch is returned when the probability array does not
	// line up with the submitted rows; truncating or padding would
	// silently mis-assign probabilities to customers.
	ErrLengthMismatch = errors.New("scoring service returned wrong probability count")
)

// Result is the parsed scorer output. Probabilities[i] corresponds to
// input row i.
type Result struct {
	Probabilities      []float64          `json:"probabilities"`
	FeatureImportances map[string]float64 `json:"feature_importances"`
}

type scoreRequest struct {
	Rows []tabular.Row `json:"rows"`
}

// Client calls the scoring service's /predict endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[Result]
}

// NewClient returns a client for the scorer at baseURL. The timeout
// bounds the whole call including body read; an unresponsive scorer
// surfaces as ErrUnreachable rather than holding the request handler
// indefinitely.
func NewClient(baseURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        "churn-oracle",
		MaxRequests: 3,                // probes allowed in half-open state
		Interval:    time.Minute,      // closed-state count reset window
		Timeout:     30 * time.Second, // open -> half-open delay
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("oracle: circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// Score sends rows to the scorer and parses its response. The returned
// probability sequence is guaranteed to have exactly len(rows) entries;
// any other length fails with ErrLengthMismatch.
func (c *Client) Score(ctx context.Context, rows []tabular.Row) (Result, error) {
	res, err := c.cb.Execute(func() (Result, error) {
		return c.score(ctx, rows)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, fmt.Errorf("%w: circuit open", ErrUnreachable)
		}
		return Result{}, err
	}
	if len(res.Probabilities) != len(rows) {
		return Result{}, fmt.Errorf("%w: got %d, want %d",
			ErrLengthMismatch, len(res.Probabilities), len(rows))
	}
	return res, nil
}

func (c *Client) score(ctx context.Context, rows []tabular.Row) (Result, error) {
	body, err := json.Marshal(scoreRequest{Rows: rows})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the server log; the client
		// never sees scorer error text.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("oracle: status %d from scorer: %s", resp.StatusCode, msg)
		return Result{}, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return res, nil
}
