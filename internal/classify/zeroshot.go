package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendsense/internal/infra"
)

// hfRequest is the Hugging Face zero-shot inference payload.
type hfRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
	} `json:"parameters"`
}

// hfResponse covers both the success and the error shape.
type hfResponse struct {
	Labels        []string  `json:"labels"`
	Scores        []float64 `json:"scores"`
	Error         string    `json:"error"`
	EstimatedTime float64   `json:"estimated_time"`
}

// ZeroShotConfig configures the remote zero-shot client.
type ZeroShotConfig struct {
	APIURL      string // base URL; the model name is appended
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
	LoadingWait time.Duration
	RatePerSec  float64
	Burst       int
}

// ZeroShotClient calls the Hugging Face inference API.
type ZeroShotClient struct {
	endpoint    string
	apiKey      string
	maxAttempts int
	loadingWait time.Duration
	httpClient  *http.Client
	breaker     *infra.CircuitBreaker
	limiter     *infra.RateLimiter
}

// NewZeroShotClient creates a client guarded by breaker.
func NewZeroShotClient(cfg ZeroShotConfig, breaker *infra.CircuitBreaker) *ZeroShotClient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if breaker == nil {
		breaker = infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("zeroshot"))
	}
	return &ZeroShotClient{
		endpoint:    strings.TrimRight(cfg.APIURL, "/") + "/" + cfg.Model,
		apiKey:      cfg.APIKey,
		maxAttempts: cfg.MaxAttempts,
		loadingWait: cfg.LoadingWait,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		breaker:     breaker,
		limiter:     infra.NewRateLimiter(cfg.Burst, cfg.RatePerSec),
	}
}

func (c *ZeroShotClient) Name() string { return "zeroshot" }

// maxLoadingBackoff caps the wait when the API gives no estimate.
const maxLoadingBackoff = 10 * time.Second

// errModelLoading marks one attempt that hit a cold model.
type errModelLoading struct{ wait time.Duration }

func (e *errModelLoading) Error() string { return "model is loading" }

// Classify asks the model to rank labels, retrying while it is loading.
func (c *ZeroShotClient) Classify(ctx context.Context, text string, labels []string) ([]Prediction, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	for i := 0; i < c.maxAttempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var preds []Prediction
		err := c.breaker.Execute(func() error {
			var err error
			preds, err = c.doClassify(ctx, text, labels)
			return err
		}, countsAsFailure)
		if err == nil {
			return preds, nil
		}

		var loading *errModelLoading
		if !errors.As(err, &loading) {
			return nil, err
		}

		wait := c.loadingWait
		if wait <= 0 {
			wait = loading.wait
		}
		if wait <= 0 {
			wait = infra.BackoffWithBase(time.Second, maxLoadingBackoff, i)
		}
		slog.Info("⏳ Zero-shot model loading, retrying",
			slog.Int("attempt", i+1),
			slog.Duration("wait", wait),
		)
		if err := infra.SleepContext(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, ErrModelLoading
}

// countsAsFailure keeps cold starts and caller cancellations from opening the breaker.
func countsAsFailure(err error) bool {
	var loading *errModelLoading
	return !errors.As(err, &loading) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func (c *ZeroShotClient) doClassify(ctx context.Context, text string, labels []string) ([]Prediction, error) {
	var payload hfRequest
	payload.Inputs = text
	payload.Parameters.CandidateLabels = labels

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}

	var data hfResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}

	if len(data.Labels) > 0 {
		if len(data.Scores) != len(data.Labels) {
			return nil, fmt.Errorf("mismatched labels and scores: %d vs %d", len(data.Labels), len(data.Scores))
		}
		preds := make([]Prediction, len(data.Labels))
		for i := range data.Labels {
			preds[i] = Prediction{Label: data.Labels[i], Confidence: data.Scores[i]}
		}
		return preds, nil
	}

	msg := strings.ToLower(data.Error)
	switch {
	case strings.Contains(msg, "loading"):
		return nil, &errModelLoading{wait: time.Duration(data.EstimatedTime * float64(time.Second))}
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid credentials"):
		return nil, ErrUnauthorized
	case data.Error != "":
		return nil, fmt.Errorf("inference API error (status %d): %s", resp.StatusCode, data.Error)
	default:
		return nil, fmt.Errorf("empty response from inference API (status %d)", resp.StatusCode)
	}
}
