package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/dparitosh/recipe-organizer-sub000/pkg/fn"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/resilience"
)

// completionRetry matches spec §4.3: one retry on transport error.
var completionRetry = fn.RetryOpts{MaxAttempts: 2, InitialWait: 200 * time.Millisecond, MaxWait: 2 * time.Second, Jitter: true}

// CompletionClient calls /api/generate on an Ollama-compatible endpoint.
type CompletionClient struct {
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

func NewCompletionClient(baseURL, model string, qps float64, burst int) *CompletionClient {
	return &CompletionClient{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
}

type generateReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResp struct {
	Response string `json:"response"`
}

// Complete issues prompt against the completion endpoint with a 30s per-call
// timeout and one retry on transport error.
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result := fn.Retry(ctx, completionRetry, func(ctx context.Context) fn.Result[string] {
		return resilience.CallResult(c.breaker, ctx, func(ctx context.Context) fn.Result[string] {
			out, err := c.doComplete(ctx, prompt)
			if err != nil {
				return fn.Err[string](err)
			}
			return fn.Ok(out)
		})
	})
	return result.Unwrap()
}

func (c *CompletionClient) doComplete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateReq{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request: status %d", resp.StatusCode)
	}

	var parsed generateResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("completion decode: %w", err)
	}
	return parsed.Response, nil
}

// IsAvailable issues a cheap GET /api/tags health probe guarded by the
// circuit breaker, never counting against the retry/rate-limit budget of
// real completion calls.
func (c *CompletionClient) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health probe: status %d", resp.StatusCode)
		}
		return nil
	})
	return err == nil
}
