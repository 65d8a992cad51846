// Package llmclient provides HTTP-backed embedding and completion clients
// for the self-hosted LLM/embedding endpoint, wrapped with retry, circuit
// breaking, and outbound rate limiting. Shaped directly on pkg/ollama's
// plain net/http POST approach, generalized to a plain interface instead of
// a generated gRPC service client.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/fn"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/resilience"
)

// embedRetry matches spec §4.2: base 200ms, cap 3s, 3 attempts.
var embedRetry = fn.RetryOpts{MaxAttempts: 3, InitialWait: 200 * time.Millisecond, MaxWait: 3 * time.Second, Jitter: true}

// EmbeddingClient embeds text batches against an Ollama-compatible endpoint.
// It caches the reported vector dimension on first call and fails loudly
// (ErrDimensionChanged) if a later call reports a different one.
type EmbeddingClient struct {
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	dim     atomic.Int64 // 0 until first successful call
}

// ErrDimensionChanged is returned when the endpoint reports a vector
// dimension different from the one cached on first call.
type ErrDimensionChanged struct {
	Expected, Got int
}

func (e *ErrDimensionChanged) Error() string {
	return fmt.Sprintf("embedding dimension changed: expected %d, got %d", e.Expected, e.Got)
}

// NewEmbeddingClient constructs a client rate-limited to qps with the given
// burst, protected by a circuit breaker with default options.
func NewEmbeddingClient(baseURL, model string, qps float64, burst int) *EmbeddingClient {
	return &EmbeddingClient{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

// Embed submits texts in chunks of batchSize, preserving input order, and
// fails with ErrEmbeddingUnavailable after retries are exhausted.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	if batchSize == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for _, batch := range fn.Chunk(texts, batchSize) {
		results := fn.ParMapResult(batch, len(batch), func(text string) fn.Result[[]float32] {
			vec, err := c.embedOne(ctx, text)
			if err != nil {
				return fn.Err[[]float32](err)
			}
			return fn.Ok(vec)
		})
		vecs, err := fn.Collect(results).Unwrap()
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *EmbeddingClient) embedOne(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result := fn.Retry(ctx, embedRetry, func(ctx context.Context) fn.Result[[]float32] {
		return resilience.CallResult(c.breaker, ctx, func(ctx context.Context) fn.Result[[]float32] {
			vec, err := c.doEmbed(ctx, text)
			if err != nil {
				return fn.Err[[]float32](err)
			}
			return fn.Ok(vec)
		})
	})

	vec, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	got := len(vec)
	if prev := c.dim.Load(); prev == 0 {
		c.dim.Store(int64(got))
	} else if int(prev) != got {
		return nil, &ErrDimensionChanged{Expected: int(prev), Got: got}
	}
	return vec, nil
}

func (c *EmbeddingClient) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedReq{Model: c.model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed request: status %d", resp.StatusCode)
	}

	var parsed ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embed decode: %w", err)
	}
	out := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// Dimension returns the cached vector dimension, or 0 if no call has
// succeeded yet.
func (c *EmbeddingClient) Dimension() int { return int(c.dim.Load()) }
