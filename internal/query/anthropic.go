package query

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/insight-cli/internal/resilience"
	"github.com/sells-group/insight-cli/pkg/anthropic"
)

// KindEmptyResponse is reported when the model returns no text.
const KindEmptyResponse = "EmptyResponse"

// Params are the fixed model parameters applied to every call.
type Params struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultParams mirrors the settings used for short per-row answers.
func DefaultParams() Params {
	return Params{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   150,
		Temperature: 0.7,
	}
}

// Option configures an AnthropicClient.
type Option func(*AnthropicClient)

// WithRateLimit sets a client-side requests-per-second limit.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *AnthropicClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// AnthropicClient implements Client with the Anthropic Messages API.
type AnthropicClient struct {
	api     anthropic.Client
	params  Params
	limiter *rate.Limiter

	mu    sync.Mutex
	usage anthropic.TokenUsage
}

// NewAnthropicClient wraps api with fixed model parameters.
func NewAnthropicClient(api anthropic.Client, params Params, opts ...Option) *AnthropicClient {
	def := DefaultParams()
	if params.Model == "" {
		params.Model = def.Model
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = def.MaxTokens
	}
	c := &AnthropicClient{api: api, params: params}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query sends prompt as a single user message.
func (c *AnthropicClient) Query(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			kind := resilience.KindTimeout
			if ctx.Err() != nil {
				kind = resilience.KindForError(ctx.Err())
			}
			return "", Failed(kind, eris.Wrap(err, "query: rate limiter wait"))
		}
	}

	temp := c.params.Temperature
	resp, err := c.api.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.params.Model,
		MaxTokens:   c.params.MaxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", classify(err)
	}

	c.mu.Lock()
	c.usage.Add(resp.Usage)
	c.mu.Unlock()

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", Failed(KindEmptyResponse, eris.Errorf("query: empty response (stop_reason=%s)", resp.StopReason))
	}
	return text, nil
}

// Usage returns the token usage accumulated across all calls.
func (c *AnthropicClient) Usage() anthropic.TokenUsage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Model returns the model used for every call.
func (c *AnthropicClient) Model() string {
	return c.params.Model
}

func classify(err error) *Error {
	code := anthropic.StatusCode(err)
	switch {
	case code == http.StatusTooManyRequests:
		return RateLimited(err)
	case code != 0:
		return Failed(resilience.KindForStatus(code), err)
	default:
		return Failed(resilience.KindForError(err), err)
	}
}
