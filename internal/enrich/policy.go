package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/gate"
	"github.com/sells-group/insight-cli/internal/query"
	"github.com/sells-group/insight-cli/internal/resilience"
)

// KindPanic tags a call whose client panicked.
const KindPanic = "Panic"

// Policy runs one guarded query: presence checks, gate admission and
// rate-limit backoff. It is built once per process or batch and shared by
// every pipeline.
type Policy struct {
	client query.Client
	gate   *gate.Gate
	retry  resilience.RetryConfig
}

// NewPolicy wires a client, the shared gate and retry settings. A nil gate
// gets a private gate with the default capacity.
func NewPolicy(client query.Client, g *gate.Gate, retry resilience.RetryConfig) *Policy {
	if g == nil {
		g = gate.New(gate.DefaultCapacity)
	}
	return &Policy{client: client, gate: g, retry: retry}
}

// Gate returns the admission gate used for every call.
func (p *Policy) Gate() *gate.Gate {
	return p.gate
}

// Execute asks the model about subject using template. It never returns an
// error: every failure ends in a marker Result.
func (p *Policy) Execute(ctx context.Context, subject Subject, template string) (res Result) {
	if !subject.Present() {
		return Empty()
	}
	if strings.TrimSpace(template) == "" {
		return Misconfigured()
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrich: query panicked",
				zap.String("subject", preview(subject.Text())),
				zap.String("panic", fmt.Sprint(r)),
			)
			res = TransientError(KindPanic)
		}
	}()

	prompt := Render(template, subject)

	cfg := p.retry
	cfg.ShouldRetry = query.IsRateLimited
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		zap.L().Warn("enrich: rate limit hit, backing off",
			zap.String("subject", preview(subject.Text())),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
	}

	text, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		var out string
		gateErr := p.gate.Do(ctx, func(ctx context.Context) error {
			var qErr error
			out, qErr = p.client.Query(ctx, prompt)
			return qErr
		})
		return out, gateErr
	})
	if err == nil {
		return Success(strings.TrimSpace(text))
	}

	if ctx.Err() != nil {
		return TransientError(resilience.KindForError(ctx.Err()))
	}

	if query.IsRateLimited(err) {
		zap.L().Warn("enrich: max retries reached",
			zap.String("subject", preview(subject.Text())),
		)
		return RateLimitExhausted()
	}

	qe := query.AsError(err)
	zap.L().Warn("enrich: query failed",
		zap.String("subject", preview(subject.Text())),
		zap.String("kind", qe.Kind),
		zap.Error(err),
	)
	return TransientError(qe.Kind)
}
