package enrich

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/insight-cli/internal/gate"
	"github.com/sells-group/insight-cli/internal/query"
	"github.com/sells-group/insight-cli/internal/resilience"
)

// fakeClient answers prompts with a scripted function and records every call.
type fakeClient struct {
	respond func(prompt string, call int) (string, error)
	delay   time.Duration

	mu      sync.Mutex
	prompts []string

	calls    atomic.Int64
	current  atomic.Int64
	maxSeen  atomic.Int64
	finished []string
}

func (f *fakeClient) Query(ctx context.Context, prompt string) (string, error) {
	n := f.current.Add(1)
	defer f.current.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	call := int(f.calls.Add(1))
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	out, err := f.respond(prompt, call)

	f.mu.Lock()
	f.finished = append(f.finished, prompt)
	f.mu.Unlock()
	return out, err
}

func (f *fakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *fakeClient) Finished() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.finished...)
}

// answerByPrefix answers with the value of the first template prefix the
// prompt starts with, or echoes the prompt.
func answerByPrefix(answers map[string]string) func(string, int) (string, error) {
	return func(prompt string, _ int) (string, error) {
		for prefix, answer := range answers {
			if strings.HasPrefix(prompt, prefix) {
				return "  " + answer + "\n", nil
			}
		}
		return "echo:" + prompt, nil
	}
}

// instantRetry is the default retry config with sleeps recorded, not slept.
func instantRetry(slept *[]time.Duration, mu *sync.Mutex) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		if slept != nil {
			mu.Lock()
			*slept = append(*slept, d)
			mu.Unlock()
		}
		return ctx.Err()
	}
	return cfg
}

func newTestPolicy(c query.Client, capacity int) *Policy {
	return NewPolicy(c, gate.New(capacity), instantRetry(nil, nil))
}
