package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/internal/enrich"
	"github.com/sells-group/insight-cli/internal/gate"
	"github.com/sells-group/insight-cli/internal/query"
	"github.com/sells-group/insight-cli/internal/resilience"
	anthropicpkg "github.com/sells-group/insight-cli/pkg/anthropic"
)

// enrichEnv holds what every batch in the process shares. Orchestrator is nil
// when no API key is configured.
type enrichEnv struct {
	Client       query.Client
	Gate         *gate.Gate
	Orchestrator *enrich.Orchestrator
	Templates    enrich.Templates
}

// usageReporter is implemented by clients that tally token usage.
type usageReporter interface {
	Usage() anthropicpkg.TokenUsage
	Model() string
}

// initEnv builds the API client from config and wires the shared environment.
func initEnv(c *config.Config) (*enrichEnv, error) {
	var client query.Client
	if c.Anthropic.Key != "" {
		api := anthropicpkg.NewClient(c.Anthropic.Key)
		client = query.NewAnthropicClient(api, query.Params{
			Model:       c.Anthropic.Model,
			MaxTokens:   c.Anthropic.MaxTokens,
			Temperature: c.Anthropic.Temperature,
		}, query.WithRateLimit(c.Anthropic.RequestsPerSecond))
	}
	return newEnv(c, client)
}

// newEnv wires client into a policy and orchestrator. A nil client yields an
// environment without an orchestrator.
func newEnv(c *config.Config, client query.Client) (*enrichEnv, error) {
	mode, err := enrich.ParseMode(c.Enrich.Mode)
	if err != nil {
		return nil, eris.Wrap(err, "init env")
	}

	var tmpl enrich.Templates
	if c.Enrich.TemplatesFile != "" {
		tmpl, err = enrich.LoadTemplates(c.Enrich.TemplatesFile)
		if err != nil {
			return nil, eris.Wrap(err, "init env")
		}
	}

	env := &enrichEnv{
		Client:    client,
		Gate:      gate.New(c.Enrich.Concurrency),
		Templates: tmpl,
	}
	if client == nil {
		return env, nil
	}

	retry := resilience.FromRetryConfig(c.Enrich.MaxRetries, c.Enrich.BaseDelayMs, c.Enrich.MaxDelayMs, 2.0, 0)
	policy := enrich.NewPolicy(client, env.Gate, retry)
	env.Orchestrator = enrich.NewOrchestrator(policy, enrich.Options{
		Mode:            mode,
		SubjectColumn:   c.Enrich.SubjectColumn,
		PartitionColumn: c.Enrich.PartitionColumn,
		Columns:         c.Enrich.Columns,
		ChainFormat:     c.Enrich.ChainFormat,
	})

	zap.L().Debug("enrich environment ready",
		zap.String("mode", string(mode)),
		zap.Int("concurrency", env.Gate.Capacity()),
		zap.Int("max_retries", retry.MaxAttempts),
	)
	return env, nil
}

// logUsage logs cumulative token usage and cost when the client tracks it.
func (e *enrichEnv) logUsage(phase string) {
	if u, ok := e.Client.(usageReporter); ok {
		u.Usage().LogCost(u.Model(), phase)
	}
}
