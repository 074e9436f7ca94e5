package main

import (
	"context"
	"sync/atomic"

	"github.com/sells-group/insight-cli/internal/config"
)

// echoClient answers every prompt with "answer to <prompt>".
type echoClient struct {
	calls atomic.Int64
}

func (c *echoClient) Query(_ context.Context, prompt string) (string, error) {
	c.calls.Add(1)
	return "answer to " + prompt, nil
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.Anthropic.MaxTokens = 150
	c.Enrich = config.EnrichConfig{
		Concurrency:     4,
		MaxRetries:      5,
		BaseDelayMs:     1,
		MaxDelayMs:      10,
		SubjectColumn:   "Statement (What)",
		PartitionColumn: "Disease State",
		Mode:            "flat",
		Columns:         []string{"Prompt 1", "Prompt 2", "Prompt 3"},
	}
	c.Server = config.ServerConfig{Port: 8080, MaxUploadMB: 1}
	return c
}
