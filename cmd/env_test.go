package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/enrich"
	"github.com/sells-group/insight-cli/internal/table"
)

func TestNewEnv_NoClient(t *testing.T) {
	env, err := newEnv(testConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, env.Orchestrator)
	assert.Equal(t, 4, env.Gate.Capacity())
}

func TestNewEnv_WithClient(t *testing.T) {
	c := testConfig()
	c.Enrich.Mode = "chained"
	c.Enrich.SubjectColumn = "Symptom"

	env, err := newEnv(c, &echoClient{})
	require.NoError(t, err)
	require.NotNil(t, env.Orchestrator)

	opts := env.Orchestrator.Options()
	assert.Equal(t, enrich.ModeChained, opts.Mode)
	assert.Equal(t, "Symptom", opts.SubjectColumn)
	assert.Equal(t, enrich.DefaultChainFormat, opts.ChainFormat)
}

func TestNewEnv_InvalidMode(t *testing.T) {
	c := testConfig()
	c.Enrich.Mode = "diagonal"
	_, err := newEnv(c, &echoClient{})
	assert.ErrorContains(t, err, "unknown mode")
}

func TestNewEnv_TemplatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompt1: Classify\nprompt3: Summarize\n"), 0o644))

	c := testConfig()
	c.Enrich.TemplatesFile = path
	env, err := newEnv(c, &echoClient{})
	require.NoError(t, err)
	assert.Equal(t, enrich.Templates{Prompt1: "Classify", Prompt3: "Summarize"}, env.Templates)

	c.Enrich.TemplatesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = newEnv(c, &echoClient{})
	assert.Error(t, err)
}

func TestInitEnv_NoKey(t *testing.T) {
	env, err := initEnv(testConfig())
	require.NoError(t, err)
	assert.Nil(t, env.Client)
	assert.Nil(t, env.Orchestrator)
}

func TestInitEnv_WithKey(t *testing.T) {
	c := testConfig()
	c.Anthropic.Key = "sk-ant-test"
	c.Anthropic.RequestsPerSecond = 5

	env, err := initEnv(c)
	require.NoError(t, err)
	require.NotNil(t, env.Orchestrator)
	_, ok := env.Client.(usageReporter)
	assert.True(t, ok)

	// No calls were made, so this logs zero usage.
	env.logUsage("test")
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "insights_enriched.xlsx", defaultOutputPath("insights.xlsx"))
	assert.Equal(t, filepath.Join("data", "rows_enriched.csv"), defaultOutputPath(filepath.Join("data", "rows.csv")))
	assert.Equal(t, "noext_enriched", defaultOutputPath("noext"))
}

func TestRunEnrichFile_CSV(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	output := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(input, []byte("Statement (What),Note\nfatigue,a\n,b\n"), 0o644))

	client := &echoClient{}
	env, err := newEnv(testConfig(), client)
	require.NoError(t, err)

	tmpl := enrich.Templates{Prompt1: "Classify:", Prompt2: "Rate:"}
	require.NoError(t, runEnrichFile(context.Background(), env, input, output, tmpl, enrich.ModeFlat))

	out, err := table.Read(output)
	require.NoError(t, err)
	assert.Equal(t, []string{"Statement (What)", "Note", "Prompt 1", "Prompt 2", "Prompt 3"}, out.Columns)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"fatigue", "a", `answer to Classify: "fatigue"`, `answer to Rate: "fatigue"`, enrich.MarkerMisconfigured}, out.Rows[0])
	assert.Equal(t, []string{"", "b", "", "", ""}, out.Rows[1])
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestRunEnrichFile_Errors(t *testing.T) {
	dir := t.TempDir()

	noKey, err := newEnv(testConfig(), nil)
	require.NoError(t, err)
	err = runEnrichFile(context.Background(), noKey, "in.csv", "out.csv", enrich.Templates{}, enrich.ModeFlat)
	assert.ErrorContains(t, err, "not configured")

	env, err := newEnv(testConfig(), &echoClient{})
	require.NoError(t, err)

	err = runEnrichFile(context.Background(), env, filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"), enrich.Templates{}, enrich.ModeFlat)
	assert.ErrorContains(t, err, "read input")

	input := filepath.Join(dir, "wrong.csv")
	require.NoError(t, os.WriteFile(input, []byte("Symptom\nfatigue\n"), 0o644))
	err = runEnrichFile(context.Background(), env, input, filepath.Join(dir, "out.csv"), enrich.Templates{}, enrich.ModeFlat)
	assert.ErrorIs(t, err, enrich.ErrMissingColumn)
}
