package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/enrich"
	"github.com/sells-group/insight-cli/internal/table"
)

var (
	enrichInput     string
	enrichOutput    string
	enrichMode      string
	enrichTemplates string
	enrichPrompts   [3]string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a spreadsheet file with prompt answers",
	Long: `Reads an xlsx or csv file, runs the configured prompts against every row
and writes the result next to the input (or to --output).

Examples:
  # Three independent prompts per row
  insight-cli enrich --input insights.xlsx --templates prompts.yaml

  # Summaries per disease state and severity
  insight-cli enrich --input insights.xlsx --mode grouped \
    --prompt1 "Name the symptom in" --prompt2 "Rate the severity of" \
    --prompt3 "Summarize these symptoms:"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(cfg)
		if err != nil {
			return err
		}

		tmpl := env.Templates
		if enrichTemplates != "" {
			fromFile, err := enrich.LoadTemplates(enrichTemplates)
			if err != nil {
				return err
			}
			tmpl = tmpl.Merge(fromFile)
		}
		tmpl = tmpl.Merge(enrich.Templates{
			Prompt1: enrichPrompts[0],
			Prompt2: enrichPrompts[1],
			Prompt3: enrichPrompts[2],
		})

		mode := env.Orchestrator.Options().Mode
		if enrichMode != "" {
			if mode, err = enrich.ParseMode(enrichMode); err != nil {
				return err
			}
		}

		output := enrichOutput
		if output == "" {
			output = defaultOutputPath(enrichInput)
		}
		return runEnrichFile(ctx, env, enrichInput, output, tmpl, mode)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "input .xlsx or .csv file (required)")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "output file (default: <input>_enriched.<ext>)")
	enrichCmd.Flags().StringVar(&enrichMode, "mode", "", "flat, chained or grouped (default from config)")
	enrichCmd.Flags().StringVar(&enrichTemplates, "templates", "", "YAML file with prompt1..prompt3")
	enrichCmd.Flags().StringVar(&enrichPrompts[0], "prompt1", "", "template for the first prompt")
	enrichCmd.Flags().StringVar(&enrichPrompts[1], "prompt2", "", "template for the second prompt")
	enrichCmd.Flags().StringVar(&enrichPrompts[2], "prompt3", "", "template for the third prompt")
	_ = enrichCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(enrichCmd)
}

// runEnrichFile reads input, enriches it and writes output.
func runEnrichFile(ctx context.Context, env *enrichEnv, input, output string, tmpl enrich.Templates, mode enrich.Mode) error {
	if env.Orchestrator == nil {
		return eris.New("enrich: anthropic.key is not configured")
	}

	start := time.Now()
	in, err := table.Read(input)
	if err != nil {
		return eris.Wrap(err, "enrich: read input")
	}

	out, err := env.Orchestrator.ProcessMode(ctx, in, tmpl, mode)
	if err != nil {
		return err
	}

	if err := table.Write(output, out); err != nil {
		return eris.Wrap(err, "enrich: write output")
	}

	env.logUsage("enrich")
	zap.L().Info("enrich: file written",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("rows", out.Len()),
		zap.Int("peak_in_flight", env.Gate.Peak()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// defaultOutputPath derives "<name>_enriched<ext>" from the input path.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_enriched" + ext
}
