// Package enrich schedules model queries for the rows of a table and writes
// the answers back as new columns.
package enrich

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insight-cli/internal/table"
)

// ErrMissingColumn is returned when a required input column is absent.
var ErrMissingColumn = eris.New("enrich: required column missing")

// DefaultColumns names the output columns in stage order.
var DefaultColumns = []string{"Prompt 1", "Prompt 2", "Prompt 3"}

// Options configures an Orchestrator.
type Options struct {
	Mode            Mode
	SubjectColumn   string
	PartitionColumn string
	// Columns names the output columns; must hold one name per stage.
	Columns     []string
	ChainFormat string
	// GroupSeparator joins stage-1 answers into a partition subject.
	GroupSeparator string
}

// DefaultOptions returns flat mode over the "Statement (What)" column.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeFlat,
		SubjectColumn:   "Statement (What)",
		PartitionColumn: "Disease State",
		Columns:         DefaultColumns,
		ChainFormat:     DefaultChainFormat,
		GroupSeparator:  "\n",
	}
}

// Orchestrator fans a table out into per-unit pipelines and assembles the
// answers.
type Orchestrator struct {
	policy *Policy
	opts   Options
}

// NewOrchestrator binds policy to opts, filling unset options with defaults.
func NewOrchestrator(policy *Policy, opts Options) *Orchestrator {
	def := DefaultOptions()
	if opts.Mode == "" {
		opts.Mode = def.Mode
	}
	if opts.SubjectColumn == "" {
		opts.SubjectColumn = def.SubjectColumn
	}
	if opts.PartitionColumn == "" {
		opts.PartitionColumn = def.PartitionColumn
	}
	if len(opts.Columns) != MaxStages {
		opts.Columns = def.Columns
	}
	if opts.ChainFormat == "" {
		opts.ChainFormat = def.ChainFormat
	}
	if opts.GroupSeparator == "" {
		opts.GroupSeparator = def.GroupSeparator
	}
	return &Orchestrator{policy: policy, opts: opts}
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// Process enriches every row of in using tmpl and returns a new table with the
// stage columns added. Per-cell failures are written as marker text; the only
// error returned is ErrMissingColumn (or an invalid mode).
func (o *Orchestrator) Process(ctx context.Context, in *table.Table, tmpl Templates) (*table.Table, error) {
	return o.ProcessMode(ctx, in, tmpl, o.opts.Mode)
}

// ProcessMode is Process with a per-call mode override.
func (o *Orchestrator) ProcessMode(ctx context.Context, in *table.Table, tmpl Templates, mode Mode) (*table.Table, error) {
	batchID := uuid.NewString()
	start := time.Now()

	subjects, ok := in.Column(o.opts.SubjectColumn)
	if !ok {
		return nil, eris.Wrapf(ErrMissingColumn, "column %q not found", o.opts.SubjectColumn)
	}

	units := make([]Unit, len(subjects))
	for i, raw := range subjects {
		units[i] = Unit{ID: strconv.Itoa(i), Row: i, Subject: NewSubject(raw)}
	}

	zap.L().Info("enrich: batch started",
		zap.String("batch_id", batchID),
		zap.String("mode", string(mode)),
		zap.Int("rows", len(units)),
	)

	var (
		results [][]Result
		groups  int
		err     error
	)
	switch mode {
	case ModeFlat:
		results, err = o.runRows(ctx, units, FlatStages(tmpl))
	case ModeChained:
		results, err = o.runRows(ctx, units, ChainedStages(tmpl, o.opts.ChainFormat))
	case ModeGrouped:
		results, groups, err = o.runGrouped(ctx, in, units, tmpl)
	default:
		err = eris.Errorf("enrich: unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	out, err := Assemble(in, o.opts.Columns, results)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("batch_id", batchID),
		zap.String("mode", string(mode)),
		zap.Int("rows", len(units)),
		zap.Int("groups", groups),
		zap.Duration("elapsed", time.Since(start)),
	}
	for kind, n := range countKinds(results) {
		fields = append(fields, zap.Int(kind.String(), n))
	}
	zap.L().Info("enrich: batch complete", fields...)

	return out, nil
}

func (o *Orchestrator) runRows(ctx context.Context, units []Unit, stages []Stage) ([][]Result, error) {
	p, err := NewPipeline(o.policy, stages)
	if err != nil {
		return nil, err
	}
	return runAll(ctx, p, units), nil
}

// runGrouped runs stages 1 and 2 per row, then one summary per partition,
// broadcasting each summary to the partition's rows.
func (o *Orchestrator) runGrouped(ctx context.Context, in *table.Table, units []Unit, tmpl Templates) ([][]Result, int, error) {
	partitions, ok := in.Column(o.opts.PartitionColumn)
	if !ok {
		return nil, 0, eris.Wrapf(ErrMissingColumn, "column %q not found", o.opts.PartitionColumn)
	}

	rows, err := NewPipeline(o.policy, RowStages(tmpl))
	if err != nil {
		return nil, 0, err
	}
	summary, err := NewPipeline(o.policy, SummaryStages(tmpl))
	if err != nil {
		return nil, 0, err
	}

	phase1 := runAll(ctx, rows, units)

	stage1 := make([]Result, len(units))
	stage2 := make([]Result, len(units))
	for i, rs := range phase1 {
		stage1[i], stage2[i] = rs[0], rs[1]
	}

	groups := Partition(partitions, stage2)
	groupUnits := make([]Unit, len(groups))
	for i, g := range groups {
		groupUnits[i] = Unit{
			ID:      g.Key.String(),
			Row:     -1,
			Subject: GroupSubject(g, stage1, o.opts.GroupSeparator),
		}
	}

	phase2 := runAll(ctx, summary, groupUnits)

	results := make([][]Result, len(units))
	for i := range units {
		results[i] = []Result{stage1[i], stage2[i], Absent()}
	}
	for i, g := range groups {
		for _, row := range g.Rows {
			results[row][2] = phase2[i][0]
		}
	}
	return results, len(groups), nil
}

// runAll runs p for every unit concurrently and waits for all of them.
// results[i] belongs to units[i].
func runAll(ctx context.Context, p *Pipeline, units []Unit) [][]Result {
	results := make([][]Result, len(units))
	var g errgroup.Group
	for i, u := range units {
		g.Go(func() error {
			results[i] = p.Run(ctx, u)
			zap.L().Debug("enrich: unit complete", zap.String("unit", u.ID))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func countKinds(results [][]Result) map[Kind]int {
	counts := make(map[Kind]int)
	for _, rs := range results {
		for _, r := range rs {
			counts[r.Kind]++
		}
	}
	return counts
}
