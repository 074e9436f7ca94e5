package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// MaxStages bounds the number of stages in one pipeline.
const MaxStages = 3

// Unit is one row, or one partition in grouped mode, being enriched.
type Unit struct {
	// ID identifies the unit in logs: the row number or the group key.
	ID string
	// Row is the source row index, or -1 for a group unit.
	Row     int
	Subject Subject
}

// Stage is one query template plus the stages whose results it consumes.
type Stage struct {
	Name      string
	Template  string
	DependsOn []string
	// Input builds the stage subject once its dependencies are done.
	// Nil means the unit's own subject.
	Input func(u Unit, deps map[string]Result) Subject
}

// Pipeline runs a fixed, validated stage graph for one unit at a time.
type Pipeline struct {
	policy *Policy
	stages []Stage
	deps   [][]int
}

// NewPipeline validates stages and binds them to policy. Stage names must be
// unique, dependencies must name other stages and the graph must be acyclic.
func NewPipeline(policy *Policy, stages []Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, eris.New("pipeline: no stages")
	}
	if len(stages) > MaxStages {
		return nil, eris.Errorf("pipeline: %d stages exceeds maximum of %d", len(stages), MaxStages)
	}

	index := make(map[string]int, len(stages))
	for i, st := range stages {
		if st.Name == "" {
			return nil, eris.Errorf("pipeline: stage %d has no name", i)
		}
		if _, dup := index[st.Name]; dup {
			return nil, eris.Errorf("pipeline: duplicate stage %q", st.Name)
		}
		index[st.Name] = i
	}

	deps := make([][]int, len(stages))
	for i, st := range stages {
		for _, d := range st.DependsOn {
			j, ok := index[d]
			if !ok {
				return nil, eris.Errorf("pipeline: stage %q depends on unknown stage %q", st.Name, d)
			}
			if j == i {
				return nil, eris.Errorf("pipeline: stage %q depends on itself", st.Name)
			}
			deps[i] = append(deps[i], j)
		}
	}

	if err := checkAcyclic(stages, deps); err != nil {
		return nil, err
	}

	return &Pipeline{
		policy: policy,
		stages: append([]Stage(nil), stages...),
		deps:   deps,
	}, nil
}

// checkAcyclic runs Kahn's algorithm over the dependency lists.
func checkAcyclic(stages []Stage, deps [][]int) error {
	indegree := make([]int, len(stages))
	dependents := make([][]int, len(stages))
	for i, ds := range deps {
		indegree[i] = len(ds)
		for _, d := range ds {
			dependents[d] = append(dependents[d], i)
		}
	}

	var ready []int
	for i, n := range indegree {
		if n == 0 {
			ready = append(ready, i)
		}
	}

	visited := 0
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		visited++
		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				ready = append(ready, j)
			}
		}
	}

	if visited != len(stages) {
		return eris.New("pipeline: stage dependencies form a cycle")
	}
	return nil
}

// Stages returns the stage definitions in order.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Run executes every stage for u and returns one Result per stage in stage
// order. Independent stages run concurrently; a stage starts only after all
// of its dependencies have finished. A unit without a subject gets Empty for
// every stage and issues no calls.
func (p *Pipeline) Run(ctx context.Context, u Unit) []Result {
	results := make([]Result, len(p.stages))
	if !u.Subject.Present() {
		for i := range results {
			results[i] = Empty()
		}
		return results
	}

	done := make([]chan struct{}, len(p.stages))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	for i, st := range p.stages {
		g.Go(func() error {
			defer close(done[i])

			var deps map[string]Result
			if len(p.deps[i]) > 0 {
				deps = make(map[string]Result, len(p.deps[i]))
				for _, d := range p.deps[i] {
					<-done[d]
					deps[p.stages[d].Name] = results[d]
				}
			}

			subject := u.Subject
			if st.Input != nil {
				subject = st.Input(u, deps)
			}
			results[i] = p.policy.Execute(ctx, subject, st.Template)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
