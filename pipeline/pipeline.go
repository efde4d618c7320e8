// Package pipeline drives a job through its stages and runs hooks around
// each one.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// Pipeline executes a sequence of Steps with hook support.  A configured
// Pipeline is read-only and safe to share between workers.
type Pipeline struct {
	steps []core.Step
	hooks []core.Hook
}

var _ core.Runner = (*Pipeline)(nil)

// New returns an empty Pipeline.
func New() *Pipeline { return &Pipeline{} }

// Use appends a step to the pipeline.  Returns the same Pipeline for chaining.
func (p *Pipeline) Use(s ...core.Step) *Pipeline {
	p.steps = append(p.steps, s...)
	return p
}

// AddHook registers an observer.
func (p *Pipeline) AddHook(h core.Hook) *Pipeline {
	p.hooks = append(p.hooks, h)
	return p
}

// Steps returns the stage names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run moves st through every step.  Each step sees the state already
// switched to its stage.  The first error ends the run: the returned state
// is marked StageFailed and the error names the failing step.  Otherwise the
// returned state is StageCompleted.  A state that already finished is
// refused and returned unchanged.
func (p *Pipeline) Run(ctx context.Context, st *core.JobState) (*core.JobState, error) {
	if st.Stage.Terminal() {
		return st, apperrors.New(apperrors.KindPipeline, "pipeline.run",
			fmt.Errorf("job %s already %s", st.ID, st.Stage))
	}
	current := st
	for _, step := range p.steps {
		next := *current
		next.Stage = step.Stage()

		result, err := p.runStep(ctx, step, &next)
		if err != nil {
			failed := next
			failed.Stage = core.StageFailed
			return &failed, apperrors.Wrap(apperrors.KindPipeline, step.Name(), err)
		}
		current = result
	}
	done := *current
	done.Stage = core.StageCompleted
	return &done, nil
}

// runStep executes a single step between its hooks.
func (p *Pipeline) runStep(ctx context.Context, step core.Step, st *core.JobState) (*core.JobState, error) {
	for _, h := range p.hooks {
		h.BeforeStep(ctx, st)
	}

	start := time.Now()
	result, err := step.Execute(ctx, st)
	elapsed := time.Since(start)

	observed := result
	if err != nil || observed == nil {
		observed = st
	}
	for _, h := range p.hooks {
		h.AfterStep(ctx, observed, elapsed, err)
	}
	if err == nil && result == nil {
		return nil, apperrors.New(apperrors.KindPipeline, step.Name(), nil)
	}
	return result, err
}

// Clone returns a shallow copy of the pipeline so a template can be extended
// without affecting the original.
func (p *Pipeline) Clone() *Pipeline {
	cp := &Pipeline{
		steps: make([]core.Step, len(p.steps)),
		hooks: make([]core.Hook, len(p.hooks)),
	}
	copy(cp.steps, p.steps)
	copy(cp.hooks, p.hooks)
	return cp
}
