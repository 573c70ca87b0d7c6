// Package pipeline runs an ordered list of provisioning steps.
//
// Steps execute one at a time in declaration order. The first failing step
// ends the run: no later step is invoked, nothing is retried and nothing that
// already ran is undone.
//
//	p := pipeline.New(steps...)
//	if err := p.Execute(ctx); err != nil {
//	    var stepErr *errors.StepError
//	    errors.As(err, &stepErr) // stepErr.Step names the failed step
//	}
package pipeline

import (
	"context"
	"sync"
	"time"

	cerr "github.com/cockroachdb/errors"

	"github.com/ksyq12/wpstack/internal/errors"
	"github.com/ksyq12/wpstack/internal/logger"
)

// Action is the work a step performs against the host.
type Action func(ctx context.Context) error

// Step is a named unit of provisioning work. Idempotent marks steps that
// leave the host unchanged when their effect is already present.
type Step struct {
	Name       string
	Action     Action
	Idempotent bool
}

// State is the lifecycle state of a pipeline or of one of its steps.
type State string

// States. Succeeded and Failed are terminal.
const (
	Pending   State = "pending"
	Running   State = "running"
	Succeeded State = "succeeded"
	Failed    State = "failed"
)

// ErrAlreadyExecuted is returned by Execute on a pipeline that already ran.
var ErrAlreadyExecuted = cerr.New("pipeline already executed")

// Run executes a single step. A failure is returned as a *errors.StepError
// carrying the step name.
func Run(ctx context.Context, step Step) error {
	if step.Action == nil {
		return errors.Step(step.Name, cerr.New("step has no action"))
	}
	if err := ctx.Err(); err != nil {
		return errors.Step(step.Name, cerr.Wrap(err, "interrupted"))
	}
	if err := step.Action(ctx); err != nil {
		return errors.Step(step.Name, err)
	}
	return nil
}

// Observer receives progress callbacks from Execute.
type Observer interface {
	StepStarted(index, total int, name string)
	StepFinished(index, total int, name string, elapsed time.Duration, err error)
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name       string        `json:"name"`
	Idempotent bool          `json:"idempotent"`
	State      State         `json:"state"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Report summarizes a pipeline run.
type Report struct {
	State    State         `json:"state"`
	Steps    []StepResult  `json:"steps"`
	Failed   string        `json:"failed_step,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Pipeline is an ordered, abort-on-failure sequence of steps. It runs once.
type Pipeline struct {
	steps    []Step
	observer Observer

	mu       sync.Mutex
	state    State
	results  []StepResult
	failed   string
	duration time.Duration
}

// New creates a pipeline over steps in the given order.
func New(steps ...Step) *Pipeline {
	results := make([]StepResult, len(steps))
	for i, s := range steps {
		results[i] = StepResult{Name: s.Name, Idempotent: s.Idempotent, State: Pending}
	}
	return &Pipeline{
		steps:   steps,
		state:   Pending,
		results: results,
	}
}

// WithObserver sets the progress observer and returns p.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Execute runs every step in order and stops at the first failure, returning
// its *errors.StepError. Execute succeeds only if every step succeeded.
func (p *Pipeline) Execute(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		return ErrAlreadyExecuted
	}
	p.state = Running
	p.mu.Unlock()

	start := time.Now()
	total := len(p.steps)
	logger.Debug("pipeline started with %d steps", total)

	var runErr error
	for i, step := range p.steps {
		p.setResult(i, Running, 0, nil)
		if p.observer != nil {
			p.observer.StepStarted(i+1, total, step.Name)
		}

		stepStart := time.Now()
		err := Run(ctx, step)
		elapsed := time.Since(stepStart).Round(time.Millisecond)

		if p.observer != nil {
			p.observer.StepFinished(i+1, total, step.Name, elapsed, err)
		}

		if err != nil {
			p.setResult(i, Failed, elapsed, err)
			logger.DebugFields("step failed", map[string]interface{}{
				"step":    step.Name,
				"elapsed": elapsed.String(),
			})
			runErr = err
			break
		}
		p.setResult(i, Succeeded, elapsed, nil)
		logger.Debug("step %q completed in %v", step.Name, elapsed)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.duration = time.Since(start).Round(time.Millisecond)
	if runErr != nil {
		p.state = Failed
		return runErr
	}
	p.state = Succeeded
	logger.Debug("pipeline completed in %v", p.duration)
	return nil
}

func (p *Pipeline) setResult(i int, state State, elapsed time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[i].State = state
	p.results[i].Duration = elapsed
	if err != nil {
		p.results[i].Error = err.Error()
		p.failed = p.results[i].Name
	}
}

// Report returns a snapshot of the per-step outcome.
func (p *Pipeline) Report() Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	steps := make([]StepResult, len(p.results))
	copy(steps, p.results)
	return Report{
		State:    p.state,
		Steps:    steps,
		Failed:   p.failed,
		Duration: p.duration,
	}
}
