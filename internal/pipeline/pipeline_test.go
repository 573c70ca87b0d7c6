package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksyq12/wpstack/internal/errors"
)

// recorder builds steps that append their name to a shared slice.
type recorder struct {
	executed []string
}

func (r *recorder) step(name string, err error) Step {
	return Step{Name: name, Action: func(_ context.Context) error {
		r.executed = append(r.executed, name)
		return err
	}}
}

type mockObserver struct {
	started  []string
	finished []string
	failures []string
}

func (o *mockObserver) StepStarted(index, total int, name string) {
	o.started = append(o.started, fmt.Sprintf("%d/%d %s", index, total, name))
}

func (o *mockObserver) StepFinished(_, _ int, name string, _ time.Duration, err error) {
	o.finished = append(o.finished, name)
	if err != nil {
		o.failures = append(o.failures, name)
	}
}

func TestRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		err := Run(context.Background(), Step{Name: "ok", Action: func(context.Context) error { return nil }})
		assert.NoError(t, err)
	})

	t.Run("failure carries step name", func(t *testing.T) {
		cause := fmt.Errorf("apt-get exited 100")
		err := Run(context.Background(), Step{Name: "Nginx installation", Action: func(context.Context) error { return cause }})

		var stepErr *errors.StepError
		require.True(t, errors.As(err, &stepErr))
		assert.Equal(t, "Nginx installation", stepErr.Step)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, errors.ErrCodeStep, errors.CodeOf(err))
	})

	t.Run("nil action", func(t *testing.T) {
		err := Run(context.Background(), Step{Name: "empty"})
		assert.True(t, errors.Is(err, &errors.StepError{Step: "empty"}))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := Run(ctx, Step{Name: "late", Action: func(context.Context) error { called = true; return nil }})
		assert.True(t, errors.Is(err, errors.ErrStep))
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestPipeline_Execute_Success(t *testing.T) {
	r := &recorder{}
	p := New(r.step("one", nil), r.step("two", nil), r.step("three", nil))

	require.NoError(t, p.Execute(context.Background()))

	assert.Equal(t, []string{"one", "two", "three"}, r.executed)
	assert.Equal(t, Succeeded, p.State())

	report := p.Report()
	assert.Equal(t, Succeeded, report.State)
	assert.Empty(t, report.Failed)
	for _, s := range report.Steps {
		assert.Equal(t, Succeeded, s.State, s.Name)
	}
}

func TestPipeline_Execute_StopsAtFailingStep(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}

	for k := range names {
		t.Run(fmt.Sprintf("fail at %d", k), func(t *testing.T) {
			r := &recorder{}
			steps := make([]Step, len(names))
			for i, n := range names {
				var err error
				if i == k {
					err = fmt.Errorf("boom")
				}
				steps[i] = r.step(n, err)
			}

			p := New(steps...)
			err := p.Execute(context.Background())
			require.Error(t, err)

			assert.Equal(t, names[:k+1], r.executed)
			assert.True(t, errors.Is(err, &errors.StepError{Step: names[k]}))
			assert.Equal(t, Failed, p.State())

			report := p.Report()
			assert.Equal(t, names[k], report.Failed)
			assert.Equal(t, Failed, report.Steps[k].State)
			assert.Contains(t, report.Steps[k].Error, "boom")
			for _, s := range report.Steps[k+1:] {
				assert.Equal(t, Pending, s.State, s.Name)
			}
		})
	}
}

func TestPipeline_Execute_Once(t *testing.T) {
	r := &recorder{}
	p := New(r.step("only", nil))

	require.NoError(t, p.Execute(context.Background()))
	err := p.Execute(context.Background())

	assert.ErrorIs(t, err, ErrAlreadyExecuted)
	assert.Equal(t, []string{"only"}, r.executed)
	assert.Equal(t, Succeeded, p.State())
}

func TestPipeline_Execute_OnceAfterFailure(t *testing.T) {
	r := &recorder{}
	p := New(r.step("bad", fmt.Errorf("no")))

	require.Error(t, p.Execute(context.Background()))
	assert.ErrorIs(t, p.Execute(context.Background()), ErrAlreadyExecuted)
	assert.Equal(t, Failed, p.State())
}

func TestPipeline_Empty(t *testing.T) {
	p := New()
	assert.Equal(t, Pending, p.State())
	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, Succeeded, p.State())
	assert.Empty(t, p.Report().Steps)
}

func TestPipeline_Observer(t *testing.T) {
	r := &recorder{}
	obs := &mockObserver{}
	p := New(r.step("one", nil), r.step("two", fmt.Errorf("x")), r.step("three", nil)).WithObserver(obs)

	require.Error(t, p.Execute(context.Background()))

	assert.Equal(t, []string{"1/3 one", "2/3 two"}, obs.started)
	assert.Equal(t, []string{"one", "two"}, obs.finished)
	assert.Equal(t, []string{"two"}, obs.failures)
}

func TestPipeline_Steps(t *testing.T) {
	r := &recorder{}
	p := New(r.step("x", nil), r.step("y", nil))

	assert.Equal(t, []string{"x", "y"}, p.Steps())
	assert.Empty(t, r.executed)
	assert.Equal(t, Pending, p.Report().Steps[0].State)
}
