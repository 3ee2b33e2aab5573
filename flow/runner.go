package flow

import (
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmflow/common"
)

// Lifecycle receives callbacks around step execution. Implementations
// typically write tool prologue/epilogue files or flush intermediate
// state between steps. Callback errors are logged and do not abort the
// run.
type Lifecycle interface {
	// PreSteps runs before the first executed step.
	PreSteps(ctx *Context, first Step) error
	// BetweenSteps runs between two consecutive executed steps. A
	// synthesized pause step is never passed as next; the step after it
	// is used instead, so pause insertion is invisible to observers.
	BetweenSteps(ctx *Context, prev, next Step) error
	// PostSteps runs exactly once after the last executed step, on
	// normal completion or on a pause. It does not run when a step
	// fails.
	PostSteps(ctx *Context) error
}

// NopLifecycle is a no-op Lifecycle, embeddable by implementations
// that only care about some callbacks.
type NopLifecycle struct{}

func (NopLifecycle) PreSteps(ctx *Context, first Step) error          { return nil }
func (NopLifecycle) BetweenSteps(ctx *Context, prev, next Step) error { return nil }
func (NopLifecycle) PostSteps(ctx *Context) error                     { return nil }

// Runner executes a mutated step sequence in order, honoring the
// resume marker and pause signals. A Runner is stateless across runs;
// all run state is local to one RunSteps call.
type Runner struct {
	log       *logrus.Entry
	lifecycle Lifecycle
}

// NewRunner creates a Runner reporting through the given log entry.
// A nil lifecycle gets the no-op implementation.
func NewRunner(log *logrus.Entry, lifecycle Lifecycle) *Runner {
	if lifecycle == nil {
		lifecycle = NopLifecycle{}
	}
	return &Runner{log: log, lifecycle: lifecycle}
}

// RunSteps applies the hook actions to the base sequence and executes
// the result in order. It returns true if every executed step
// succeeded; a pause counts as success. Validation errors (duplicate
// names, unknown targets, malformed hooks) abort before any step runs.
func (r *Runner) RunSteps(ctx *Context, steps []Step, hooks []HookAction) bool {
	mutated, marker, err := ApplyHooks(steps, hooks)
	if err != nil {
		r.log.Errorf("Hook application failed: %v", err)
		return false
	}
	return r.runMutated(ctx, mutated, marker)
}

func (r *Runner) runMutated(ctx *Context, steps []Step, marker *ResumeMarker) bool {
	var prev *Step
	paused := false

	for i := range steps {
		step := steps[i]
		stepLog := r.log.WithField(common.LogFieldStep, step.Name())
		stepLog.Debugf("Running sub-step '%s'", step.Name())

		doStep := true
		if marker != nil {
			if marker.Pre && marker.TargetName == step.Name() {
				stepLog.Infof("Resuming before '%s' due to resume hook", step.Name())
				marker = nil
			} else if !marker.Pre && marker.TargetName == step.Name() {
				stepLog.Infof("Resuming at '%s' due to resume hook; skipping ends after it completes", step.Name())
			} else {
				stepLog.Infof("Sub-step '%s' skipped due to resume hook", step.Name())
				doStep = false
			}
		}

		if doStep {
			if prev == nil {
				r.callPreSteps(ctx, step)
			} else {
				r.callBetweenSteps(ctx, *prev, steps, i)
			}

			result := r.invokeStep(ctx, step, stepLog)
			switch result {
			case Continue:
				prev = &steps[i]
			case Fail:
				stepLog.Errorf("Sub-step '%s' failed", step.Name())
				return false
			case Pause:
				stepLog.Infof("Sub-step '%s' paused the tool execution", step.Name())
				paused = true
			default:
				// A step must yield a definite result; anything else is
				// an engine contract violation.
				stepLog.Errorf("Sub-step '%s' returned invalid result %d", step.Name(), int(result))
				return false
			}
			if paused {
				break
			}
		}

		if marker != nil && !marker.Pre && marker.TargetName == step.Name() {
			r.log.Infof("Resuming after '%s' due to resume hook", step.Name())
			marker = nil
		}
	}

	r.callPostSteps(ctx)
	return true
}

// invokeStep runs a step action, converting a panic into a failed
// result. Actions must yield a definite Result; a panic is an engine
// contract violation, not a crash of the whole process.
func (r *Runner) invokeStep(ctx *Context, step Step, log *logrus.Entry) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("Sub-step '%s' panicked: %v", step.Name(), rec)
			result = Fail
		}
	}()
	return step.fn(ctx)
}

func (r *Runner) callPreSteps(ctx *Context, first Step) {
	if err := r.lifecycle.PreSteps(ctx, first); err != nil {
		r.log.Warnf("Pre-steps callback failed before '%s': %v", first.Name(), err)
	}
}

// callBetweenSteps invokes the between-steps callback for the step at
// index i. A pause step is transparent to observers: the callback gets
// the step after it, or nothing if the pause step is last.
func (r *Runner) callBetweenSteps(ctx *Context, prev Step, steps []Step, i int) {
	next := steps[i]
	if next.IsPause() {
		if i+1 >= len(steps) {
			return
		}
		next = steps[i+1]
	}
	if err := r.lifecycle.BetweenSteps(ctx, prev, next); err != nil {
		r.log.Warnf("Between-steps callback failed before '%s': %v", next.Name(), err)
	}
}

func (r *Runner) callPostSteps(ctx *Context) {
	if err := r.lifecycle.PostSteps(ctx); err != nil {
		r.log.Warnf("Post-steps callback failed: %v", err)
	}
}
