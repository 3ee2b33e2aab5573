// Package flow implements the hook-driven step pipeline engine: named
// steps are assembled into an ordered sequence, hook actions rewrite
// that sequence per invocation (replace, insert, resume markers), and a
// runner executes the result with pause/resume checkpoint support.
package flow

import (
	"github.com/pkg/errors"
)

// Result is the tri-state outcome of a step action. Pause is a
// deliberate, recoverable suspension of the run, not a failure.
type Result int

const (
	// Continue means the step succeeded; the run proceeds.
	Continue Result = iota
	// Fail means the step failed; the run stops and reports failure.
	Fail
	// Pause stops the run at this step boundary; the caller may resume
	// later by re-invoking with a resume hook.
	Pause
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "Continue"
	case Fail:
		return "Fail"
	case Pause:
		return "Pause"
	default:
		return "Invalid"
	}
}

// StepFunc is the contract every step action must satisfy. Actions may
// have external side effects (submitting tool commands, writing run
// files) but must report a definite Result to the engine.
type StepFunc func(ctx *Context) Result

// Step is an immutable named unit of pipeline work. Within one
// executed sequence all step names must be distinct.
type Step struct {
	name  string
	fn    StepFunc
	pause bool
}

// NewStep builds a Step from a name and an action.
func NewStep(name string, fn StepFunc) (Step, error) {
	if name == "" {
		return Step{}, errors.Wrap(ErrBadStepFunc, "step name cannot be empty")
	}
	if fn == nil {
		return Step{}, errors.Wrapf(ErrBadStepFunc, "step '%s' has a nil action", name)
	}
	return Step{name: name, fn: fn}, nil
}

// MustStep is NewStep for statically known tool definitions; it panics
// on a malformed step so broken tools fail at construction, not mid-run.
func MustStep(name string, fn StepFunc) Step {
	s, err := NewStep(name, fn)
	if err != nil {
		panic(err)
	}
	return s
}

// NamedFunc pairs a step name with its action, for building sequences
// from method lists.
type NamedFunc struct {
	Name string
	Func StepFunc
}

// MakeStepsFromFuncs builds a step sequence from an ordered list of
// named actions.
func MakeStepsFromFuncs(funcs []NamedFunc) ([]Step, error) {
	steps := make([]Step, 0, len(funcs))
	for _, nf := range funcs {
		s, err := NewStep(nf.Name, nf.Func)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// PauseStepName is the conventional name of synthesized pause steps.
const PauseStepName = "pause"

// PauseStep returns a step that suspends the run when reached. The
// pause property is structural, so the runner's between-steps callback
// can skip over it regardless of the step's name.
func PauseStep() Step {
	return Step{
		name:  PauseStepName,
		pause: true,
		fn: func(ctx *Context) Result {
			return Pause
		},
	}
}

// Name returns the step's unique name.
func (s Step) Name() string {
	return s.name
}

// IsPause reports whether this step is a synthesized pause point.
func (s Step) IsPause() bool {
	return s.pause
}

// valid reports whether the step satisfies the engine contract.
func (s Step) valid() bool {
	return s.name != "" && s.fn != nil
}
