package flow

import (
	"github.com/pkg/errors"
)

// HookLocation selects how a hook action mutates the step sequence
// relative to its target step.
type HookLocation int

const (
	// ReplaceStep swaps the target step for the payload step, which
	// must carry the same name.
	ReplaceStep HookLocation = iota
	// InsertPreStep inserts the payload step immediately before the target.
	InsertPreStep
	// InsertPostStep inserts the payload step immediately after the target.
	InsertPostStep
	// ResumePreStep marks the target as the resume point; skipped steps
	// end just before it.
	ResumePreStep
	// ResumePostStep marks the target as the resume point; the target
	// itself runs and skipping ends once it completes.
	ResumePostStep
)

func (l HookLocation) String() string {
	switch l {
	case ReplaceStep:
		return "ReplaceStep"
	case InsertPreStep:
		return "InsertPreStep"
	case InsertPostStep:
		return "InsertPostStep"
	case ResumePreStep:
		return "ResumePreStep"
	case ResumePostStep:
		return "ResumePostStep"
	default:
		return "Invalid"
	}
}

func (l HookLocation) isInsert() bool {
	return l == InsertPreStep || l == InsertPostStep
}

func (l HookLocation) isResume() bool {
	return l == ResumePreStep || l == ResumePostStep
}

// HookAction is a declarative request to rewrite a step sequence
// relative to a named target step. Resume* actions carry no payload.
type HookAction struct {
	TargetName string
	Location   HookLocation
	Step       *Step
}

// MakeReplacementHook creates a hook action which replaces an existing
// step with a new action of the same name.
func MakeReplacementHook(target string, fn StepFunc) (HookAction, error) {
	s, err := NewStep(target, fn)
	if err != nil {
		return HookAction{}, err
	}
	return HookAction{
		TargetName: target,
		Location:   ReplaceStep,
		Step:       &s,
	}, nil
}

// MakeInsertionHook creates a hook action inserting a new named step
// relative to the target. location must be one of the Insert* kinds.
func MakeInsertionHook(target string, location HookLocation, name string, fn StepFunc) (HookAction, error) {
	if !location.isInsert() {
		return HookAction{}, errors.Wrapf(ErrInvalidHook, "insertion hook location must be Insert*, got %s", location)
	}
	s, err := NewStep(name, fn)
	if err != nil {
		return HookAction{}, err
	}
	return HookAction{
		TargetName: target,
		Location:   location,
		Step:       &s,
	}, nil
}

// MakePreInsertionHook inserts a new step before the target.
func MakePreInsertionHook(target, name string, fn StepFunc) (HookAction, error) {
	return MakeInsertionHook(target, InsertPreStep, name, fn)
}

// MakePostInsertionHook inserts a new step after the target.
func MakePostInsertionHook(target, name string, fn StepFunc) (HookAction, error) {
	return MakeInsertionHook(target, InsertPostStep, name, fn)
}

// MakeResumeHook creates a resume hook anchored to the target step.
// location must be one of the Resume* kinds. Only one resume hook may
// be present per hook list.
func MakeResumeHook(target string, location HookLocation) (HookAction, error) {
	if !location.isResume() {
		return HookAction{}, errors.Wrapf(ErrInvalidHook, "resume hook location must be Resume*, got %s", location)
	}
	return HookAction{
		TargetName: target,
		Location:   location,
	}, nil
}

// MakePrePauseHook pauses the run just before the target step.
func MakePrePauseHook(target string) (HookAction, error) {
	return insertPauseHook(target, InsertPreStep)
}

// MakePostPauseHook pauses the run just after the target step.
func MakePostPauseHook(target string) (HookAction, error) {
	return insertPauseHook(target, InsertPostStep)
}

func insertPauseHook(target string, location HookLocation) (HookAction, error) {
	s := PauseStep()
	return HookAction{
		TargetName: target,
		Location:   location,
		Step:       &s,
	}, nil
}

// MakePreResumeHook resumes the run at the target step; earlier steps
// are skipped.
func MakePreResumeHook(target string) (HookAction, error) {
	return MakeResumeHook(target, ResumePreStep)
}

// MakePostResumeHook resumes the run at the target step; skipping ends
// once the target completes.
func MakePostResumeHook(target string) (HookAction, error) {
	return MakeResumeHook(target, ResumePostStep)
}

// MakeRemovalHook removes a step by replacing it with a same-named
// no-op, so hooks anchored to the name remain valid.
func MakeRemovalHook(target string) (HookAction, error) {
	return MakeReplacementHook(target, func(ctx *Context) Result {
		return Continue
	})
}

// MakeFromToHooks produces the hooks for running a contiguous
// sub-range of a sequence, inclusive on both ends. An empty fromStep
// runs from the beginning; an empty toStep runs to the end.
func MakeFromToHooks(fromStep, toStep string) ([]HookAction, error) {
	var out []HookAction
	if fromStep != "" {
		h, err := MakePreResumeHook(fromStep)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if toStep != "" {
		h, err := MakePostPauseHook(toStep)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
