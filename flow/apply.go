package flow

import (
	"github.com/pkg/errors"
)

// ResumeMarker records the single pending "skip until here" directive
// derived from at most one resume hook per run.
type ResumeMarker struct {
	TargetName string
	// Pre selects whether skipping ends just before the target (true)
	// or once the target completes (false).
	Pre bool
}

// ApplyHooks validates the base sequence, applies all hook actions in
// input order and returns the mutated sequence plus the resume marker,
// if any. It is a pure function: the base slice is not modified.
//
// Hooks are resolved against the current working sequence, not the
// original base positions, so several insertions around the same
// target compose in hook-list order.
func ApplyHooks(base []Step, hooks []HookAction) ([]Step, *ResumeMarker, error) {
	names, err := checkDuplicates(base)
	if err != nil {
		return nil, nil, err
	}

	steps := make([]Step, len(base))
	copy(steps, base)

	var marker *ResumeMarker

	for _, action := range hooks {
		if _, ok := names[action.TargetName]; !ok {
			return nil, nil, errors.Wrapf(ErrUnknownTarget, "target step '%s'", action.TargetName)
		}

		idx := indexOf(steps, action.TargetName)

		switch action.Location {
		case ReplaceStep:
			if action.Step == nil {
				return nil, nil, errors.Wrapf(ErrInvalidHook, "ReplaceStep on '%s' requires a step", action.TargetName)
			}
			if action.Step.Name() != action.TargetName {
				return nil, nil, errors.Wrapf(ErrInvalidHook,
					"replacement step '%s' must share the target name '%s'", action.Step.Name(), action.TargetName)
			}
			steps[idx] = *action.Step

		case InsertPreStep, InsertPostStep:
			if action.Step == nil {
				return nil, nil, errors.Wrapf(ErrInvalidHook, "%s on '%s' requires a step", action.Location, action.TargetName)
			}
			if _, exists := names[action.Step.Name()]; exists {
				return nil, nil, errors.Wrapf(ErrDuplicateStep, "new step '%s' already exists", action.Step.Name())
			}
			at := idx
			if action.Location == InsertPostStep {
				at = idx + 1
			}
			steps = append(steps, Step{})
			copy(steps[at+1:], steps[at:])
			steps[at] = *action.Step
			names[action.Step.Name()] = struct{}{}

		case ResumePreStep, ResumePostStep:
			if marker != nil {
				return nil, nil, errors.Wrapf(ErrMultipleResumeHooks,
					"resume hook on '%s' conflicts with earlier resume hook on '%s'", action.TargetName, marker.TargetName)
			}
			marker = &ResumeMarker{
				TargetName: action.TargetName,
				Pre:        action.Location == ResumePreStep,
			}

		default:
			return nil, nil, errors.Wrapf(ErrInvalidHook, "unknown hook location %d", int(action.Location))
		}
	}

	// Re-validate the mutated sequence; replacement payloads cannot
	// introduce duplicates, but the re-check keeps the invariant local.
	if _, err := checkDuplicates(steps); err != nil {
		return nil, nil, err
	}

	for _, s := range steps {
		if !s.valid() {
			return nil, nil, errors.Wrapf(ErrBadStepFunc, "step '%s'", s.Name())
		}
	}

	return steps, marker, nil
}

// checkDuplicates verifies that no two steps share a name and returns
// the name membership set.
func checkDuplicates(steps []Step) (map[string]struct{}, error) {
	names := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		if _, seen := names[s.Name()]; seen {
			return nil, errors.Wrapf(ErrDuplicateStep, "step '%s'", s.Name())
		}
		names[s.Name()] = struct{}{}
	}
	return names, nil
}

func indexOf(steps []Step, name string) int {
	for i := range steps {
		if steps[i].Name() == name {
			return i
		}
	}
	return -1
}
