package flow

import (
	"github.com/pkg/errors"
)

// Engine configuration errors. All of them are detected before any
// step executes; a run that trips one performs no partial work.
var (
	// ErrDuplicateStep reports two steps sharing a name, either in the
	// base sequence or after hook application.
	ErrDuplicateStep = errors.New("duplicate step name")

	// ErrUnknownTarget reports a hook anchored to a step name that does
	// not exist at application time.
	ErrUnknownTarget = errors.New("hook target step does not exist")

	// ErrInvalidHook reports a malformed hook action: a replacement
	// payload whose name differs from its target, a missing payload, or
	// a factory invoked with the wrong location kind.
	ErrInvalidHook = errors.New("invalid hook action")

	// ErrMultipleResumeHooks reports more than one resume hook in a
	// single hook list.
	ErrMultipleResumeHooks = errors.New("more than one resume hook is present")

	// ErrBadStepFunc reports a step whose action does not satisfy the
	// engine contract (empty name or nil action).
	ErrBadStepFunc = errors.New("step action does not satisfy the step contract")
)
