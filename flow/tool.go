package flow

import (
	"os"
	"path/filepath"

	"github.com/mensylisir/xmflow/settings"
)

// Tool is a named, ordered step sequence with an optional lifecycle.
// The sequence is fixed at construction; per-invocation rewrites go
// through hook actions instead.
type Tool struct {
	name        string
	description string
	steps       []Step
	lifecycle   Lifecycle
}

// NewTool builds a Tool, rejecting sequences with duplicate or
// malformed steps up front.
func NewTool(name, description string, steps []Step, lifecycle Lifecycle) (*Tool, error) {
	if _, err := checkDuplicates(steps); err != nil {
		return nil, err
	}
	for _, s := range steps {
		if !s.valid() {
			return nil, ErrBadStepFunc
		}
	}
	owned := make([]Step, len(steps))
	copy(owned, steps)
	return &Tool{
		name:        name,
		description: description,
		steps:       owned,
		lifecycle:   lifecycle,
	}, nil
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *Tool) Description() string {
	return t.description
}

// Steps returns a copy of the base step sequence.
func (t *Tool) Steps() []Step {
	s := make([]Step, len(t.steps))
	copy(s, t.steps)
	return s
}

// Run prepares the run directory, records the resolved settings, then
// executes the tool's steps with the given hook actions. It returns
// true if the run succeeded or paused, false on any failure.
func (t *Tool) Run(ctx *Context, hooks ...HookAction) bool {
	log := ctx.Log()

	if err := os.MkdirAll(ctx.RunDir(), 0755); err != nil {
		log.Errorf("Failed to create run directory %s: %v", ctx.RunDir(), err)
		return false
	}

	// Keep a record of the exact configuration this run saw.
	if db, ok := ctx.Settings().(*settings.Database); ok {
		dumpPath := filepath.Join(ctx.RunDir(), "settings-dump.yml")
		if err := db.Dump(dumpPath); err != nil {
			log.Warnf("Failed to dump settings snapshot: %v", err)
		}
	}

	log.Infof("Running tool '%s' (%s) with %d base steps and %d hooks",
		t.name, t.description, len(t.steps), len(hooks))

	runner := NewRunner(log, t.lifecycle)
	ok := runner.RunSteps(ctx, t.steps, hooks)
	if ok {
		log.Infof("Tool '%s' finished successfully", t.name)
	} else {
		log.Errorf("Tool '%s' failed", t.name)
	}
	return ok
}
