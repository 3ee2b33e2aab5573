package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSteps_AllInOrder(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), nil)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, trace)
}

func TestRunSteps_DuplicateNamesRunNothing(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	steps := []Step{
		recordStep("a", &trace, Continue),
		recordStep("a", &trace, Continue),
	}
	ok := r.RunSteps(ctx, steps, nil)
	assert.False(t, ok)
	assert.Empty(t, trace, "no action may run when validation fails")
}

func TestRunSteps_FailureStopsRun(t *testing.T) {
	var trace []string
	var events []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), recLifecycle{events: &events})

	steps := []Step{
		recordStep("a", &trace, Continue),
		recordStep("b", &trace, Fail),
		recordStep("c", &trace, Continue),
	}
	ok := r.RunSteps(ctx, steps, nil)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, trace)
	assert.NotContains(t, events, "post", "post-steps must not run after a hard failure")
}

func TestRunSteps_PauseStopsRunSuccessfully(t *testing.T) {
	var trace []string
	var events []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), recLifecycle{events: &events})

	steps := []Step{
		recordStep("a", &trace, Continue),
		recordStep("checkpoint", &trace, Pause),
		recordStep("c", &trace, Continue),
	}
	ok := r.RunSteps(ctx, steps, nil)
	assert.True(t, ok, "pausing is not a failure")
	assert.Equal(t, []string{"a", "checkpoint"}, trace)
	assert.Equal(t, "post", events[len(events)-1], "post-steps runs exactly once on pause")
	assert.Equal(t, 1, countOf(events, "post"))
}

func TestRunSteps_ResumePre(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	h, err := MakePreResumeHook("b")
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), []HookAction{h})
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, trace, "steps before the resume target are skipped, not invoked")
}

func TestRunSteps_ResumePost(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	h, err := MakePostResumeHook("b")
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), []HookAction{h})
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, trace, "the post-resume target runs; only steps before it are skipped")
}

func TestRunSteps_ResumePreAtFirstStep(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	h, err := MakePreResumeHook("a")
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b"), []HookAction{h})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, trace)
}

func TestRunSteps_LifecycleOrdering(t *testing.T) {
	var trace []string
	var events []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), recLifecycle{events: &events})

	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), nil)
	require.True(t, ok)
	assert.Equal(t, []string{"pre:a", "between:a->b", "between:b->c", "post"}, events)
}

func TestRunSteps_LifecycleWithResume(t *testing.T) {
	var trace []string
	var events []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), recLifecycle{events: &events})

	h, err := MakePreResumeHook("b")
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), []HookAction{h})
	require.True(t, ok)
	assert.Equal(t, []string{"pre:b", "between:b->c", "post"}, events,
		"pre-steps fires for the first step that actually executes")
}

func TestRunSteps_PauseStepTransparentToBetweenSteps(t *testing.T) {
	var trace []string
	var events []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), recLifecycle{events: &events})

	h, err := MakePostPauseHook("a")
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b"), []HookAction{h})
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, trace)
	// The inserted pause step is not reported as "next"; the observer
	// sees the step after it instead.
	assert.Equal(t, []string{"pre:a", "between:a->b", "post"}, events)
}

func TestRunSteps_TrailingPauseSkipsBetweenSteps(t *testing.T) {
	var trace []string
	var events []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), recLifecycle{events: &events})

	h, err := MakePostPauseHook("b")
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b"), []HookAction{h})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, trace)
	assert.Equal(t, []string{"pre:a", "between:a->b", "post"}, events,
		"a trailing pause step produces no between-steps call")
}

func TestRunSteps_InvalidResultIsFatal(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	steps := []Step{
		recordStep("a", &trace, Continue),
		MustStep("bogus", func(ctx *Context) Result { return Result(42) }),
		recordStep("c", &trace, Continue),
	}
	ok := r.RunSteps(ctx, steps, nil)
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, trace)
}

func TestRunSteps_PanickingStepFailsRun(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	steps := []Step{
		recordStep("a", &trace, Continue),
		MustStep("explode", func(ctx *Context) Result { panic("boom") }),
		recordStep("c", &trace, Continue),
	}
	ok := r.RunSteps(ctx, steps, nil)
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, trace, "a panicking action fails the run instead of crashing")
}

func TestRunSteps_ReplacementRuns(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	h, err := MakeReplacementHook("b", func(ctx *Context) Result {
		trace = append(trace, "b-replacement")
		return Continue
	})
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), []HookAction{h})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b-replacement", "c"}, trace)
}

func TestRunSteps_RemovalHook(t *testing.T) {
	var trace []string
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	removal, err := MakeRemovalHook("b")
	require.NoError(t, err)
	// The removed step keeps its name, so later hooks can still anchor
	// to it.
	insert, err := MakePostInsertionHook("b", "after-b", func(ctx *Context) Result {
		trace = append(trace, "after-b")
		return Continue
	})
	require.NoError(t, err)

	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), []HookAction{removal, insert})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "after-b", "c"}, trace)
}

func TestRunSteps_FromToHooks(t *testing.T) {
	ctx := testContext(t)
	r := NewRunner(testEntry(), nil)

	var trace []string
	hooks, err := MakeFromToHooks("b", "")
	require.NoError(t, err)
	ok := r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), hooks)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, trace)

	trace = nil
	hooks, err = MakeFromToHooks("", "b")
	require.NoError(t, err)
	ok = r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), hooks)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, trace)

	trace = nil
	hooks, err = MakeFromToHooks("b", "b")
	require.NoError(t, err)
	ok = r.RunSteps(ctx, okSteps(&trace, "a", "b", "c"), hooks)
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, trace, "from and to on the same step runs exactly that step")
}

func countOf(events []string, want string) int {
	n := 0
	for _, e := range events {
		if e == want {
			n++
		}
	}
	return n
}
