package flow

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmflow/settings"
)

func testEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := NewContext(ContextConfig{
		ToolName: "testtool",
		RunDir:   t.TempDir(),
		Log:      testEntry(),
		Settings: settings.NewDatabase(),
	})
	require.NoError(t, err)
	return ctx
}

// recordStep appends its name to trace when executed, then yields the
// given result.
func recordStep(name string, trace *[]string, result Result) Step {
	return MustStep(name, func(ctx *Context) Result {
		*trace = append(*trace, name)
		return result
	})
}

// okSteps builds a sequence of always-succeeding recording steps.
func okSteps(trace *[]string, names ...string) []Step {
	steps := make([]Step, 0, len(names))
	for _, n := range names {
		steps = append(steps, recordStep(n, trace, Continue))
	}
	return steps
}

// recLifecycle records lifecycle callback invocations.
type recLifecycle struct {
	events *[]string
}

func (l recLifecycle) PreSteps(ctx *Context, first Step) error {
	*l.events = append(*l.events, "pre:"+first.Name())
	return nil
}

func (l recLifecycle) BetweenSteps(ctx *Context, prev, next Step) error {
	*l.events = append(*l.events, "between:"+prev.Name()+"->"+next.Name())
	return nil
}

func (l recLifecycle) PostSteps(ctx *Context) error {
	*l.events = append(*l.events, "post")
	return nil
}

func stepNames(steps []Step) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name())
	}
	return names
}
