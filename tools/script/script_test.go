package script

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmflow/flow"
	"github.com/mensylisir/xmflow/settings"
	"github.com/mensylisir/xmflow/submitter"
)

func scriptSettings() *settings.Database {
	return settings.NewDatabase(map[string]interface{}{
		"demo": map[string]interface{}{
			"script": map[string]interface{}{
				"steps": []interface{}{
					map[string]interface{}{"name": "hello", "command": "echo hello"},
					map[string]interface{}{"name": "world", "command": "echo world"},
				},
			},
		},
	})
}

func testEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newRunContext(t *testing.T, db *settings.Database) *flow.Context {
	t.Helper()
	ctx, err := flow.NewContext(flow.ContextConfig{
		ToolName:  "demo",
		RunDir:    t.TempDir(),
		Log:       testEntry(),
		Settings:  db,
		Submitter: submitter.NewLocalSubmitter(),
	})
	require.NoError(t, err)
	return ctx
}

func TestNewTool_RunsScriptedSteps(t *testing.T) {
	db := scriptSettings()
	tool, err := NewTool("demo", db)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"},
		[]string{tool.Steps()[0].Name(), tool.Steps()[1].Name()})

	ctx := newRunContext(t, db)
	require.True(t, tool.Run(ctx))

	// Step stdout is captured both as a run attribute and on disk.
	v, ok := ctx.Attrs.Get("hello.stdout")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	data, err := os.ReadFile(filepath.Join(ctx.RunDir(), "world.out"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "world")

	progress, err := os.ReadFile(filepath.Join(ctx.RunDir(), "steps.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(progress)), "\n")
	assert.Equal(t, []string{"start -> hello", "hello -> world", "end"}, lines)
}

func TestNewTool_FailingCommandFailsRun(t *testing.T) {
	db := settings.NewDatabase(map[string]interface{}{
		"demo": map[string]interface{}{
			"script": map[string]interface{}{
				"steps": []interface{}{
					map[string]interface{}{"name": "boom", "command": "exit 7"},
					map[string]interface{}{"name": "never", "command": "echo unreachable"},
				},
			},
		},
	})
	tool, err := NewTool("demo", db)
	require.NoError(t, err)

	ctx := newRunContext(t, db)
	assert.False(t, tool.Run(ctx))

	_, err = os.Stat(filepath.Join(ctx.RunDir(), "never.out"))
	assert.True(t, os.IsNotExist(err), "steps after a failure must not run")
}

func TestNewTool_HooksRewriteScriptedSteps(t *testing.T) {
	db := scriptSettings()
	tool, err := NewTool("demo", db)
	require.NoError(t, err)

	hooks, err := flow.MakeFromToHooks("world", "")
	require.NoError(t, err)

	ctx := newRunContext(t, db)
	require.True(t, tool.Run(ctx, hooks...))

	_, ok := ctx.Attrs.Get("hello.stdout")
	assert.False(t, ok, "skipped step must not execute")
	_, ok = ctx.Attrs.Get("world.stdout")
	assert.True(t, ok)
}

func TestNewTool_ConfigErrors(t *testing.T) {
	_, err := NewTool("demo", settings.NewDatabase())
	assert.Error(t, err)

	_, err = NewTool("demo", settings.NewDatabase(map[string]interface{}{
		"demo": map[string]interface{}{
			"script": map[string]interface{}{"steps": "not-a-list"},
		},
	}))
	assert.Error(t, err)

	_, err = NewTool("demo", settings.NewDatabase(map[string]interface{}{
		"demo": map[string]interface{}{
			"script": map[string]interface{}{
				"steps": []interface{}{map[string]interface{}{"name": "x"}},
			},
		},
	}))
	assert.Error(t, err)
}

func TestNewTool_NoSubmitter(t *testing.T) {
	db := scriptSettings()
	tool, err := NewTool("demo", db)
	require.NoError(t, err)

	ctx, err := flow.NewContext(flow.ContextConfig{
		ToolName: "demo",
		RunDir:   t.TempDir(),
		Log:      testEntry(),
		Settings: db,
	})
	require.NoError(t, err)
	assert.False(t, tool.Run(ctx), "a scripted tool without a submitter must fail, not panic")
}
