package flow

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmflow/cache"
	"github.com/mensylisir/xmflow/common"
	"github.com/mensylisir/xmflow/settings"
	"github.com/mensylisir/xmflow/submitter"
	"github.com/mensylisir/xmflow/tech"
)

// ContextConfig declares the collaborators a run needs. ToolName,
// RunDir, Log and Settings are mandatory; a run without them is a
// configuration error at construction time, not a mid-run surprise.
type ContextConfig struct {
	ToolName  string
	RunDir    string
	Log       *logrus.Entry
	Settings  settings.Provider
	Tech      tech.Provider       // optional, for steps that need library metadata
	Submitter submitter.Submitter // optional, for steps that submit tool commands
	ExtraEnv  map[string]string   // extra environment for submitted commands
	Ctx       context.Context     // optional, defaults to context.Background()
}

// Context is the per-run execution context handed to every step
// action. It is built once per invocation and never shared across
// concurrent runs.
type Context struct {
	toolName  string
	runDir    string
	runID     string
	log       *logrus.Entry
	settings  settings.Provider
	tech      tech.Provider
	submitter submitter.Submitter
	extraEnv  map[string]string
	ctx       context.Context

	// Attrs is the run-local attribute store for inter-step handoff
	// values and tool outputs.
	Attrs *cache.Store[string, interface{}]
}

// NewContext validates the configuration and builds a run context with
// a fresh run ID.
func NewContext(cfg ContextConfig) (*Context, error) {
	if cfg.ToolName == "" {
		return nil, errors.New("context: tool name is required")
	}
	if cfg.RunDir == "" {
		return nil, errors.New("context: run directory is required")
	}
	if cfg.Log == nil {
		return nil, errors.New("context: logger is required")
	}
	if cfg.Settings == nil {
		return nil, errors.New("context: settings provider is required")
	}
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}

	runID := uuid.NewString()
	return &Context{
		toolName: cfg.ToolName,
		runDir:   cfg.RunDir,
		runID:    runID,
		log: cfg.Log.WithFields(logrus.Fields{
			common.LogFieldTool: cfg.ToolName,
			common.LogFieldRun:  runID,
		}),
		settings:  cfg.Settings,
		tech:      cfg.Tech,
		submitter: cfg.Submitter,
		extraEnv:  cfg.ExtraEnv,
		ctx:       cfg.Ctx,
		Attrs:     cache.NewStore[string, interface{}](),
	}, nil
}

// ToolName returns the name of the tool being run.
func (c *Context) ToolName() string { return c.toolName }

// RunDir returns the directory this run writes its artifacts into.
func (c *Context) RunDir() string { return c.runDir }

// RunID returns the unique identifier of this invocation.
func (c *Context) RunID() string { return c.runID }

// Log returns the run-scoped log entry.
func (c *Context) Log() *logrus.Entry { return c.log }

// Settings returns the configuration lookup.
func (c *Context) Settings() settings.Provider { return c.settings }

// Tech returns the technology provider, or nil if the tool has none.
func (c *Context) Tech() tech.Provider { return c.tech }

// Submitter returns the command submitter, or nil if the tool has none.
func (c *Context) Submitter() submitter.Submitter { return c.submitter }

// ExtraEnv returns the extra environment for submitted commands.
func (c *Context) ExtraEnv() map[string]string { return c.extraEnv }

// Ctx returns the cancellation context steps should pass to blocking
// collaborator calls.
func (c *Context) Ctx() context.Context { return c.ctx }

// GetSetting resolves a dotted settings key.
func (c *Context) GetSetting(key string) (interface{}, bool) {
	return c.settings.Get(key)
}
