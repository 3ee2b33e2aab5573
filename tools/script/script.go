// Package script builds a runnable tool whose steps are declared in
// the settings database as an ordered list of shell commands. It is
// the generic tool used by the CLI and a template for writing concrete
// tool integrations.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mensylisir/xmflow/common"
	"github.com/mensylisir/xmflow/flow"
	"github.com/mensylisir/xmflow/settings"
)

// stepSpec is one entry of the "<tool>.script.steps" settings list.
type stepSpec struct {
	Name    string
	Command string
}

// NewTool builds a flow.Tool named toolName from the settings database.
// Steps come from "<toolName>.script.steps", a list of {name, command}
// entries executed through the run context's submitter.
func NewTool(toolName string, db settings.Provider) (*flow.Tool, error) {
	specs, err := stepSpecs(toolName, db)
	if err != nil {
		return nil, err
	}

	steps := make([]flow.Step, 0, len(specs))
	for _, spec := range specs {
		steps = append(steps, commandStep(spec))
	}

	desc := fmt.Sprintf("scripted tool with %d steps", len(steps))
	return flow.NewTool(toolName, desc, steps, &progressLifecycle{})
}

func stepSpecs(toolName string, db settings.Provider) ([]stepSpec, error) {
	key := toolName + ".script.steps"
	raw, ok := db.Get(key)
	if !ok {
		return nil, errors.Errorf("setting '%s' is not defined", key)
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Errorf("setting '%s' must be a list of step entries", key)
	}

	specs := make([]stepSpec, 0, len(list))
	for i, e := range list {
		entry, ok := e.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("step entry %d of '%s' must be a mapping", i, key)
		}
		name, _ := entry["name"].(string)
		command, _ := entry["command"].(string)
		if name == "" || command == "" {
			return nil, errors.Errorf("step entry %d of '%s' needs both a name and a command", i, key)
		}
		specs = append(specs, stepSpec{Name: name, Command: os.ExpandEnv(command)})
	}
	return specs, nil
}

// commandStep wraps a shell command into a step action. The command's
// stdout/stderr are captured into the run directory; a non-zero exit
// code fails the step.
func commandStep(spec stepSpec) flow.Step {
	return flow.MustStep(spec.Name, func(ctx *flow.Context) flow.Result {
		log := ctx.Log().WithField(common.LogFieldStep, spec.Name)

		sub := ctx.Submitter()
		if sub == nil {
			log.Error("No submitter configured; cannot run scripted step")
			return flow.Fail
		}

		res, err := sub.Submit(ctx.Ctx(), spec.Command, ctx.ExtraEnv())
		if err != nil {
			log.Errorf("Submission failed: %v", err)
			return flow.Fail
		}

		outPath := filepath.Join(ctx.RunDir(), spec.Name+".out")
		record := fmt.Sprintf("# exit=%d\n# command=%s\n%s", res.ExitCode, spec.Command, res.Stdout)
		if res.Stderr != "" {
			record += "\n# stderr:\n" + res.Stderr
		}
		if werr := os.WriteFile(outPath, []byte(record), common.FileMode0644); werr != nil {
			log.Warnf("Could not record step output: %v", werr)
		}

		if res.ExitCode != 0 {
			log.Errorf("Command exited with code %d", res.ExitCode)
			return flow.Fail
		}

		ctx.Attrs.Set(spec.Name+".stdout", strings.TrimRight(res.Stdout, "\n"))
		return flow.Continue
	})
}

// progressLifecycle appends a progress line per step boundary into
// steps.log in the run directory, so a paused run shows where it
// stopped.
type progressLifecycle struct{}

func (p *progressLifecycle) PreSteps(ctx *flow.Context, first flow.Step) error {
	return p.appendLine(ctx, "start -> "+first.Name())
}

func (p *progressLifecycle) BetweenSteps(ctx *flow.Context, prev, next flow.Step) error {
	return p.appendLine(ctx, prev.Name()+" -> "+next.Name())
}

func (p *progressLifecycle) PostSteps(ctx *flow.Context) error {
	return p.appendLine(ctx, "end")
}

func (p *progressLifecycle) appendLine(ctx *flow.Context, line string) error {
	f, err := os.OpenFile(filepath.Join(ctx.RunDir(), "steps.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, common.FileMode0644)
	if err != nil {
		return errors.Wrap(err, "failed to open steps.log")
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}
