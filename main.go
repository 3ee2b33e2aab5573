package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mensylisir/xmflow/common"
	"github.com/mensylisir/xmflow/flow"
	"github.com/mensylisir/xmflow/logger"
	"github.com/mensylisir/xmflow/settings"
	"github.com/mensylisir/xmflow/submitter"
	"github.com/mensylisir/xmflow/tech"
	"github.com/mensylisir/xmflow/tools/script"
)

var (
	flagLogLevel string
	flagLogDir   string
	flagVerbose  bool

	flagSettings []string
	flagTech     string
	flagTool     string
	flagRunDir   string
	flagEnv      []string

	flagFromStep    string
	flagToStep      string
	flagStartBefore string
	flagStartAfter  string
	flagStopBefore  string
	flagStopAfter   string
)

func main() {
	root := &cobra.Command{
		Use:          common.AppName,
		Short:        "Hook-driven step pipeline runner for CAD tool flows",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(flagLogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level '%s': %w", flagLogLevel, err)
			}
			return logger.InitGlobalLogger(flagLogDir, flagVerbose, level)
		},
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Directory for rotated log files (console if empty)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scripted tool from the settings database",
		RunE:  runTool,
	}
	runCmd.Flags().StringSliceVarP(&flagSettings, "settings", "s", nil, "Settings YAML file(s), later files override earlier ones")
	runCmd.Flags().StringVar(&flagTech, "tech", "", "Technology YAML file")
	runCmd.Flags().StringVarP(&flagTool, "tool", "t", "", "Tool name (settings prefix) to run")
	runCmd.Flags().StringVar(&flagRunDir, "run-dir", "", "Run directory (defaults to ./<tool>-rundir)")
	runCmd.Flags().StringArrayVarP(&flagEnv, "env", "e", nil, "Extra KEY=VALUE environment for submitted commands")
	runCmd.Flags().StringVar(&flagFromStep, "from-step", "", "Run from the given step, inclusive")
	runCmd.Flags().StringVar(&flagToStep, "to-step", "", "Run to the given step, inclusive")
	runCmd.Flags().StringVar(&flagStartBefore, "start-before-step", "", "Resume just before the given step")
	runCmd.Flags().StringVar(&flagStartAfter, "start-after-step", "", "Resume just after the given step")
	runCmd.Flags().StringVar(&flagStopBefore, "stop-before-step", "", "Pause just before the given step")
	runCmd.Flags().StringVar(&flagStopAfter, "stop-after-step", "", "Pause just after the given step")
	_ = runCmd.MarkFlagRequired("settings")
	_ = runCmd.MarkFlagRequired("tool")
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTool(cmd *cobra.Command, args []string) error {
	log := logger.Log.WithField(common.LogFieldApp, common.AppName)

	db := settings.NewDatabase()
	for _, path := range flagSettings {
		if err := db.Load(path); err != nil {
			return err
		}
	}

	var techProvider tech.Provider
	if flagTech != "" {
		t, err := tech.Load(flagTech)
		if err != nil {
			return err
		}
		techProvider = t
		log.Infof("Loaded technology '%s'", t.Name())
	}

	hooks, err := buildHooks()
	if err != nil {
		return err
	}

	extraEnv, err := parseEnv(flagEnv)
	if err != nil {
		return err
	}

	sub, err := buildSubmitter(db)
	if err != nil {
		return err
	}
	defer sub.Close()

	runDir := flagRunDir
	if runDir == "" {
		runDir = filepath.Join(".", flagTool+"-rundir")
	}

	tool, err := script.NewTool(flagTool, db)
	if err != nil {
		return err
	}

	ctx, err := flow.NewContext(flow.ContextConfig{
		ToolName:  flagTool,
		RunDir:    runDir,
		Log:       log,
		Settings:  db,
		Tech:      techProvider,
		Submitter: sub,
		ExtraEnv:  extraEnv,
		Ctx:       cmd.Context(),
	})
	if err != nil {
		return err
	}

	if !tool.Run(ctx, hooks...) {
		return fmt.Errorf("tool '%s' failed", flagTool)
	}
	return nil
}

// buildHooks translates the step-range flags into hook actions.
// --from-step/--to-step are shorthand for the start-before/stop-after
// pair and may not be combined with them.
func buildHooks() ([]flow.HookAction, error) {
	if flagFromStep != "" && flagStartBefore != "" {
		return nil, fmt.Errorf("--from-step and --start-before-step are mutually exclusive")
	}
	if flagFromStep != "" && flagStartAfter != "" {
		return nil, fmt.Errorf("--from-step and --start-after-step are mutually exclusive")
	}
	if flagStartBefore != "" && flagStartAfter != "" {
		return nil, fmt.Errorf("--start-before-step and --start-after-step are mutually exclusive")
	}
	if flagToStep != "" && (flagStopBefore != "" || flagStopAfter != "") {
		return nil, fmt.Errorf("--to-step and --stop-*-step are mutually exclusive")
	}
	if flagStopBefore != "" && flagStopAfter != "" {
		return nil, fmt.Errorf("--stop-before-step and --stop-after-step are mutually exclusive")
	}

	var hooks []flow.HookAction
	appendHook := func(mk func(string) (flow.HookAction, error), target string) error {
		if target == "" {
			return nil
		}
		h, err := mk(target)
		if err != nil {
			return err
		}
		hooks = append(hooks, h)
		return nil
	}

	if err := appendHook(flow.MakePreResumeHook, flagFromStep); err != nil {
		return nil, err
	}
	if err := appendHook(flow.MakePreResumeHook, flagStartBefore); err != nil {
		return nil, err
	}
	if err := appendHook(flow.MakePostResumeHook, flagStartAfter); err != nil {
		return nil, err
	}
	if err := appendHook(flow.MakePostPauseHook, flagToStep); err != nil {
		return nil, err
	}
	if err := appendHook(flow.MakePrePauseHook, flagStopBefore); err != nil {
		return nil, err
	}
	if err := appendHook(flow.MakePostPauseHook, flagStopAfter); err != nil {
		return nil, err
	}
	return hooks, nil
}

// buildSubmitter returns an SSH submitter when the settings declare a
// remote compute host, a local one otherwise.
func buildSubmitter(db *settings.Database) (submitter.Submitter, error) {
	if !db.Has("submit.ssh.address") {
		return submitter.NewLocalSubmitter(), nil
	}
	cfg := submitter.SSHConfig{
		Address:        db.GetString("submit.ssh.address"),
		Username:       db.GetString("submit.ssh.user"),
		Password:       db.GetString("submit.ssh.password"),
		PrivateKeyPath: db.GetString("submit.ssh.private_key_path"),
	}
	if port, ok := db.Get("submit.ssh.port"); ok {
		if p, isInt := port.(int); isInt {
			cfg.Port = p
		}
	}
	return submitter.NewSSHSubmitter(cfg)
}

func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env entry '%s', expected KEY=VALUE", p)
		}
		env[k] = v
	}
	return env, nil
}
