package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmflow/common"
)

// Log is the global logger instance.
var Log *FlowLog

// FlowLog wraps logrus.Logger for application-specific logging.
type FlowLog struct {
	*logrus.Logger
}

func init() {
	// A console logger is always available; callers may re-initialize with
	// InitGlobalLogger to enable file output.
	if err := InitGlobalLogger("", false, logrus.InfoLevel); err != nil {
		panic(fmt.Sprintf("failed to initialize default logger: %v", err))
	}
}

// fieldsOrder controls the display order of the well-known context fields.
func fieldsOrder() []string {
	return []string{
		common.LogFieldApp,
		common.LogFieldFlow,
		common.LogFieldTool,
		common.LogFieldStep,
		common.LogFieldHook,
		common.LogFieldRun,
	}
}

// InitGlobalLogger initializes the global Log variable.
// If outputPath is non-empty, log entries are written to rotating files
// under that directory; otherwise entries go to the console.
func InitGlobalLogger(outputPath string, verbose bool, defaultLevel logrus.Level) error {
	l, err := newLogrusLogger(outputPath, verbose, defaultLevel)
	if err != nil {
		return err
	}
	Log = &FlowLog{Logger: l}
	return nil
}

// NewFlowLog creates an independent logger instance, e.g. for a single
// tool run writing into its own run directory.
func NewFlowLog(outputPath string, verbose bool, defaultLevel logrus.Level) (*FlowLog, error) {
	l, err := newLogrusLogger(outputPath, verbose, defaultLevel)
	if err != nil {
		return nil, err
	}
	return &FlowLog{Logger: l}, nil
}

func newLogrusLogger(outputPath string, verbose bool, defaultLevel logrus.Level) (*logrus.Logger, error) {
	l := logrus.New()

	level := defaultLevel
	if verbose {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)
	l.SetReportCaller(true)

	displayLevel := ShowAboveWarn
	if verbose {
		displayLevel = ShowAll
	}

	if outputPath == "" {
		l.SetFormatter(&Formatter{
			TimestampFormat:        "15:04:05",
			NoColors:               false,
			DisplayLevelName:       displayLevel,
			DisableCaller:          true,
			FieldsDisplayWithOrder: fieldsOrder(),
		})
		l.SetOutput(os.Stdout)
		return l, nil
	}

	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log output directory %s: %w", outputPath, err)
	}
	logFilePath := filepath.Join(outputPath, common.AppName+".log")

	writer, err := rotatelogs.New(
		logFilePath+".%Y%m%d", // Daily rotation
		rotatelogs.WithLinkName(logFilePath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rotatelogs for %s: %w", logFilePath, err)
	}

	fileFormatter := &Formatter{
		TimestampFormat:        "2006-01-02 15:04:05.000 MST",
		NoColors:               true,
		DisplayLevelName:       displayLevel,
		FieldsDisplayWithOrder: fieldsOrder(),
		FieldSeparator:         " | ",
		DisableCaller:          false,
		CustomCallerFormatter: func(frame *runtime.Frame) string {
			return fmt.Sprintf(" [%s:%d %s]", filepath.Base(frame.File), frame.Line, filepath.Base(frame.Function))
		},
	}
	l.SetFormatter(fileFormatter)

	logWriters := lfshook.WriterMap{}
	for _, lv := range logrus.AllLevels {
		if l.IsLevelEnabled(lv) {
			logWriters[lv] = writer
		}
	}
	if len(logWriters) > 0 {
		l.Hooks.Add(lfshook.NewHook(logWriters, fileFormatter))
		// File logging goes through the hook; drop the default stream so
		// entries are not duplicated.
		l.SetOutput(io.Discard)
	}

	return l, nil
}

// ForTool returns an entry scoped with the tool name field.
func (fl *FlowLog) ForTool(tool string) *logrus.Entry {
	return fl.WithField(common.LogFieldTool, tool)
}

// ForStep returns an entry scoped with tool and step name fields.
func (fl *FlowLog) ForStep(tool, step string) *logrus.Entry {
	return fl.WithFields(logrus.Fields{
		common.LogFieldTool: tool,
		common.LogFieldStep: step,
	})
}
