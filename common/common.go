package common

import (
	"io/fs"
	"path/filepath"
)

const (
	AppName    = "xmflow"
	TmpDirBase = "/tmp/"
)

func GetTmpDir() string {
	return filepath.Join(TmpDirBase, AppName) + "/"
}

// Log field keys used for ordered display by the logger formatter.
const (
	LogFieldApp  = "app"
	LogFieldFlow = "flow"
	LogFieldTool = "tool"
	LogFieldStep = "step"
	LogFieldHook = "hook"
	LogFieldRun  = "run"
)

const (
	// FileMode0755 represents rwxr-xr-x
	FileMode0755 fs.FileMode = 0755
	// FileMode0644 represents rw-r--r--
	FileMode0644 fs.FileMode = 0644
	// FileMode0600 represents rw-------
	FileMode0600 fs.FileMode = 0600
	// FileMode0700 represents rwx------
	FileMode0700 fs.FileMode = 0700
)

// RunState describes the coarse outcome of a tool run for reporting purposes.
type RunState int

const (
	RunStatePending RunState = iota
	RunStateRunning
	RunStateSucceeded
	RunStateFailed
	RunStatePaused
)

func (s RunState) String() string {
	switch s {
	case RunStatePending:
		return "Pending"
	case RunStateRunning:
		return "Running"
	case RunStateSucceeded:
		return "Succeeded"
	case RunStateFailed:
		return "Failed"
	case RunStatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}
