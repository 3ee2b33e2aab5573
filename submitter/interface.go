// Package submitter runs external tool processes on behalf of step
// actions. The pipeline engine itself never submits commands; it only
// carries a Submitter in the run context for steps to use.
package submitter

import (
	"context"
	"os"
)

// Result captures the outcome of a submitted command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Submitter executes commands on a target (local machine or a remote
// compute host) and delivers files to it.
type Submitter interface {
	// Submit runs the command through a shell on the target. env holds
	// extra environment variables for this submission only. A non-zero
	// exit code is reported in Result, not as an error; err is reserved
	// for failures to run the command at all.
	Submit(ctx context.Context, command string, env map[string]string) (*Result, error)

	// PutFile delivers a local file to the target path, creating parent
	// directories as needed.
	PutFile(ctx context.Context, localPath, targetPath string, mode os.FileMode) error

	// Close releases any underlying connections.
	Close() error
}
