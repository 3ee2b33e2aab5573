package submitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// localSubmitter implements Submitter for the local machine.
type localSubmitter struct{}

// NewLocalSubmitter creates a Submitter that runs commands on the
// local machine through /bin/bash.
func NewLocalSubmitter() Submitter {
	return &localSubmitter{}
}

func (l *localSubmitter) Submit(ctx context.Context, command string, env map[string]string) (*Result, error) {
	if command == "" {
		return nil, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, "/bin/bash", "-c", command)
	cmd.Env = mergedEnv(env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, errors.Wrapf(err, "failed to run command '%s'", command)
	}
	return res, nil
}

func (l *localSubmitter) PutFile(ctx context.Context, localPath, targetPath string, mode os.FileMode) error {
	src, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open source file %s", localPath)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", targetPath)
	}

	dst, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrapf(err, "failed to create target file %s", targetPath)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "failed to copy %s to %s", localPath, targetPath)
	}
	return nil
}

func (l *localSubmitter) Close() error {
	return nil
}

// mergedEnv combines the process environment with per-submission
// extras, extras winning. Sorted for deterministic submission records.
func mergedEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return os.Environ()
	}
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return env
}
