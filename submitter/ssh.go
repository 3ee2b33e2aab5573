package submitter

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHConfig describes a remote compute host used for tool submission.
type SSHConfig struct {
	Address        string
	Port           int
	Username       string
	Password       string
	PrivateKeyPath string
	Timeout        time.Duration
}

func (c SSHConfig) validate() error {
	if c.Address == "" {
		return errors.New("ssh submitter: address is required")
	}
	if c.Username == "" {
		return errors.New("ssh submitter: username is required")
	}
	if c.Password == "" && c.PrivateKeyPath == "" {
		return errors.New("ssh submitter: either password or private key path is required")
	}
	return nil
}

// sshSubmitter implements Submitter over an SSH connection, with SFTP
// for file delivery.
type sshSubmitter struct {
	cfg    SSHConfig
	client *ssh.Client
	sftpc  *sftp.Client
}

// NewSSHSubmitter dials the configured host and returns a Submitter
// bound to it. The caller owns the connection and must Close it.
func NewSSHSubmitter(cfg SSHConfig) (Submitter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	var authMethods []ssh.AuthMethod
	if cfg.Password != "" {
		authMethods = append(authMethods, ssh.Password(cfg.Password))
	}
	if cfg.PrivateKeyPath != "" {
		keyData, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read private key %s", cfg.PrivateKeyPath)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse private key %s", cfg.PrivateKeyPath)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	sshClientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Timeout:         cfg.Timeout,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	endpoint := net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))
	client, err := ssh.Dial("tcp", endpoint, sshClientConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "could not establish connection to %s", endpoint)
	}

	sftpc, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to create SFTP client")
	}

	return &sshSubmitter{cfg: cfg, client: client, sftpc: sftpc}, nil
}

func (s *sshSubmitter) Submit(ctx context.Context, command string, env map[string]string) (*Result, error) {
	if command == "" {
		return nil, errors.New("empty command")
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ssh session")
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	// Many sshd deployments reject Setenv; exporting inline is the
	// portable way to scope variables to the submission.
	full := strings.TrimSpace(command)
	if prefix := exportPrefix(env); prefix != "" {
		full = prefix + " " + full
	}

	if err := sess.Start(full); err != nil {
		return nil, errors.Wrapf(err, "failed to start command: %s", command)
	}

	waitDone := make(chan error, 1)
	go func() {
		waitDone <- sess.Wait()
	}()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGINT)
		<-waitDone
		return &Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1},
			errors.Wrap(ctx.Err(), "command cancelled")
	case err := <-waitDone:
		res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				res.ExitCode = exitErr.ExitStatus()
				return res, nil
			}
			return res, errors.Wrapf(err, "command '%s' did not complete", command)
		}
		return res, nil
	}
}

func (s *sshSubmitter) PutFile(ctx context.Context, localPath, targetPath string, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read source file %s", localPath)
	}

	if err := s.sftpc.MkdirAll(path.Dir(targetPath)); err != nil {
		return errors.Wrapf(err, "failed to create remote directory for %s", targetPath)
	}

	f, err := s.sftpc.Create(targetPath)
	if err != nil {
		return errors.Wrapf(err, "failed to create remote file %s", targetPath)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(err, "failed to write remote file %s", targetPath)
	}
	if err := s.sftpc.Chmod(targetPath, mode); err != nil {
		return errors.Wrapf(err, "failed to chmod remote file %s", targetPath)
	}
	return nil
}

func (s *sshSubmitter) Close() error {
	if s.sftpc != nil {
		_ = s.sftpc.Close()
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// exportPrefix renders extra environment variables as a shell export
// prefix, sorted for deterministic submission records.
func exportPrefix(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("export %s=%s;", k, shellQuote(env[k])))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
