// Package guest is the SSH/SCP transport to the Linux guest under test:
// running commands, moving files, launching background workloads and polling
// the state marker they leave behind.
package guest

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tmc/scp"
	"golang.org/x/crypto/ssh"
)

// Runner executes a shell command on the guest and returns its combined
// output. The ssh Client below is the production implementation; tests
// substitute scripted runners.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, command string) (string, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, command string) (string, error) {
	return f(ctx, command)
}

// Client runs commands on a single guest over SSH. Every command gets its
// own session on a fresh connection, so a guest reboot between commands
// does not poison the client.
type Client struct {
	addr   string
	config *ssh.ClientConfig
}

// Option adjusts the ssh client configuration.
type Option func(*ssh.ClientConfig)

// WithPassword enables password authentication.
func WithPassword(password string) Option {
	return func(c *ssh.ClientConfig) {
		c.Auth = append(c.Auth, ssh.Password(password))
	}
}

// WithKeyFile enables public key authentication with the given private key.
func WithKeyFile(keyFile string) Option {
	return func(c *ssh.ClientConfig) {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			log.Errorf("cannot read ssh key %s: %s", keyFile, err)
			return
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			log.Errorf("cannot parse ssh key %s: %s", keyFile, err)
			return
		}
		c.Auth = append(c.Auth, ssh.PublicKeys(signer))
	}
}

// NewClient creates a client for user@host:port.
func NewClient(host string, port int, user string, opts ...Option) *Client {
	config := &ssh.ClientConfig{
		User:            user,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &Client{addr: fmt.Sprintf("%s:%d", host, port), config: config}
}

// Addr returns the host:port the client talks to.
func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) session() (*ssh.Client, *ssh.Session, error) {
	conn, err := ssh.Dial("tcp", c.addr, c.config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial %s: %w", c.addr, err)
	}
	session, err := conn.NewSession()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	return conn, session, nil
}

// Run executes command on the guest and returns its combined output.
func (c *Client) Run(ctx context.Context, command string) (string, error) {
	conn, session, err := c.session()
	if err != nil {
		return "", err
	}
	defer conn.Close()
	defer session.Close()

	type runOut struct {
		out []byte
		err error
	}
	done := make(chan runOut, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- runOut{out: out, err: err}
	}()
	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return string(r.out), fmt.Errorf("command %q failed: %w", command, r.err)
		}
		return string(r.out), nil
	}
}

// RunInBackground starts command on the guest detached from the session and
// returns immediately. Output lands in logFile inside the guest working
// directory; completion is observed by polling the state file.
func (c *Client) RunInBackground(ctx context.Context, command, logFile string) error {
	detached := fmt.Sprintf("nohup %s > %s 2>&1 < /dev/null &", command, logFile)
	_, err := c.Run(ctx, detached)
	return err
}

// CopyTo uploads a local file to the guest over scp.
func (c *Client) CopyTo(localFile, remoteFile string) error {
	info, err := os.Stat(localFile)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", localFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localFile)
	}

	conn, session, err := c.session()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer session.Close()

	if err := scp.CopyPath(localFile, remoteFile, session); err != nil {
		return fmt.Errorf("copy %s to guest failed: %w", localFile, err)
	}
	return nil
}

// CopyFrom downloads a guest file into localDir, keeping its base name.
func (c *Client) CopyFrom(ctx context.Context, remoteFile, localDir string) (string, error) {
	out, err := c.ReadFile(ctx, remoteFile)
	if err != nil {
		return "", err
	}
	localFile := path.Join(localDir, path.Base(remoteFile))
	if err := os.WriteFile(localFile, []byte(out), 0644); err != nil {
		return "", fmt.Errorf("cannot save %s: %w", localFile, err)
	}
	return localFile, nil
}

// FileExists checks if a file exists on the guest.
func (c *Client) FileExists(ctx context.Context, fileName string) (bool, error) {
	command := fmt.Sprintf("if stat \"%s\" >/dev/null 2>&1; then echo \"1\"; else echo \"0\"; fi", fileName)
	out, err := c.Run(ctx, command)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "0", nil
}

// ReadFile reads a file from the guest.
func (c *Client) ReadFile(ctx context.Context, fileName string) (string, error) {
	exist, err := c.FileExists(ctx, fileName)
	if err != nil {
		return "", err
	}
	if !exist {
		return "", fmt.Errorf("file %s does not exist", fileName)
	}
	return c.Run(ctx, fmt.Sprintf("cat %s", fileName))
}

// DeleteFile deletes a file from the guest if present.
func (c *Client) DeleteFile(ctx context.Context, fileName string) error {
	exist, err := c.FileExists(ctx, fileName)
	if err != nil {
		return err
	}
	if !exist {
		return nil
	}
	_, err = c.Run(ctx, fmt.Sprintf("rm -f %s", fileName))
	return err
}

// WaitForSSH polls until a trivial command succeeds or the timeout elapses.
// Used after provisioning and reboots.
func (c *Client) WaitForSSH(ctx context.Context, timeout time.Duration) error {
	start := time.Now()
	for {
		if _, err := c.Run(ctx, "echo"); err == nil {
			return nil
		}
		if time.Since(start) > timeout {
			return fmt.Errorf("timeout waiting for SSH connection to %s", c.addr)
		}
		log.Debugf("still waiting for SSH on %s (%d/%d seconds)",
			c.addr, int(time.Since(start).Seconds()), int(timeout.Seconds()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
}
