package containerizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"regtestctl/pkg/logging"
)

// For mocking in tests
var execCommandContext = exec.CommandContext

// DockerRuntime implements ContainerRuntime by shelling out to a
// docker-compatible CLI. podman works through the same verbs.
type DockerRuntime struct {
	binary string
}

func (d *DockerRuntime) cli() string {
	if d.binary == "" {
		return "docker"
	}
	return d.binary
}

// run executes a CLI subcommand and returns its trimmed stdout.
func (d *DockerRuntime) run(ctx context.Context, args ...string) (string, error) {
	cmd := execCommandContext(ctx, d.cli(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w (stderr: %s)",
			d.cli(), strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// PullImage ensures the image is available locally, pulling it if needed.
func (d *DockerRuntime) PullImage(ctx context.Context, image string) error {
	// Skip the pull when the image is already present to avoid hitting the
	// registry on every run.
	if _, err := d.run(ctx, "image", "inspect", image); err == nil {
		logging.Debug("DockerRuntime", "Image %s already present, skipping pull", image)
		return nil
	}

	logging.Info("DockerRuntime", "Pulling image %s", image)
	if _, err := d.run(ctx, "pull", image); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	return nil
}

// StartContainer runs a container detached and returns its ID.
func (d *DockerRuntime) StartContainer(ctx context.Context, config ContainerConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}

	args := []string{"run", "-d", "--name", config.Name}
	for k, v := range config.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	for _, p := range config.Ports {
		args = append(args, "-p", p)
	}
	for _, v := range config.Volumes {
		args = append(args, "-v", expandPath(v))
	}
	args = append(args, config.Image)
	args = append(args, config.Cmd...)

	id, err := d.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to start container %s: %w", config.Name, err)
	}

	logging.Debug("DockerRuntime", "Started container %s (%s)", config.Name, shortID(id))
	return id, nil
}

// StopContainer stops a running container by ID or name.
func (d *DockerRuntime) StopContainer(ctx context.Context, container string) error {
	if _, err := d.run(ctx, "stop", container); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", container, err)
	}
	return nil
}

// RemoveContainer force-removes a container by ID or name. A container
// that does not exist is treated as already removed.
func (d *DockerRuntime) RemoveContainer(ctx context.Context, container string) error {
	if _, err := d.run(ctx, "rm", "-f", container); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove container %s: %w", container, err)
	}
	return nil
}

// RemoveVolume deletes a named volume. A volume that does not exist is
// treated as already removed.
func (d *DockerRuntime) RemoveVolume(ctx context.Context, volume string) error {
	if _, err := d.run(ctx, "volume", "rm", volume); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove volume %s: %w", volume, err)
	}
	return nil
}

// IsContainerRunning reports whether the container is currently running.
func (d *DockerRuntime) IsContainerRunning(ctx context.Context, container string) (bool, error) {
	out, err := d.run(ctx, "inspect", "--format", "{{.State.Running}}", container)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return out == "true", nil
}

// GetContainerLogs returns a streaming reader over the container's combined
// stdout/stderr.
func (d *DockerRuntime) GetContainerLogs(ctx context.Context, container string) (io.ReadCloser, error) {
	cmd := execCommandContext(ctx, d.cli(), "logs", "-f", container)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create logs pipe for %s: %w", container, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start log streaming for %s: %w", container, err)
	}

	return &cmdReadCloser{ReadCloser: stdout, cmd: cmd}, nil
}

// GetContainerPort returns the host port mapped to the given container port.
func (d *DockerRuntime) GetContainerPort(ctx context.Context, container, containerPort string) (string, error) {
	out, err := d.run(ctx, "port", container, containerPort)
	if err != nil {
		return "", err
	}
	// Output looks like "0.0.0.0:32768" or "[::]:32768", possibly one line
	// per address family.
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.LastIndex(line, ":"); idx >= 0 && idx < len(line)-1 {
			return line[idx+1:], nil
		}
	}
	return "", fmt.Errorf("no host port mapping found for %s port %s", container, containerPort)
}

// cmdReadCloser wraps a pipe so that closing it also reaps the underlying
// CLI process.
type cmdReadCloser struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (c *cmdReadCloser) Close() error {
	err := c.ReadCloser.Close()
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	_ = c.cmd.Wait()
	return err
}

// isNotFound recognizes the CLI's "no such container/volume" failures so
// idempotent removals can swallow them.
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such container") ||
		strings.Contains(msg, "no such volume") ||
		strings.Contains(msg, "no such object")
}

// shortID truncates a container ID for log output.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// expandPath expands a leading ~ in the host half of a volume mount.
func expandPath(mount string) string {
	if !strings.HasPrefix(mount, "~") {
		return mount
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return mount
	}
	return filepath.Join(home, mount[1:])
}
