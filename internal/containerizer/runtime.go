package containerizer

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// ContainerConfig describes a container to start.
type ContainerConfig struct {
	Name    string            // Container name (required)
	Image   string            // Container image (required)
	Env     map[string]string // Environment variables
	Ports   []string          // Port mappings, "host:container"
	Volumes []string          // Volume mounts, "name-or-path:containerPath"
	Cmd     []string          // Arguments passed to the image's entrypoint
}

// Validate checks the minimal required fields.
func (c ContainerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("container name is required")
	}
	if c.Image == "" {
		return fmt.Errorf("container image is required")
	}
	return nil
}

// ContainerRuntime abstracts a container engine CLI (docker, podman).
type ContainerRuntime interface {
	// PullImage ensures the image is available locally, pulling it if needed.
	PullImage(ctx context.Context, image string) error

	// StartContainer runs a container detached and returns its ID.
	StartContainer(ctx context.Context, config ContainerConfig) (string, error)

	// StopContainer stops a running container by ID or name.
	StopContainer(ctx context.Context, container string) error

	// RemoveContainer force-removes a container by ID or name. Removing a
	// container that does not exist is not an error.
	RemoveContainer(ctx context.Context, container string) error

	// RemoveVolume deletes a named volume. Removing a volume that does not
	// exist is not an error.
	RemoveVolume(ctx context.Context, volume string) error

	// IsContainerRunning reports whether the container is currently running.
	IsContainerRunning(ctx context.Context, container string) (bool, error)

	// GetContainerLogs returns a streaming reader over the container's
	// combined stdout/stderr.
	GetContainerLogs(ctx context.Context, container string) (io.ReadCloser, error)

	// GetContainerPort returns the host port mapped to the given container
	// port.
	GetContainerPort(ctx context.Context, container, containerPort string) (string, error)
}

// NewContainerRuntime creates a runtime for the named engine. The engine
// binary must be present on PATH; a missing binary is reported here so the
// caller can surface it as a provisioning failure rather than a cryptic
// exec error later.
func NewContainerRuntime(engine string) (ContainerRuntime, error) {
	switch engine {
	case "docker", "podman":
		if _, err := exec.LookPath(engine); err != nil {
			return nil, fmt.Errorf("container runtime %q not found on PATH: %w", engine, err)
		}
		return &DockerRuntime{binary: engine}, nil
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", engine)
	}
}
