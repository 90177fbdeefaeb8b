package provisioner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"regtestctl/internal/config"
	"regtestctl/internal/containerizer"
	"regtestctl/pkg/logging"
)

// State represents the lifecycle state of the provisioned node.
type State string

const (
	StateStopped  State = "Stopped"
	StateStarting State = "Starting"
	StateRunning  State = "Running"
	StateStopping State = "Stopping"
)

// ServiceHandle identifies the provisioned dependency service: the named
// container and data volume of the bitcoind node. Because the names come
// from configuration rather than from runtime-generated IDs, Stop has a
// well-defined target even when Start never completed or when a previous
// regtestctl process left resources behind.
type ServiceHandle struct {
	mu            sync.RWMutex
	containerName string
	volumeName    string
	containerID   string
	state         State
}

// State returns the handle's current lifecycle state.
func (h *ServiceHandle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// ContainerName returns the managed container's name.
func (h *ServiceHandle) ContainerName() string {
	return h.containerName
}

// VolumeName returns the managed data volume's name.
func (h *ServiceHandle) VolumeName() string {
	return h.volumeName
}

// ContainerID returns the container ID assigned by the engine, or empty if
// the container was never started.
func (h *ServiceHandle) ContainerID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.containerID
}

func (h *ServiceHandle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *ServiceHandle) setContainerID(id string) {
	h.mu.Lock()
	h.containerID = id
	h.mu.Unlock()
}

// ProvisionError indicates the dependency service could not be launched:
// the container runtime is missing, the image cannot be pulled, or the run
// command failed.
type ProvisionError struct {
	Err error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("failed to provision node: %v", e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// NodeProvisioner starts and stops the regtest bitcoind container. Start is
// non-blocking with respect to node initialization: it returns once the
// container is launched, and readiness is verified separately by the
// orchestrator's polling loop.
type NodeProvisioner struct {
	cfg     config.NodeDefinition
	runtime containerizer.ContainerRuntime
}

// New creates a provisioner for the configured node. The container runtime
// is resolved lazily on first use so that a missing engine surfaces as a
// ProvisionError from Start rather than a construction failure.
func New(cfg config.NodeDefinition) *NodeProvisioner {
	return &NodeProvisioner{cfg: cfg}
}

// NewWithRuntime creates a provisioner with an explicit container runtime.
func NewWithRuntime(cfg config.NodeDefinition, runtime containerizer.ContainerRuntime) *NodeProvisioner {
	return &NodeProvisioner{cfg: cfg, runtime: runtime}
}

// ensureRuntime resolves the container runtime on first use.
func (p *NodeProvisioner) ensureRuntime() (containerizer.ContainerRuntime, error) {
	if p.runtime != nil {
		return p.runtime, nil
	}
	engine := p.cfg.ContainerRuntime
	if engine == "" {
		engine = config.DefaultContainerRuntime
	}
	runtime, err := containerizer.NewContainerRuntime(engine)
	if err != nil {
		return nil, err
	}
	p.runtime = runtime
	return runtime, nil
}

// Start launches the bitcoind container in the background and returns a
// handle to it. The returned handle is non-nil even on failure so the
// caller can unconditionally register teardown before inspecting the error.
func (p *NodeProvisioner) Start(ctx context.Context) (*ServiceHandle, error) {
	handle := &ServiceHandle{
		containerName: p.cfg.ContainerName,
		volumeName:    p.cfg.VolumeName,
		state:         StateStopped,
	}

	runtime, err := p.ensureRuntime()
	if err != nil {
		return handle, &ProvisionError{Err: err}
	}

	handle.setState(StateStarting)
	logging.Info("Provisioner", "Starting node container %s (image: %s)", p.cfg.ContainerName, p.cfg.Image)

	if err := runtime.PullImage(ctx, p.cfg.Image); err != nil {
		handle.setState(StateStopped)
		return handle, &ProvisionError{Err: err}
	}

	// A leftover container with the same name from an interrupted run would
	// make `docker run` fail; remove it first so runs start from a clean
	// slate.
	if err := runtime.RemoveContainer(ctx, p.cfg.ContainerName); err != nil {
		logging.Warn("Provisioner", "Could not remove leftover container %s: %v", p.cfg.ContainerName, err)
	}

	id, err := runtime.StartContainer(ctx, containerizer.ContainerConfig{
		Name:    p.cfg.ContainerName,
		Image:   p.cfg.Image,
		Ports:   []string{fmt.Sprintf("%d:18443", p.cfg.RPCPort)},
		Volumes: []string{p.cfg.VolumeName + ":/home/bitcoin/.bitcoin"},
		Cmd:     p.bitcoindArgs(),
	})
	if err != nil {
		handle.setState(StateStopped)
		return handle, &ProvisionError{Err: err}
	}

	handle.setContainerID(id)
	// Running here means the process group was launched, not that the node
	// answers RPC; readiness is the orchestrator's concern.
	handle.setState(StateRunning)
	logging.Info("Provisioner", "Node container %s started (RPC on port %d)", p.cfg.ContainerName, p.cfg.RPCPort)
	return handle, nil
}

// bitcoindArgs assembles the arguments passed to the image's bitcoind
// entrypoint.
func (p *NodeProvisioner) bitcoindArgs() []string {
	args := []string{
		"-regtest=1",
		"-server=1",
		"-rpcbind=0.0.0.0",
		"-rpcallowip=0.0.0.0/0",
		fmt.Sprintf("-rpcuser=%s", p.cfg.RPCUser),
		fmt.Sprintf("-rpcpassword=%s", p.cfg.RPCPassword),
	}
	return append(args, p.cfg.ExtraArgs...)
}

// Stop tears down the container and its data volume so repeated runs start
// from a clean slate. It is idempotent: calling it twice, or after a failed
// or absent Start, leaves the system in StateStopped without error. Errors
// are returned so the caller can log them as warnings, but they never
// indicate a partially-aborted teardown; both removals are always
// attempted.
func (p *NodeProvisioner) Stop(ctx context.Context, handle *ServiceHandle) error {
	if handle == nil {
		handle = &ServiceHandle{
			containerName: p.cfg.ContainerName,
			volumeName:    p.cfg.VolumeName,
			state:         StateStopped,
		}
	}

	runtime, err := p.ensureRuntime()
	if err != nil {
		// No runtime means nothing could have been created by this process,
		// but resources from an earlier run are also unreachable.
		return fmt.Errorf("teardown skipped: %w", err)
	}

	handle.setState(StateStopping)
	logging.Info("Provisioner", "Tearing down node container %s and volume %s", handle.containerName, handle.volumeName)

	var errs []error
	if err := runtime.RemoveContainer(ctx, handle.containerName); err != nil {
		errs = append(errs, fmt.Errorf("remove container: %w", err))
	}
	if err := runtime.RemoveVolume(ctx, handle.volumeName); err != nil {
		errs = append(errs, fmt.Errorf("remove volume: %w", err))
	}

	handle.setContainerID("")
	handle.setState(StateStopped)
	return errors.Join(errs...)
}
