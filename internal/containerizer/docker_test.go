package containerizer

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedExec replaces execCommandContext with a sequence of canned
// results, recording the arguments of each invocation.
type scriptedExec struct {
	calls   [][]string
	results []scriptedResult
}

type scriptedResult struct {
	output string
	stderr string
	fail   bool
}

func (s *scriptedExec) install(t *testing.T) {
	t.Helper()
	orig := execCommandContext
	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		call := append([]string{name}, args...)
		s.calls = append(s.calls, call)

		idx := len(s.calls) - 1
		if idx >= len(s.results) {
			return exec.CommandContext(ctx, "false")
		}
		r := s.results[idx]
		script := fmt.Sprintf("printf '%%s' %q", r.output)
		if r.stderr != "" {
			script += fmt.Sprintf("; printf '%%s' %q >&2", r.stderr)
		}
		if r.fail {
			script += "; exit 1"
		}
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { execCommandContext = orig })
}

func TestStartContainerBuildsDockerRunArgs(t *testing.T) {
	script := &scriptedExec{results: []scriptedResult{{output: "abc123def456789"}}}
	script.install(t)

	d := &DockerRuntime{binary: "docker"}
	id, err := d.StartContainer(context.Background(), ContainerConfig{
		Name:    "regtestctl-bitcoind",
		Image:   "bitcoin/bitcoin:28.0",
		Ports:   []string{"18443:18443"},
		Volumes: []string{"regtestctl-bitcoind-data:/home/bitcoin/.bitcoin"},
		Cmd:     []string{"-regtest=1", "-txindex=1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "abc123def456789", id)

	require.Len(t, script.calls, 1)
	call := script.calls[0]
	assert.Equal(t, "docker", call[0])
	assert.Equal(t, []string{"run", "-d", "--name", "regtestctl-bitcoind"}, call[1:5])
	assert.Contains(t, call, "-p")
	assert.Contains(t, call, "18443:18443")
	assert.Contains(t, call, "regtestctl-bitcoind-data:/home/bitcoin/.bitcoin")
	// Image precedes the bitcoind arguments.
	assert.Equal(t, []string{"bitcoin/bitcoin:28.0", "-regtest=1", "-txindex=1"}, call[len(call)-3:])
}

func TestStartContainerRejectsInvalidConfig(t *testing.T) {
	d := &DockerRuntime{}

	_, err := d.StartContainer(context.Background(), ContainerConfig{Image: "x"})
	assert.ErrorContains(t, err, "name is required")

	_, err = d.StartContainer(context.Background(), ContainerConfig{Name: "x"})
	assert.ErrorContains(t, err, "image is required")
}

func TestPullImageSkipsWhenPresent(t *testing.T) {
	script := &scriptedExec{results: []scriptedResult{{output: "[{...}]"}}}
	script.install(t)

	d := &DockerRuntime{}
	require.NoError(t, d.PullImage(context.Background(), "bitcoin/bitcoin:28.0"))

	// Only the inspect ran; no pull was issued.
	require.Len(t, script.calls, 1)
	assert.Equal(t, "image", script.calls[0][1])
	assert.Equal(t, "inspect", script.calls[0][2])
}

func TestPullImagePullsWhenMissing(t *testing.T) {
	script := &scriptedExec{results: []scriptedResult{
		{fail: true, stderr: "No such image"},
		{output: "pulled"},
	}}
	script.install(t)

	d := &DockerRuntime{}
	require.NoError(t, d.PullImage(context.Background(), "bitcoin/bitcoin:28.0"))

	require.Len(t, script.calls, 2)
	assert.Equal(t, "pull", script.calls[1][1])
}

func TestRemoveContainerIgnoresMissing(t *testing.T) {
	script := &scriptedExec{results: []scriptedResult{
		{fail: true, stderr: "Error: No such container: regtestctl-bitcoind"},
	}}
	script.install(t)

	d := &DockerRuntime{}
	assert.NoError(t, d.RemoveContainer(context.Background(), "regtestctl-bitcoind"))
}

func TestRemoveVolumeIgnoresMissing(t *testing.T) {
	script := &scriptedExec{results: []scriptedResult{
		{fail: true, stderr: "Error: no such volume: regtestctl-bitcoind-data"},
	}}
	script.install(t)

	d := &DockerRuntime{}
	assert.NoError(t, d.RemoveVolume(context.Background(), "regtestctl-bitcoind-data"))
}

func TestRemoveContainerSurfacesOtherErrors(t *testing.T) {
	script := &scriptedExec{results: []scriptedResult{
		{fail: true, stderr: "permission denied"},
	}}
	script.install(t)

	d := &DockerRuntime{}
	assert.Error(t, d.RemoveContainer(context.Background(), "regtestctl-bitcoind"))
}

func TestIsContainerRunning(t *testing.T) {
	tests := []struct {
		name    string
		result  scriptedResult
		running bool
		wantErr bool
	}{
		{name: "running", result: scriptedResult{output: "true"}, running: true},
		{name: "stopped", result: scriptedResult{output: "false"}, running: false},
		{name: "missing", result: scriptedResult{fail: true, stderr: "No such object: x"}, running: false},
		{name: "engine error", result: scriptedResult{fail: true, stderr: "cannot connect to the Docker daemon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := &scriptedExec{results: []scriptedResult{tt.result}}
			script.install(t)

			d := &DockerRuntime{}
			running, err := d.IsContainerRunning(context.Background(), "x")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.running, running)
		})
	}
}

func TestGetContainerPort(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
		wantErr  bool
	}{
		{name: "ipv4", output: "0.0.0.0:32768", expected: "32768"},
		{name: "ipv6 first", output: "[::]:32768\n0.0.0.0:32768", expected: "32768"},
		{name: "no mapping", output: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := &scriptedExec{results: []scriptedResult{{output: tt.output}}}
			script.install(t)

			d := &DockerRuntime{}
			port, err := d.GetContainerPort(context.Background(), "abc", "18443")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, port)
		})
	}
}

func TestNewContainerRuntimeRejectsUnknownEngine(t *testing.T) {
	_, err := NewContainerRuntime("rkt")
	assert.ErrorContains(t, err, "unsupported container runtime")
}

func TestExpandPath(t *testing.T) {
	assert.Equal(t, "/absolute:/ctr", expandPath("/absolute:/ctr"))
	assert.Equal(t, "vol:/ctr", expandPath("vol:/ctr"))
}
