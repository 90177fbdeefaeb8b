package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure for regtestctl.
type Config struct {
	Node      NodeDefinition  `yaml:"node"`
	Readiness ReadinessPolicy `yaml:"readiness"`
	Runner    RunnerDefinition `yaml:"runner"`
}

// NodeDefinition describes the dependency service: the containerized
// bitcoind node the test suite runs against. Container and volume names are
// fixed in configuration so that teardown always has a well-defined target,
// even across regtestctl process restarts.
type NodeDefinition struct {
	Image            string   `yaml:"image,omitempty"`            // Container image, e.g. "bitcoin/bitcoin:28.0"
	ContainerName    string   `yaml:"containerName,omitempty"`    // Name of the managed container
	VolumeName       string   `yaml:"volumeName,omitempty"`       // Named volume holding the node's data directory
	ContainerRuntime string   `yaml:"containerRuntime,omitempty"` // e.g. "docker", "podman"
	RPCPort          int      `yaml:"rpcPort,omitempty"`          // Host port mapped to the regtest RPC port
	RPCUser          string   `yaml:"rpcUser,omitempty"`
	RPCPassword      string   `yaml:"rpcPassword,omitempty"`
	ExtraArgs        []string `yaml:"extraArgs,omitempty"` // Additional bitcoind arguments
}

// RPCURL returns the base JSON-RPC endpoint of the node.
func (n NodeDefinition) RPCURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", n.RPCPort)
}

// WalletURL returns the JSON-RPC endpoint scoped to a named wallet.
func (n NodeDefinition) WalletURL(wallet string) string {
	return fmt.Sprintf("%s/wallet/%s", n.RPCURL(), wallet)
}

// ReadinessPolicy bounds the readiness-polling loop. The total wait is
// implicit: MaxAttempts probes with Interval between consecutive attempts,
// each probe bounded by AttemptTimeout.
type ReadinessPolicy struct {
	MaxAttempts    int           `yaml:"maxAttempts,omitempty"`
	Interval       time.Duration `yaml:"interval,omitempty"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout,omitempty"`
}

// UnmarshalYAML accepts durations in Go syntax ("3s", "500ms"); yaml.v3
// would otherwise only take raw nanosecond integers.
func (p *ReadinessPolicy) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxAttempts    int    `yaml:"maxAttempts"`
		Interval       string `yaml:"interval"`
		AttemptTimeout string `yaml:"attemptTimeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	p.MaxAttempts = raw.MaxAttempts
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("invalid readiness interval %q: %w", raw.Interval, err)
		}
		p.Interval = d
	}
	if raw.AttemptTimeout != "" {
		d, err := time.ParseDuration(raw.AttemptTimeout)
		if err != nil {
			return fmt.Errorf("invalid readiness attemptTimeout %q: %w", raw.AttemptTimeout, err)
		}
		p.AttemptTimeout = d
	}
	return nil
}

// RunnerDefinition describes the external test suite invoked once the node
// is ready. The runner's exit status becomes regtestctl's exit status.
type RunnerDefinition struct {
	Command []string          `yaml:"command,omitempty"` // Command and its arguments
	Dir     string            `yaml:"dir,omitempty"`     // Working directory, empty for inherited
	Env     map[string]string `yaml:"env,omitempty"`     // Extra environment variables
}
