package config

import "time"

// Default node access parameters. These mirror bitcoind's regtest defaults
// and the credentials the bundled smoke scenario expects.
const (
	DefaultImage            = "bitcoin/bitcoin:28.0"
	DefaultContainerName    = "regtestctl-bitcoind"
	DefaultVolumeName       = "regtestctl-bitcoind-data"
	DefaultContainerRuntime = "docker"
	DefaultRPCPort          = 18443
	DefaultRPCUser          = "alice"
	DefaultRPCPassword      = "password"
)

// GetDefaultConfig returns the built-in configuration: a single regtest node
// with a 10 x 3s readiness budget and no external runner configured.
func GetDefaultConfig() Config {
	return Config{
		Node: NodeDefinition{
			Image:            DefaultImage,
			ContainerName:    DefaultContainerName,
			VolumeName:       DefaultVolumeName,
			ContainerRuntime: DefaultContainerRuntime,
			RPCPort:          DefaultRPCPort,
			RPCUser:          DefaultRPCUser,
			RPCPassword:      DefaultRPCPassword,
			ExtraArgs: []string{
				"-fallbackfee=0.0001",
				"-txindex=1",
			},
		},
		Readiness: ReadinessPolicy{
			MaxAttempts:    10,
			Interval:       3 * time.Second,
			AttemptTimeout: 5 * time.Second,
		},
		Runner: RunnerDefinition{},
	}
}
