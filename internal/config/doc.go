// Package config defines the regtestctl configuration model and its layered
// loading scheme.
//
// Configuration is assembled from three layers, later layers overriding
// earlier ones:
//
//  1. Built-in defaults (GetDefaultConfig), which mirror bitcoind's regtest
//     defaults: RPC on port 18443 with the alice/password credentials the
//     bundled smoke scenario expects.
//  2. The user file at ~/.config/regtestctl/config.yaml.
//  3. The project file at .regtestctl/config.yaml relative to the working
//     directory.
//
// A minimal project file pointing the orchestrator at a Go test suite:
//
//	node:
//	  image: bitcoin/bitcoin:28.0
//	  rpcPort: 18443
//	readiness:
//	  maxAttempts: 10
//	  interval: 3s
//	runner:
//	  command: ["go", "test", "./integration/..."]
//
// Durations use Go's time.Duration syntax ("3s", "500ms").
package config
