package orchestrator

import (
	"context"
	"errors"

	"regtestctl/internal/rpc"
	"regtestctl/pkg/logging"
)

// ReadinessProbe performs a single readiness check against the dependency
// service. A nil return means the service is ready; any error means "not
// ready yet", whether the transport failed, the credentials were rejected,
// or the node answered but is still initializing.
type ReadinessProbe interface {
	Probe(ctx context.Context) error
}

// RPCProbe checks bitcoind readiness by issuing getblockchaininfo. A node
// that is still warming up refuses connections or returns an RPC error
// (-28, "Loading block index"); a node whose query surface is up answers
// with its chain name.
type RPCProbe struct {
	client *rpc.Client
}

// NewRPCProbe creates a probe backed by the given RPC client.
func NewRPCProbe(client *rpc.Client) *RPCProbe {
	return &RPCProbe{client: client}
}

// Probe issues one getblockchaininfo call and checks the chain marker.
func (p *RPCProbe) Probe(ctx context.Context) error {
	info, err := p.client.GetBlockchainInfo(ctx)
	if err != nil {
		logging.Debug("RPCProbe", "Probe failed: %v", err)
		return err
	}
	if info.Chain == "" {
		return errors.New("node answered without a chain identifier")
	}
	logging.Debug("RPCProbe", "Node ready (chain: %s, blocks: %d)", info.Chain, info.Blocks)
	return nil
}
