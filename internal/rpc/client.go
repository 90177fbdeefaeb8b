package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a minimal bitcoind JSON-RPC client. It covers the handful of
// calls regtestctl needs for readiness probing and the bundled smoke
// scenario; anything else goes through the generic Call.
type Client struct {
	endpoint   string
	user       string
	password   string
	httpClient *http.Client
}

// NewClient creates a client for the given JSON-RPC endpoint with basic
// auth credentials.
func NewClient(endpoint, user, password string) *Client {
	return &Client{
		endpoint: endpoint,
		user:     user,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ForWallet returns a client scoped to a loaded wallet. bitcoind routes
// wallet RPCs by URL path.
func (c *Client) ForWallet(wallet string) *Client {
	return &Client{
		endpoint:   fmt.Sprintf("%s/wallet/%s", c.endpoint, wallet),
		user:       c.user,
		password:   c.password,
		httpClient: c.httpClient,
	}
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCError is a JSON-RPC error object returned by bitcoind.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Call invokes a JSON-RPC method and unmarshals the result into result,
// which may be nil when the caller does not care about the return value.
func (c *Client) Call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		Jsonrpc: "1.0",
		ID:      "regtestctl",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}
	// bitcoind returns 500 with an error object for RPC-level failures; an
	// error status without one means something else went wrong.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// GetBlockchainInfo returns the node's chain state. This doubles as the
// readiness marker: a node that answers it with a chain name has its RPC
// query surface up.
func (c *Client) GetBlockchainInfo(ctx context.Context) (*BlockchainInfo, error) {
	var info BlockchainInfo
	if err := c.Call(ctx, "getblockchaininfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateWallet creates a new wallet on the node.
func (c *Client) CreateWallet(ctx context.Context, name string) error {
	return c.Call(ctx, "createwallet", nil, name)
}

// LoadWallet loads an existing wallet. Fails with an RPC error if the
// wallet does not exist or is already loaded.
func (c *Client) LoadWallet(ctx context.Context, name string) error {
	return c.Call(ctx, "loadwallet", nil, name)
}

// GetNewAddress derives a fresh receive address with the given label.
// Wallet-scoped.
func (c *Client) GetNewAddress(ctx context.Context, label string) (string, error) {
	var addr string
	if err := c.Call(ctx, "getnewaddress", &addr, label); err != nil {
		return "", err
	}
	return addr, nil
}

// GenerateToAddress mines n blocks paying the coinbase to addr and returns
// the new block hashes. Regtest only.
func (c *Client) GenerateToAddress(ctx context.Context, n int, addr string) ([]string, error) {
	var hashes []string
	if err := c.Call(ctx, "generatetoaddress", &hashes, n, addr); err != nil {
		return nil, err
	}
	return hashes, nil
}

// GetBalance returns the wallet's spendable balance in BTC. Wallet-scoped.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	var balance float64
	if err := c.Call(ctx, "getbalance", &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// SendToAddress sends amount BTC to addr and returns the transaction ID.
// Wallet-scoped.
func (c *Client) SendToAddress(ctx context.Context, addr string, amount float64) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendtoaddress", &txid, addr, amount); err != nil {
		return "", err
	}
	return txid, nil
}

// GetMempoolEntry returns mempool data for an unconfirmed transaction.
func (c *Client) GetMempoolEntry(ctx context.Context, txid string) (*MempoolEntry, error) {
	var entry MempoolEntry
	if err := c.Call(ctx, "getmempoolentry", &entry, txid); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetTransaction returns the wallet's view of one of its transactions,
// including the fee it paid. Wallet-scoped.
func (c *Client) GetTransaction(ctx context.Context, txid string) (*TransactionInfo, error) {
	var info TransactionInfo
	if err := c.Call(ctx, "gettransaction", &info, txid); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetRawTransaction returns the decoded form of a transaction.
func (c *Client) GetRawTransaction(ctx context.Context, txid string) (*RawTransaction, error) {
	var tx RawTransaction
	if err := c.Call(ctx, "getrawtransaction", &tx, txid, true); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetBlockCount returns the current block height.
func (c *Client) GetBlockCount(ctx context.Context) (int64, error) {
	var count int64
	if err := c.Call(ctx, "getblockcount", &count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetBestBlockHash returns the hash of the chain tip.
func (c *Client) GetBestBlockHash(ctx context.Context) (string, error) {
	var hash string
	if err := c.Call(ctx, "getbestblockhash", &hash); err != nil {
		return "", err
	}
	return hash, nil
}
