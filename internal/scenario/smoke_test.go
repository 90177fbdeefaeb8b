package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regtestctl/internal/rpc"
)

const (
	minerAddr    = "bcrt1qminerminerminerminermine"
	traderAddr   = "bcrt1qtradertradertradertrader"
	changeAddr   = "bcrt1qchangechangechangechange"
	spendTxID    = "spend-txid"
	coinbaseTxID = "coinbase-txid"
)

// fakeNode is a stateful in-memory bitcoind lookalike covering the RPC
// surface the smoke suite touches.
type fakeNode struct {
	wallets map[string]bool
	height  int
	mempool map[string]bool
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		wallets: map[string]bool{},
		mempool: map[string]bool{},
	}
}

func (n *fakeNode) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string        `json:"id"`
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		wallet := strings.TrimPrefix(r.URL.Path, "/wallet/")
		if wallet == r.URL.Path {
			wallet = ""
		}

		ok := func(result string) {
			fmt.Fprintf(w, `{"result":%s,"error":null,"id":%q}`, result, req.ID)
		}
		fail := func(code int, msg string) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"result":null,"error":{"code":%d,"message":%q},"id":%q}`, code, msg, req.ID)
		}

		switch req.Method {
		case "getblockchaininfo":
			ok(fmt.Sprintf(`{"chain":"regtest","blocks":%d}`, n.height))
		case "loadwallet":
			name := req.Params[0].(string)
			if !n.wallets[name] {
				fail(-18, "Requested wallet does not exist or is not loaded")
				return
			}
			ok(fmt.Sprintf(`{"name":%q}`, name))
		case "createwallet":
			n.wallets[req.Params[0].(string)] = true
			ok(fmt.Sprintf(`{"name":%q}`, req.Params[0].(string)))
		case "getnewaddress":
			if wallet == "Trader" {
				ok(fmt.Sprintf("%q", traderAddr))
				return
			}
			ok(fmt.Sprintf("%q", minerAddr))
		case "generatetoaddress":
			count := int(req.Params[0].(float64))
			hashes := make([]string, count)
			for i := range hashes {
				n.height++
				hashes[i] = fmt.Sprintf("blockhash-%d", n.height)
			}
			out, _ := json.Marshal(hashes)
			ok(string(out))
		case "getbalance":
			// Coinbase maturity: nothing spendable until 101 blocks exist.
			if n.height >= 101 {
				ok("50.0")
				return
			}
			ok("0.0")
		case "sendtoaddress":
			n.mempool[spendTxID] = true
			ok(fmt.Sprintf("%q", spendTxID))
		case "getmempoolentry":
			if !n.mempool[req.Params[0].(string)] {
				fail(-5, "Transaction not in mempool")
				return
			}
			ok(`{"vsize":141,"weight":561,"fees":{"base":0.0000141,"modified":0.0000141,"ancestor":0.0000141,"descendant":0.0000141}}`)
		case "gettransaction":
			ok(fmt.Sprintf(`{"txid":%q,"amount":-20.0,"fee":-0.0000141,"confirmations":1,"blockhash":"blockhash-%d"}`, spendTxID, n.height))
		case "getrawtransaction":
			switch req.Params[0].(string) {
			case spendTxID:
				ok(fmt.Sprintf(`{
					"txid":%q,
					"vin":[{"txid":%q,"vout":0}],
					"vout":[
						{"value":20.0,"n":0,"scriptPubKey":{"address":%q,"type":"witness_v0_keyhash"}},
						{"value":29.9999859,"n":1,"scriptPubKey":{"address":%q,"type":"witness_v0_keyhash"}}
					]
				}`, spendTxID, coinbaseTxID, traderAddr, changeAddr))
			case coinbaseTxID:
				ok(fmt.Sprintf(`{
					"txid":%q,
					"vin":[{"coinbase":"01"}],
					"vout":[{"value":50.0,"n":0,"scriptPubKey":{"address":%q,"type":"witness_v0_keyhash"}}]
				}`, coinbaseTxID, minerAddr))
			default:
				fail(-5, "No such transaction")
			}
		case "getblockcount":
			ok(fmt.Sprintf("%d", n.height))
		case "getbestblockhash":
			ok(fmt.Sprintf(`"blockhash-%d"`, n.height))
		default:
			fail(-32601, "Method not found")
		}
	}
}

func newTestSmoke(t *testing.T, node *fakeNode, outPath string) *Smoke {
	t.Helper()
	server := httptest.NewServer(node.handler(t))
	t.Cleanup(server.Close)
	return NewSmoke(rpc.NewClient(server.URL, "alice", "password"), outPath)
}

func TestSmokeRunsFullScenario(t *testing.T) {
	node := newFakeNode()
	outPath := filepath.Join(t.TempDir(), "out.txt")
	smoke := newTestSmoke(t, node, outPath)

	result, err := smoke.Run(context.Background())
	require.NoError(t, err)

	// 101 blocks until the first coinbase matures.
	assert.Equal(t, 101, result.BlocksMined)
	assert.Equal(t, spendTxID, result.TxID)
	assert.Equal(t, minerAddr, result.InputAddress)
	assert.Equal(t, 50.0, result.InputAmount)
	assert.Equal(t, traderAddr, result.OutputAddress)
	assert.Equal(t, 20.0, result.OutputAmount)
	assert.Equal(t, changeAddr, result.ChangeAddress)
	assert.Equal(t, 29.9999859, result.ChangeAmount)
	assert.InDelta(t, 0.0000141, result.Fee, 1e-9)
	// 101 mined plus the confirmation block.
	assert.Equal(t, int64(102), result.BlockHeight)
	assert.Equal(t, "blockhash-102", result.BlockHash)

	// Both wallets were created on the fresh node.
	assert.True(t, node.wallets["Miner"])
	assert.True(t, node.wallets["Trader"])

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, spendTxID, lines[0])
	assert.Equal(t, minerAddr, lines[1])
	assert.Equal(t, "50", lines[2])
	assert.Equal(t, traderAddr, lines[3])
	assert.Equal(t, "20", lines[4])
	assert.Equal(t, changeAddr, lines[5])
	assert.Equal(t, "29.9999859", lines[6])
	assert.Equal(t, "1.41e-5", lines[7])
	assert.Equal(t, "102", lines[8])
	assert.Equal(t, "blockhash-102", lines[9])
}

func TestSmokeReusesExistingWallets(t *testing.T) {
	node := newFakeNode()
	node.wallets["Miner"] = true
	node.wallets["Trader"] = true
	smoke := newTestSmoke(t, node, "")

	_, err := smoke.Run(context.Background())
	require.NoError(t, err)
}

func TestSmokeFailsWhenNodeUnreachable(t *testing.T) {
	smoke := NewSmoke(rpc.NewClient("http://127.0.0.1:1", "alice", "password"), "")

	_, err := smoke.Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerMapsScenarioOutcomeToExitCode(t *testing.T) {
	node := newFakeNode()
	smoke := newTestSmoke(t, node, "")

	result := NewRunner(smoke).Run(context.Background())
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Passed())

	failing := NewSmoke(rpc.NewClient("http://127.0.0.1:1", "alice", "password"), "")
	result = NewRunner(failing).Run(context.Background())
	assert.Equal(t, 1, result.ExitCode)
}

func TestFormatScientific(t *testing.T) {
	assert.Equal(t, "1.41e-5", formatScientific(0.0000141))
	assert.Equal(t, "2.00e1", formatScientific(20))
	assert.Equal(t, "0.00e0", formatScientific(0))
	assert.Equal(t, "-1.41e-5", formatScientific(-0.0000141))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "50", formatAmount(50))
	assert.Equal(t, "29.9999859", formatAmount(29.9999859))
	assert.Equal(t, "0", formatAmount(0))
}
