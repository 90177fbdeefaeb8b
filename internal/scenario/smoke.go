package scenario

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"regtestctl/internal/rpc"
	"regtestctl/pkg/logging"
)

// mineLimit bounds the mine-until-spendable loop. Coinbase maturity makes
// the first reward spendable after 101 blocks on a fresh chain; anything
// past this limit means the node is misbehaving.
const mineLimit = 300

const sendAmount = 20.0

// Result holds the transaction details the smoke suite extracts.
type Result struct {
	TxID          string
	BlocksMined   int
	InputAddress  string
	InputAmount   float64
	OutputAddress string
	OutputAmount  float64
	ChangeAddress string
	ChangeAmount  float64
	Fee           float64
	BlockHeight   int64
	BlockHash     string
}

// Smoke is a built-in end-to-end exercise of a fresh regtest node: it
// creates two wallets, mines until the coinbase matures, sends coins
// between them, confirms the transaction, and decodes it back out of the
// chain. It stands in for an external test suite when none is configured.
type Smoke struct {
	client  *rpc.Client
	outPath string
}

// NewSmoke creates a smoke suite against the given node. When outPath is
// non-empty the extracted transaction details are written there as a
// ten-line report.
func NewSmoke(client *rpc.Client, outPath string) *Smoke {
	return &Smoke{client: client, outPath: outPath}
}

// Run executes the full scenario.
func (s *Smoke) Run(ctx context.Context) (*Result, error) {
	info, err := s.client.GetBlockchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("blockchain info: %w", err)
	}
	logging.Info("Smoke", "Connected to %s chain at height %d", info.Chain, info.Blocks)

	if err := s.ensureWallet(ctx, "Miner"); err != nil {
		return nil, err
	}
	if err := s.ensureWallet(ctx, "Trader"); err != nil {
		return nil, err
	}

	miner := s.client.ForWallet("Miner")
	trader := s.client.ForWallet("Trader")

	minerAddr, err := miner.GetNewAddress(ctx, "Mining Reward")
	if err != nil {
		return nil, fmt.Errorf("miner address: %w", err)
	}

	result := &Result{}

	// Coinbase rewards mature after 100 blocks, so the spendable balance
	// stays zero until block 101 on a fresh chain. Mine one block at a time
	// and stop at the first positive balance.
	logging.Info("Smoke", "Mining until the miner has a spendable balance")
	var balance float64
	for balance == 0 {
		if result.BlocksMined >= mineLimit {
			return nil, fmt.Errorf("no spendable balance after mining %d blocks", mineLimit)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := miner.GenerateToAddress(ctx, 1, minerAddr); err != nil {
			return nil, fmt.Errorf("mining: %w", err)
		}
		result.BlocksMined++
		if balance, err = miner.GetBalance(ctx); err != nil {
			return nil, fmt.Errorf("miner balance: %w", err)
		}
	}
	logging.Info("Smoke", "Mined %d blocks for a spendable balance of %v BTC", result.BlocksMined, balance)

	traderAddr, err := trader.GetNewAddress(ctx, "Received")
	if err != nil {
		return nil, fmt.Errorf("trader address: %w", err)
	}

	txid, err := miner.SendToAddress(ctx, traderAddr, sendAmount)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	result.TxID = txid
	logging.Info("Smoke", "Sent %v BTC to trader (txid: %s)", sendAmount, txid)

	entry, err := s.client.GetMempoolEntry(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("mempool entry for %s: %w", txid, err)
	}
	logging.Info("Smoke", "Transaction in mempool (vsize: %d, fee: %v BTC)", entry.VSize, entry.Fees.Base)

	if _, err := miner.GenerateToAddress(ctx, 1, minerAddr); err != nil {
		return nil, fmt.Errorf("confirmation block: %w", err)
	}

	txInfo, err := miner.GetTransaction(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("wallet transaction %s: %w", txid, err)
	}
	if txInfo.Confirmations < 1 {
		return nil, fmt.Errorf("transaction %s still unconfirmed after mining", txid)
	}
	logging.Info("Smoke", "Transaction confirmed (%d confirmation(s))", txInfo.Confirmations)

	if err := s.decodeTransaction(ctx, txid, traderAddr, result); err != nil {
		return nil, err
	}

	if result.BlockHeight, err = s.client.GetBlockCount(ctx); err != nil {
		return nil, fmt.Errorf("block count: %w", err)
	}
	if result.BlockHash, err = s.client.GetBestBlockHash(ctx); err != nil {
		return nil, fmt.Errorf("best block hash: %w", err)
	}

	if s.outPath != "" {
		if err := os.WriteFile(s.outPath, []byte(result.Report()), 0o644); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		logging.Info("Smoke", "Transaction details written to %s", s.outPath)
	}
	return result, nil
}

// ensureWallet loads a wallet, creating it when the load fails. On a fresh
// node the load always fails; on a reused data dir it succeeds.
func (s *Smoke) ensureWallet(ctx context.Context, name string) error {
	if err := s.client.LoadWallet(ctx, name); err == nil {
		return nil
	}
	if err := s.client.CreateWallet(ctx, name); err != nil {
		return fmt.Errorf("create wallet %s: %w", name, err)
	}
	return nil
}

// decodeTransaction extracts the input, output, and change details of the
// confirmed payment, resolving the input through its previous output.
func (s *Smoke) decodeTransaction(ctx context.Context, txid, traderAddr string, result *Result) error {
	tx, err := s.client.GetRawTransaction(ctx, txid)
	if err != nil {
		return fmt.Errorf("raw transaction %s: %w", txid, err)
	}
	if len(tx.Vin) == 0 {
		return fmt.Errorf("transaction %s has no inputs", txid)
	}

	// The input's value and address live on the funding transaction.
	prev, err := s.client.GetRawTransaction(ctx, tx.Vin[0].TxID)
	if err != nil {
		return fmt.Errorf("previous transaction %s: %w", tx.Vin[0].TxID, err)
	}
	if int(tx.Vin[0].Vout) >= len(prev.Vout) {
		return fmt.Errorf("input references missing output %d of %s", tx.Vin[0].Vout, tx.Vin[0].TxID)
	}
	prevOut := prev.Vout[tx.Vin[0].Vout]
	result.InputAddress = prevOut.ScriptPubKey.Address
	result.InputAmount = prevOut.Value

	var totalOut float64
	for _, out := range tx.Vout {
		totalOut += out.Value
		if out.ScriptPubKey.Address == "" {
			continue
		}
		if out.ScriptPubKey.Address == traderAddr {
			result.OutputAddress = out.ScriptPubKey.Address
			result.OutputAmount = out.Value
		} else {
			result.ChangeAddress = out.ScriptPubKey.Address
			result.ChangeAmount = out.Value
		}
	}
	result.Fee = result.InputAmount - totalOut
	return nil
}

// Report renders the ten-line transaction summary: txid, the input address
// and amount, the trader's output address and amount, the change address
// and amount, the fee in scientific notation, and the confirming block's
// height and hash.
func (r *Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.TxID)
	fmt.Fprintf(&b, "%s\n", r.InputAddress)
	fmt.Fprintf(&b, "%s\n", formatAmount(r.InputAmount))
	fmt.Fprintf(&b, "%s\n", r.OutputAddress)
	fmt.Fprintf(&b, "%s\n", formatAmount(r.OutputAmount))
	fmt.Fprintf(&b, "%s\n", r.ChangeAddress)
	fmt.Fprintf(&b, "%s\n", formatAmount(r.ChangeAmount))
	fmt.Fprintf(&b, "%s\n", formatScientific(r.Fee))
	fmt.Fprintf(&b, "%d\n", r.BlockHeight)
	fmt.Fprintf(&b, "%s\n", r.BlockHash)
	return b.String()
}

// formatAmount renders a BTC amount without trailing zeros, so whole-coin
// values print as integers.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatScientific renders a fee like 1.41e-5, with two decimals of
// mantissa and no zero-padded exponent.
func formatScientific(v float64) string {
	s := strconv.FormatFloat(v, 'e', 2, 64)
	idx := strings.IndexByte(s, 'e')
	mantissa, exp := s[:idx], s[idx+1:]

	sign := ""
	if exp[0] == '+' || exp[0] == '-' {
		if exp[0] == '-' {
			sign = "-"
		}
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mantissa + "e" + sign + exp
}
