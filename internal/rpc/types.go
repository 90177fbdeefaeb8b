package rpc

// BlockchainInfo is the subset of getblockchaininfo regtestctl inspects.
type BlockchainInfo struct {
	Chain                string  `json:"chain"`
	Blocks               int64   `json:"blocks"`
	Headers              int64   `json:"headers"`
	BestBlockHash        string  `json:"bestblockhash"`
	VerificationProgress float64 `json:"verificationprogress"`
	InitialBlockDownload bool    `json:"initialblockdownload"`
}

// MempoolEntry describes an unconfirmed transaction as seen by the node.
type MempoolEntry struct {
	VSize           int64       `json:"vsize"`
	Weight          int64       `json:"weight"`
	Time            int64       `json:"time"`
	Height          int64       `json:"height"`
	DescendantCount int64       `json:"descendantcount"`
	AncestorCount   int64       `json:"ancestorcount"`
	Fees            MempoolFees `json:"fees"`
}

// MempoolFees holds the fee breakdown of a mempool entry, in BTC.
type MempoolFees struct {
	Base       float64 `json:"base"`
	Modified   float64 `json:"modified"`
	Ancestor   float64 `json:"ancestor"`
	Descendant float64 `json:"descendant"`
}

// TransactionInfo is the wallet's view of a transaction (gettransaction).
// Fee is negative for outgoing transactions, matching bitcoind.
type TransactionInfo struct {
	TxID          string  `json:"txid"`
	Amount        float64 `json:"amount"`
	Fee           float64 `json:"fee"`
	Confirmations int64   `json:"confirmations"`
	BlockHash     string  `json:"blockhash"`
	Time          int64   `json:"time"`
}

// RawTransaction is a decoded transaction from getrawtransaction verbose=true.
type RawTransaction struct {
	TxID          string `json:"txid"`
	Hash          string `json:"hash"`
	Size          int64  `json:"size"`
	VSize         int64  `json:"vsize"`
	Vin           []Vin  `json:"vin"`
	Vout          []Vout `json:"vout"`
	BlockHash     string `json:"blockhash"`
	Confirmations int64  `json:"confirmations"`
	BlockTime     int64  `json:"blocktime"`
}

// Vin is a transaction input. Coinbase inputs carry the Coinbase field
// instead of a previous-output reference.
type Vin struct {
	TxID     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Coinbase string `json:"coinbase"`
}

// Vout is a transaction output.
type Vout struct {
	Value        float64      `json:"value"`
	N            uint32       `json:"n"`
	ScriptPubKey ScriptPubKey `json:"scriptPubKey"`
}

// ScriptPubKey carries the output script metadata. Address is populated for
// standard script types since Bitcoin Core 22.
type ScriptPubKey struct {
	Address string `json:"address"`
	Type    string `json:"type"`
	Hex     string `json:"hex"`
}
