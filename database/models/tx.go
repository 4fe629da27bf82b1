package models

type Transaction struct {
	Txid       string `gorm:"primaryKey;size:64" json:"txid"`
	BlockHash  string `gorm:"size:64;index" json:"block_hash"`
	BlockIndex uint16 `json:"block_index"`
	Version    int32  `json:"version"`
	LockTime   uint32 `json:"lock_time"`
	Size       uint32 `json:"size"`

	// Inputs and outputs are stored inline as JSON columns so one lookup
	// reconstructs the whole transaction.
	Inputs  []Input  `gorm:"serializer:json" json:"inputs"`
	Outputs []Output `gorm:"serializer:json" json:"outputs"`
}

// Input is either a coinbase marker or a reference to a previous output.
type Input struct {
	Coinbase  bool   `json:"coinbase"`
	PrevTxid  string `json:"prev_txid,omitempty"`
	Vout      uint32 `json:"vout"`
	ScriptSig string `json:"script_sig"`
	Sequence  uint32 `json:"sequence"`
}

type Output struct {
	N            uint32 `json:"n"`
	Value        uint64 `json:"value"`
	ScriptPubKey string `json:"script_pubkey"`
}
