package models

type Block struct {
	Hash       string `gorm:"primaryKey;size:64" json:"hash"`
	Height     uint32 `gorm:"uniqueIndex" json:"height"`
	Version    int32  `json:"version"`
	PrevBlock  string `gorm:"size:64" json:"prev_block"`
	MerkleRoot string `gorm:"size:64" json:"merkle_root"`
	Timestamp  int64  `gorm:"index" json:"timestamp"`
	Bits       uint32 `json:"bits"`
	Nonce      uint32 `json:"nonce"`
	TxCount    uint32 `json:"tx_count"`
	Size       uint32 `json:"size"`

	Transactions []Transaction `gorm:"foreignKey:BlockHash;references:Hash" json:"-"`
}
