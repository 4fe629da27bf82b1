package api

import (
	"block-explorer/database"
	"block-explorer/database/models"
)

type BlockResponse struct {
	Hash         string   `json:"hash"`
	Height       uint32   `json:"height"`
	Version      int32    `json:"version"`
	PrevBlock    string   `json:"prev_block"`
	MerkleRoot   string   `json:"merkle_root"`
	Timestamp    int64    `json:"timestamp"`
	Bits         uint32   `json:"bits"`
	Nonce        uint32   `json:"nonce"`
	TxCount      uint32   `json:"tx_count"`
	Size         uint32   `json:"size"`
	Transactions []string `json:"transactions"`
}

func newBlockResponse(block *models.Block) *BlockResponse {
	txids := make([]string, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		txids = append(txids, tx.Txid)
	}
	return &BlockResponse{
		Hash:         block.Hash,
		Height:       block.Height,
		Version:      block.Version,
		PrevBlock:    block.PrevBlock,
		MerkleRoot:   block.MerkleRoot,
		Timestamp:    block.Timestamp,
		Bits:         block.Bits,
		Nonce:        block.Nonce,
		TxCount:      block.TxCount,
		Size:         block.Size,
		Transactions: txids,
	}
}

type TxResponse struct {
	Txid          string          `json:"txid"`
	Version       int32           `json:"version"`
	LockTime      uint32          `json:"lock_time"`
	BlockHash     string          `json:"block_hash"`
	BlockHeight   uint32          `json:"block_height"`
	Confirmations int64           `json:"confirmations"`
	Inputs        []models.Input  `json:"inputs"`
	Outputs       []models.Output `json:"outputs"`
	Size          uint32          `json:"size"`
}

type BlockSummary struct {
	Hash      string `json:"hash"`
	Height    uint32 `json:"height"`
	Timestamp int64  `json:"timestamp"`
	TxCount   uint32 `json:"tx_count"`
}

func newBlockSummaries(blocks []models.Block) []BlockSummary {
	summaries := make([]BlockSummary, 0, len(blocks))
	for _, block := range blocks {
		summaries = append(summaries, BlockSummary{
			Hash:      block.Hash,
			Height:    block.Height,
			Timestamp: block.Timestamp,
			TxCount:   block.TxCount,
		})
	}
	return summaries
}

type LatestBlocksResponse struct {
	Blocks     []BlockSummary `json:"blocks"`
	TotalCount int64          `json:"total_count"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalBlocks int64 `json:"total_blocks"`
	TotalPages  int64 `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

type BlocksPageResponse struct {
	Blocks     []BlockSummary `json:"blocks"`
	Pagination Pagination     `json:"pagination"`
}

func newBlocksPageResponse(paged *database.PagedBlocks) *BlocksPageResponse {
	return &BlocksPageResponse{
		Blocks: newBlockSummaries(paged.Blocks),
		Pagination: Pagination{
			CurrentPage: paged.Page,
			PerPage:     paged.Limit,
			TotalBlocks: paged.TotalCount,
			TotalPages:  paged.TotalPages,
			HasNext:     paged.HasNext,
			HasPrev:     paged.HasPrev,
		},
	}
}

type StatsResponse struct {
	TotalBlocks          int64  `json:"total_blocks"`
	TotalTransactions    int64  `json:"total_transactions"`
	LatestBlockHeight    uint32 `json:"latest_block_height"`
	LatestBlockHash      string `json:"latest_block_hash"`
	LatestBlockTimestamp int64  `json:"latest_block_timestamp"`
}
