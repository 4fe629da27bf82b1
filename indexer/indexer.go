package indexer

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"block-explorer/database"
	"block-explorer/database/models"
	"block-explorer/utils"
)

// Indexer drives one ingestion run: fetch, decode, commit, in source order.
type Indexer struct {
	store    *database.Store
	reporter *utils.Reporter
	logger   *zap.SugaredLogger
}

func New(store *database.Store) *Indexer {
	return &Indexer{
		store:    store,
		reporter: utils.NewReporter(100, 10*time.Second, "Indexed [%d] blocks in [%.2fs], speed [%.2fblocks/sec]"),
		logger:   zap.S().Named("[indexer]"),
	}
}

// Run walks the source to completion. Blocks whose hash is already stored
// are skipped, so re-running over a partially indexed source is safe. The
// returned count covers newly committed blocks only; on failure everything
// committed before the error stays valid and queryable.
func (idx *Indexer) Run(ctx context.Context, src Source) (int, error) {
	defer src.Close()

	indexed := 0
	for {
		select {
		case <-ctx.Done():
			return indexed, ctx.Err()
		default:
		}

		blk, height, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return indexed, err
		}

		hash := blk.Hash().String()
		exists, err := idx.store.HasBlock(hash)
		if err != nil {
			return indexed, err
		}
		if exists {
			idx.logger.Debugf("Block [%s] already indexed, skipping", hash)
			continue
		}

		// File records carry no height, assign the next unindexed one.
		if height < 0 {
			next, err := idx.store.NextHeight()
			if err != nil {
				return indexed, err
			}
			height = int64(next)
		}

		row := buildBlockRow(blk, uint32(height))
		if _, err := idx.store.InsertBlock(row); err != nil {
			return indexed, err
		}
		indexed++

		idx.logger.Infof("Indexed block [%d](%s) with [%d] transactions", height, hash, row.TxCount)
		if shouldReport, reportContent := idx.reporter.Add(1); shouldReport {
			idx.logger.Info(reportContent)
		}
	}
	return indexed, nil
}

func buildBlockRow(blk *btcutil.Block, height uint32) *models.Block {
	msg := blk.MsgBlock()
	header := &msg.Header

	row := &models.Block{
		Hash:       blk.Hash().String(),
		Height:     height,
		Version:    header.Version,
		PrevBlock:  header.PrevBlock.String(),
		MerkleRoot: header.MerkleRoot.String(),
		Timestamp:  header.Timestamp.Unix(),
		Bits:       header.Bits,
		Nonce:      header.Nonce,
		TxCount:    uint32(len(msg.Transactions)),
		Size:       uint32(msg.SerializeSize()),
	}

	for i, tx := range blk.Transactions() {
		msgTx := tx.MsgTx()
		txRow := models.Transaction{
			Txid:       tx.Hash().String(),
			BlockHash:  row.Hash,
			BlockIndex: uint16(i),
			Version:    msgTx.Version,
			LockTime:   msgTx.LockTime,
			Size:       uint32(msgTx.SerializeSize()),
		}
		for _, in := range msgTx.TxIn {
			input := models.Input{
				ScriptSig: hex.EncodeToString(in.SignatureScript),
				Sequence:  in.Sequence,
			}
			if isCoinbase(in) {
				input.Coinbase = true
			} else {
				input.PrevTxid = in.PreviousOutPoint.Hash.String()
				input.Vout = in.PreviousOutPoint.Index
			}
			txRow.Inputs = append(txRow.Inputs, input)
		}
		for n, out := range msgTx.TxOut {
			txRow.Outputs = append(txRow.Outputs, models.Output{
				N:            uint32(n),
				Value:        uint64(out.Value),
				ScriptPubKey: hex.EncodeToString(out.PkScript),
			})
		}
		row.Transactions = append(row.Transactions, txRow)
	}
	return row
}

func isCoinbase(in *wire.TxIn) bool {
	return in.PreviousOutPoint.Index == wire.MaxPrevOutIndex &&
		in.PreviousOutPoint.Hash == (chainhash.Hash{})
}
