package api

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"block-explorer/database"
	"block-explorer/database/models"
	"block-explorer/indexer"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *database.Store) {
	t.Helper()
	store := database.New(&database.Config{Path: filepath.Join(t.TempDir(), "blocks.db")})
	t.Cleanup(store.Close)
	return New(store, &ServerConfig{HttpPort: 0}), store
}

func seedBlock(t *testing.T, store *database.Store, height uint32, txCount int) *models.Block {
	t.Helper()
	hash := fmt.Sprintf("%060x%04x", 0xb, height)
	block := &models.Block{
		Hash:       hash,
		Height:     height,
		Version:    1,
		PrevBlock:  fmt.Sprintf("%064x", height),
		MerkleRoot: fmt.Sprintf("%064x", height+0x10),
		Timestamp:  1600000000 + int64(height)*600,
		Bits:       0x207fffff,
		Nonce:      height,
		TxCount:    uint32(txCount),
		Size:       285,
	}
	for i := 0; i < txCount; i++ {
		block.Transactions = append(block.Transactions, models.Transaction{
			Txid:       fmt.Sprintf("%052x%08x%04x", 0xc, height, i),
			BlockHash:  hash,
			BlockIndex: uint16(i),
			Version:    2,
			Size:       120,
			Inputs:     []models.Input{{Coinbase: i == 0, ScriptSig: "5102", Sequence: 0xffffffff}},
			Outputs:    []models.Output{{N: 0, Value: 2500000000, ScriptPubKey: "51"}},
		})
	}
	inserted, err := store.InsertBlock(block)
	require.NoError(t, err)
	require.True(t, inserted)
	return block
}

func perform(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := perform(t, s, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "block-explorer-backend", body["service"])
}

func TestGetBlockByHash(t *testing.T) {
	s, store := newTestServer(t)
	block := seedBlock(t, store, 0, 2)

	w := perform(t, s, "/block/"+block.Hash)
	require.Equal(t, http.StatusOK, w.Code)

	var got BlockResponse
	decodeBody(t, w, &got)
	assert.Equal(t, block.Hash, got.Hash)
	assert.Equal(t, uint32(0), got.Height)
	assert.Equal(t, uint32(2), got.TxCount)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, block.Transactions[0].Txid, got.Transactions[0])
	assert.Equal(t, block.Transactions[1].Txid, got.Transactions[1])
}

func TestGetBlockByHashNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := perform(t, s, "/block/"+fmt.Sprintf("%064x", 0xdead))
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	decodeBody(t, w, &body)
	assert.Equal(t, "Block not found", body["error"])
}

func TestGetBlockByHashInvalid(t *testing.T) {
	s, _ := newTestServer(t)

	for _, hash := range []string{"abc", "zz" + fmt.Sprintf("%062x", 0)} {
		w := perform(t, s, "/block/"+hash)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestGetBlockByHashUppercase(t *testing.T) {
	s, store := newTestServer(t)
	block := seedBlock(t, store, 0, 1)

	w := perform(t, s, "/block/"+strings.ToUpper(block.Hash))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetBlockByHeight(t *testing.T) {
	s, store := newTestServer(t)
	seedBlock(t, store, 0, 1)
	block := seedBlock(t, store, 1, 1)

	w := perform(t, s, "/block/height/1")
	require.Equal(t, http.StatusOK, w.Code)

	var got BlockResponse
	decodeBody(t, w, &got)
	assert.Equal(t, block.Hash, got.Hash)

	w = perform(t, s, "/block/height/5")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(t, s, "/block/height/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTransaction(t *testing.T) {
	s, store := newTestServer(t)
	seedBlock(t, store, 0, 1)
	block := seedBlock(t, store, 1, 2)
	seedBlock(t, store, 2, 1)

	txid := block.Transactions[1].Txid
	w := perform(t, s, "/tx/"+txid)
	require.Equal(t, http.StatusOK, w.Code)

	var got TxResponse
	decodeBody(t, w, &got)
	assert.Equal(t, txid, got.Txid)
	assert.Equal(t, block.Hash, got.BlockHash)
	assert.Equal(t, uint32(1), got.BlockHeight)
	assert.Equal(t, int64(2), got.Confirmations)
	require.Len(t, got.Inputs, 1)
	require.Len(t, got.Outputs, 1)
	assert.Equal(t, uint64(2500000000), got.Outputs[0].Value)

	w = perform(t, s, "/tx/"+fmt.Sprintf("%064x", 0xfeed))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(t, s, "/tx/nothex")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlockTransactions(t *testing.T) {
	s, store := newTestServer(t)
	block := seedBlock(t, store, 0, 3)

	w := perform(t, s, "/block/"+block.Hash+"/transactions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		BlockHash        string   `json:"block_hash"`
		TransactionCount int      `json:"transaction_count"`
		Transactions     []string `json:"transactions"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, block.Hash, body.BlockHash)
	assert.Equal(t, 3, body.TransactionCount)
	require.Len(t, body.Transactions, 3)
	assert.Equal(t, block.Transactions[0].Txid, body.Transactions[0])
}

func TestLatestBlocks(t *testing.T) {
	s, store := newTestServer(t)
	for h := uint32(0); h < 3; h++ {
		seedBlock(t, store, h, 1)
	}

	w := perform(t, s, "/blocks/latest?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var got LatestBlocksResponse
	decodeBody(t, w, &got)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, uint32(2), got.Blocks[0].Height)
	assert.Equal(t, uint32(1), got.Blocks[1].Height)
	assert.Equal(t, int64(3), got.TotalCount)

	// Absent and non-positive limits fall back to the default.
	for _, path := range []string{"/blocks/latest", "/blocks/latest?limit=-1"} {
		w = perform(t, s, path)
		require.Equal(t, http.StatusOK, w.Code)
		decodeBody(t, w, &got)
		assert.Len(t, got.Blocks, 3)
	}

	w = perform(t, s, "/blocks/latest?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBlocks(t *testing.T) {
	s, store := newTestServer(t)
	for h := uint32(0); h < 5; h++ {
		seedBlock(t, store, h, 1)
	}

	w := perform(t, s, "/blocks?page=2&limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var got BlocksPageResponse
	decodeBody(t, w, &got)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, uint32(2), got.Blocks[0].Height)
	assert.Equal(t, uint32(3), got.Blocks[1].Height)
	assert.Equal(t, 2, got.Pagination.CurrentPage)
	assert.Equal(t, 2, got.Pagination.PerPage)
	assert.Equal(t, int64(5), got.Pagination.TotalBlocks)
	assert.Equal(t, int64(3), got.Pagination.TotalPages)
	assert.True(t, got.Pagination.HasNext)
	assert.True(t, got.Pagination.HasPrev)

	// Page below 1 is treated as page 1.
	w = perform(t, s, "/blocks?page=0&limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &got)
	assert.Equal(t, 1, got.Pagination.CurrentPage)
	assert.Equal(t, uint32(0), got.Blocks[0].Height)

	w = perform(t, s, "/blocks?page=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	s, store := newTestServer(t)

	w := perform(t, s, "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var empty map[string]interface{}
	decodeBody(t, w, &empty)
	assert.Equal(t, "No blocks indexed yet", empty["message"])

	seedBlock(t, store, 0, 2)
	block := seedBlock(t, store, 1, 1)

	w = perform(t, s, "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var got StatsResponse
	decodeBody(t, w, &got)
	assert.Equal(t, int64(2), got.TotalBlocks)
	assert.Equal(t, int64(3), got.TotalTransactions)
	assert.Equal(t, uint32(1), got.LatestBlockHeight)
	assert.Equal(t, block.Hash, got.LatestBlockHash)
	assert.Equal(t, block.Timestamp, got.LatestBlockTimestamp)
}

// End to end: ingest three blocks from a container file, query them over
// HTTP, re-run ingestion and verify nothing changed.
func TestFileIngestThenQuery(t *testing.T) {
	s, store := newTestServer(t)

	blocks := make([]*wire.MsgBlock, 0, 3)
	prev := chainhash.Hash{}
	for i := 0; i < 3; i++ {
		coinbase := wire.NewMsgTx(wire.TxVersion)
		coinbase.AddTxIn(wire.NewTxIn(
			wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
			[]byte{0x51, byte(i)},
			nil,
		))
		coinbase.AddTxOut(wire.NewTxOut(50_0000_0000, []byte{0x51}))
		merkle := coinbase.TxHash()
		header := wire.NewBlockHeader(1, &prev, &merkle, 0x207fffff, uint32(i))
		header.Timestamp = time.Unix(1600000000+int64(i)*600, 0)
		block := wire.NewMsgBlock(header)
		require.NoError(t, block.AddTransaction(coinbase))
		prev = block.BlockHash()
		blocks = append(blocks, block)
	}

	dir := t.TempDir()
	var buf bytes.Buffer
	for _, block := range blocks {
		var blockBuf bytes.Buffer
		require.NoError(t, block.Serialize(&blockBuf))
		buf.Write([]byte{0x83, 0x9d, 0xe4, 0x11})
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(blockBuf.Len()))
		buf.Write(lenBuf[:])
		buf.Write(blockBuf.Bytes())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blk00000.dat"), buf.Bytes(), 0o644))

	ingest := func() int {
		src, err := indexer.NewFileSource(dir)
		require.NoError(t, err)
		indexed, err := indexer.New(store).Run(context.Background(), src)
		require.NoError(t, err)
		return indexed
	}
	require.Equal(t, 3, ingest())

	w := perform(t, s, "/blocks/latest?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var latest LatestBlocksResponse
	decodeBody(t, w, &latest)
	require.Len(t, latest.Blocks, 2)
	assert.Equal(t, uint32(2), latest.Blocks[0].Height)
	assert.Equal(t, uint32(1), latest.Blocks[1].Height)

	w = perform(t, s, "/stats")
	var stats StatsResponse
	decodeBody(t, w, &stats)
	assert.Equal(t, int64(3), stats.TotalBlocks)

	// Second run over the same file is a no-op.
	assert.Equal(t, 0, ingest())
	w = perform(t, s, "/stats")
	decodeBody(t, w, &stats)
	assert.Equal(t, int64(3), stats.TotalBlocks)

	// Round trip by hash preserves the transaction set.
	w = perform(t, s, "/block/"+blocks[1].BlockHash().String())
	require.Equal(t, http.StatusOK, w.Code)
	var got BlockResponse
	decodeBody(t, w, &got)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, blocks[1].Transactions[0].TxHash().String(), got.Transactions[0])
}
