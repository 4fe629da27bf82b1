package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"block-explorer/common"
	"block-explorer/database"
)

type ServerConfig struct {
	HttpPort int `toml:"http_port"`
}

type Server struct {
	router *gin.Engine
	srv    *http.Server

	db     *database.Store
	logger *zap.SugaredLogger
}

func New(db *database.Store, cfg *ServerConfig) *Server {
	router := gin.Default()
	router.Use(cors.Default())
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HttpPort),
		Handler: router,
	}

	s := &Server{
		router: router,
		srv:    srv,
		db:     db,
		logger: zap.S().Named("[api]"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)
	s.router.GET("/stats", s.stats)
	s.router.GET("/blocks", s.listBlocks)
	s.router.GET("/blocks/latest", s.latestBlocks)
	s.router.GET("/block/height/:height", s.blockByHeight)
	s.router.GET("/block/:hash", s.blockByHash)
	s.router.GET("/block/:hash/transactions", s.blockTransactions)
	s.router.GET("/tx/:txid", s.transaction)
}

func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()
	s.logger.Infof("API server listening on [%s]", s.srv.Addr)
}

func (s *Server) Stop() {
	if err := s.srv.Shutdown(context.Background()); err != nil {
		panic(err)
	}
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "block-explorer-backend",
	})
}

func (s *Server) blockByHash(c *gin.Context) {
	hash, ok := hexID(c.Param("hash"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid block hash", "hash": c.Param("hash")})
		return
	}

	block, err := s.db.GetBlockByHash(hash)
	if err != nil {
		s.respondError(c, err, gin.H{"error": "Block not found", "hash": hash})
		return
	}
	c.JSON(http.StatusOK, newBlockResponse(block))
}

func (s *Server) blockByHeight(c *gin.Context) {
	height, err := strconv.ParseUint(c.Param("height"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid block height", "height": c.Param("height")})
		return
	}

	block, dbErr := s.db.GetBlockByHeight(uint32(height))
	if dbErr != nil {
		s.respondError(c, dbErr, gin.H{"error": "Block not found", "height": height})
		return
	}
	c.JSON(http.StatusOK, newBlockResponse(block))
}

func (s *Server) blockTransactions(c *gin.Context) {
	hash, ok := hexID(c.Param("hash"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid block hash", "hash": c.Param("hash")})
		return
	}

	txids, err := s.db.GetBlockTxids(hash)
	if err != nil {
		s.respondError(c, err, gin.H{"error": "Block not found", "hash": hash})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"block_hash":        hash,
		"transaction_count": len(txids),
		"transactions":      txids,
	})
}

func (s *Server) transaction(c *gin.Context) {
	txid, ok := hexID(c.Param("txid"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction id", "txid": c.Param("txid")})
		return
	}

	tx, err := s.db.GetTransaction(txid)
	if err != nil {
		s.respondError(c, err, gin.H{"error": "Transaction not found", "txid": txid})
		return
	}

	blockHeight, err := s.db.BlockHeightByHash(tx.BlockHash)
	if err != nil {
		s.respondError(c, err, gin.H{"error": "Transaction not found", "txid": txid})
		return
	}
	tip, err := s.db.LatestHeight()
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, &TxResponse{
		Txid:          tx.Txid,
		Version:       tx.Version,
		LockTime:      tx.LockTime,
		BlockHash:     tx.BlockHash,
		BlockHeight:   blockHeight,
		Confirmations: tip - int64(blockHeight) + 1,
		Inputs:        tx.Inputs,
		Outputs:       tx.Outputs,
		Size:          tx.Size,
	})
}

func (s *Server) latestBlocks(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	blocks, dbErr := s.db.GetLatestBlocks(limit)
	if dbErr != nil {
		s.respondError(c, dbErr, nil)
		return
	}
	total, dbErr := s.db.CountBlocks()
	if dbErr != nil {
		s.respondError(c, dbErr, nil)
		return
	}

	c.JSON(http.StatusOK, &LatestBlocksResponse{
		Blocks:     newBlockSummaries(blocks),
		TotalCount: total,
	})
}

func (s *Server) listBlocks(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	paged, dbErr := s.db.ListBlocks(page, limit)
	if dbErr != nil {
		s.respondError(c, dbErr, nil)
		return
	}
	c.JSON(http.StatusOK, newBlocksPageResponse(paged))
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.db.GetStats()
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	if stats.Latest == nil {
		c.JSON(http.StatusOK, gin.H{
			"total_blocks":       stats.TotalBlocks,
			"total_transactions": stats.TotalTransactions,
			"message":            "No blocks indexed yet",
		})
		return
	}
	c.JSON(http.StatusOK, &StatsResponse{
		TotalBlocks:          stats.TotalBlocks,
		TotalTransactions:    stats.TotalTransactions,
		LatestBlockHeight:    stats.Latest.Height,
		LatestBlockHash:      stats.Latest.Hash,
		LatestBlockTimestamp: stats.Latest.Timestamp,
	})
}

// respondError maps store errors to status codes. Storage faults surface as
// a generic 500, internal detail goes to the log only.
func (s *Server) respondError(c *gin.Context, err error, notFoundBody gin.H) {
	if common.IsNotFound(err) && notFoundBody != nil {
		c.JSON(http.StatusNotFound, notFoundBody)
		return
	}
	s.logger.Errorf("Database error: [%s]", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}

// hexID validates a 32-byte hex identifier and normalizes it to lower case.
func hexID(id string) (string, bool) {
	if len(id) != 64 {
		return "", false
	}
	id = strings.ToLower(id)
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", false
		}
	}
	return id, true
}

// intQuery parses an optional numeric query parameter. Absence is not an
// error, the store applies defaults and clamping.
func intQuery(c *gin.Context, name string) (int, error) {
	value := c.Query(name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, common.InvalidParameterf("parameter [%s] must be numeric", name)
	}
	return n, nil
}
