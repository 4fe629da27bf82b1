package database

import (
	"errors"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"block-explorer/common"
	"block-explorer/database/models"
)

type Config struct {
	Path string `toml:"path"`
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Store is the append-only block store. Reads run concurrently against the
// connection pool; commits are serialized so a reader never observes a block
// whose transactions are only partially written.
type Store struct {
	db *gorm.DB

	writeLock sync.Mutex

	logger *zap.SugaredLogger
}

func New(cfg *Config) *Store {
	dsn := cfg.Path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, dbErr := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if dbErr != nil {
		panic(dbErr)
	}

	dbErr = db.AutoMigrate(&models.Block{})
	if dbErr != nil {
		panic(dbErr)
	}

	dbErr = db.AutoMigrate(&models.Transaction{})
	if dbErr != nil {
		panic(dbErr)
	}

	return &Store{
		db:     db,
		logger: zap.S().Named("[db]"),
	}
}

func (s *Store) Close() {
	sqlDB, err := s.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

// InsertBlock commits a block row together with all of its transaction rows.
// It returns false without error when the block hash is already stored, so
// re-running ingestion over an indexed source is a no-op.
func (s *Store) InsertBlock(block *models.Block) (bool, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	exists, err := s.HasBlock(block.Hash)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(block).Error
	})
	if err != nil {
		return false, common.Storage("insert block "+block.Hash, err)
	}
	return true, nil
}

func (s *Store) HasBlock(hash string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Block{}).Where("hash = ?", hash).Count(&count).Error
	if err != nil {
		return false, common.Storage("check block "+hash, err)
	}
	return count > 0, nil
}

// NextHeight returns the first unindexed height, 0 for an empty store.
func (s *Store) NextHeight() (uint32, error) {
	var next int64
	err := s.db.Model(&models.Block{}).Select("COALESCE(MAX(height) + 1, 0)").Scan(&next).Error
	if err != nil {
		return 0, common.Storage("query next height", err)
	}
	return uint32(next), nil
}

// LatestHeight returns -1 for an empty store.
func (s *Store) LatestHeight() (int64, error) {
	next, err := s.NextHeight()
	if err != nil {
		return 0, err
	}
	return int64(next) - 1, nil
}

func (s *Store) GetBlockByHash(hash string) (*models.Block, error) {
	var block models.Block
	err := s.db.
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("block_index ASC")
		}).
		Where("hash = ?", hash).
		Take(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundf("block [%s] not found", hash)
	}
	if err != nil {
		return nil, common.Storage("query block "+hash, err)
	}
	return &block, nil
}

func (s *Store) GetBlockByHeight(height uint32) (*models.Block, error) {
	var block models.Block
	err := s.db.
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("block_index ASC")
		}).
		Where("height = ?", height).
		Take(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundf("block at height [%d] not found", height)
	}
	if err != nil {
		return nil, common.Storage("query block height", err)
	}
	return &block, nil
}

func (s *Store) BlockHeightByHash(hash string) (uint32, error) {
	var block models.Block
	err := s.db.Select("height").Where("hash = ?", hash).Take(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, common.NotFoundf("block [%s] not found", hash)
	}
	if err != nil {
		return 0, common.Storage("query block height", err)
	}
	return block.Height, nil
}

func (s *Store) GetTransaction(txid string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.Where("txid = ?", txid).Take(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundf("transaction [%s] not found", txid)
	}
	if err != nil {
		return nil, common.Storage("query transaction "+txid, err)
	}
	return &tx, nil
}

// GetBlockTxids returns the txids of a block in block order.
func (s *Store) GetBlockTxids(hash string) ([]string, error) {
	exists, err := s.HasBlock(hash)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.NotFoundf("block [%s] not found", hash)
	}

	txids := make([]string, 0)
	err = s.db.Model(&models.Transaction{}).
		Where("block_hash = ?", hash).
		Order("block_index ASC").
		Pluck("txid", &txids).Error
	if err != nil {
		return nil, common.Storage("query block transactions", err)
	}
	return txids, nil
}

// GetLatestBlocks returns blocks ordered by height descending. The limit is
// clamped into [1, MaxPageLimit] and defaults when non-positive.
func (s *Store) GetLatestBlocks(limit int) ([]models.Block, error) {
	blocks := make([]models.Block, 0)
	err := s.db.Order("height DESC").Limit(clampLimit(limit)).Find(&blocks).Error
	if err != nil {
		return nil, common.Storage("query latest blocks", err)
	}
	return blocks, nil
}

func (s *Store) CountBlocks() (int64, error) {
	var total int64
	err := s.db.Model(&models.Block{}).Count(&total).Error
	if err != nil {
		return 0, common.Storage("count blocks", err)
	}
	return total, nil
}

type PagedBlocks struct {
	Blocks     []models.Block
	Page       int
	Limit      int
	TotalCount int64
	TotalPages int64
	HasNext    bool
	HasPrev    bool
}

// ListBlocks returns one page of blocks ordered by height ascending.
func (s *Store) ListBlocks(page, limit int) (*PagedBlocks, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit)

	total, err := s.CountBlocks()
	if err != nil {
		return nil, err
	}

	blocks := make([]models.Block, 0)
	err = s.db.Order("height ASC").Limit(limit).Offset((page - 1) * limit).Find(&blocks).Error
	if err != nil {
		return nil, common.Storage("query blocks page", err)
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	return &PagedBlocks{
		Blocks:     blocks,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    int64(page) < totalPages,
		HasPrev:    page > 1,
	}, nil
}

type Stats struct {
	TotalBlocks       int64
	TotalTransactions int64
	Latest            *LatestBlock
}

type LatestBlock struct {
	Height    uint32
	Hash      string
	Timestamp int64
}

// GetStats is computed fresh from the store on every call.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	var err error
	if stats.TotalBlocks, err = s.CountBlocks(); err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Transaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return nil, common.Storage("count transactions", err)
	}

	var latest models.Block
	err = s.db.Order("height DESC").Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stats, nil
	}
	if err != nil {
		return nil, common.Storage("query latest block", err)
	}
	stats.Latest = &LatestBlock{
		Height:    latest.Height,
		Hash:      latest.Hash,
		Timestamp: latest.Timestamp,
	}
	return stats, nil
}

func (s *Store) Report() {
	stats, err := s.GetStats()
	if err != nil {
		s.logger.Errorf("Status report failed: [%s]", err.Error())
		return
	}
	if stats.Latest == nil {
		s.logger.Info("Status report, store is empty")
		return
	}
	s.logger.Infof("Status report, [%s] blocks, [%s] transactions, latest height [%d](%s)",
		humanize.Comma(stats.TotalBlocks),
		humanize.Comma(stats.TotalTransactions),
		stats.Latest.Height,
		stats.Latest.Hash)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
