package indexer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"go.uber.org/zap"

	"block-explorer/net"
)

// Source yields decoded blocks in chain order. Next reports io.EOF once the
// source is exhausted. The returned height is negative when the source does
// not carry one and the controller must assign it.
type Source interface {
	Next() (*btcutil.Block, int64, error)
	Close() error
}

// BlockFetcher is the remote query collaborator, satisfied by *net.Client.
type BlockFetcher interface {
	FetchBlock(height uint32) ([]byte, error)
}

// RemoteSource walks a node upward from height 0 until the node reports no
// block at the requested height.
type RemoteSource struct {
	fetcher BlockFetcher
	next    uint32
}

func NewRemoteSource(fetcher BlockFetcher) *RemoteSource {
	return &RemoteSource{fetcher: fetcher}
}

func (s *RemoteSource) Next() (*btcutil.Block, int64, error) {
	raw, err := s.fetcher.FetchBlock(s.next)
	if errors.Is(err, net.ErrHeightOutOfRange) {
		return nil, 0, io.EOF
	}
	if err != nil {
		return nil, 0, err
	}

	blk, err := decodeBlock(raw)
	if err != nil {
		return nil, 0, err
	}
	height := int64(s.next)
	s.next++
	return blk, height, nil
}

func (s *RemoteSource) Close() error {
	return nil
}

// FileSource streams framed blocks out of the blk*.dat files of a directory,
// in lexical file order. It carries no heights.
type FileSource struct {
	files   []string
	current *os.File
	reader  *BlockReader
	logger  *zap.SugaredLogger
}

func NewFileSource(dir string) (*FileSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read blocks directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "blk") && strings.HasSuffix(name, ".dat") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)

	return &FileSource{
		files:  files,
		logger: zap.S().Named("[indexer]"),
	}, nil
}

func (s *FileSource) Next() (*btcutil.Block, int64, error) {
	for {
		if s.reader == nil {
			if len(s.files) == 0 {
				return nil, 0, io.EOF
			}
			path := s.files[0]
			s.files = s.files[1:]

			f, err := os.Open(path)
			if err != nil {
				return nil, 0, fmt.Errorf("open container file: %w", err)
			}
			s.logger.Infof("Processing file [%s]", filepath.Base(path))
			s.current = f
			s.reader = NewBlockReader(f)
		}

		payload, err := s.reader.Next()
		if errors.Is(err, io.EOF) {
			_ = s.current.Close()
			s.current, s.reader = nil, nil
			continue
		}
		if err != nil {
			return nil, 0, err
		}

		blk, err := decodeBlock(payload)
		if err != nil {
			return nil, 0, err
		}
		return blk, -1, nil
	}
}

func (s *FileSource) Close() error {
	if s.current != nil {
		return s.current.Close()
	}
	return nil
}
