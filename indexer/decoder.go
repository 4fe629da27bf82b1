package indexer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/btcsuite/btcd/btcutil"

	"block-explorer/common"
)

// blockMagic is the prefix the node writes before each record in its regtest
// blk*.dat container files.
var blockMagic = [4]byte{0x83, 0x9d, 0xe4, 0x11}

// BlockReader frames raw block payloads out of a blk container stream. It is
// a forward-only reader, not restartable mid-stream.
type BlockReader struct {
	r *bufio.Reader
}

func NewBlockReader(r io.Reader) *BlockReader {
	return &BlockReader{r: bufio.NewReader(r)}
}

// Next returns the next framed payload. io.EOF marks the end of usable data,
// which includes a truncated trailing record. A wrong magic prefix is a
// framing error.
func (br *BlockReader) Next() ([]byte, error) {
	var magic [4]byte
	if _, err := io.ReadFull(br.r, magic[:]); err != nil {
		return nil, eofOrErr(err)
	}
	if magic != blockMagic {
		return nil, common.Framingf("invalid magic [%x], want [%x]", magic, blockMagic)
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(br.r, lenBuf[:]); err != nil {
		return nil, eofOrErr(err)
	}
	size := binary.LittleEndian.Uint32(lenBuf[:])

	payload := make([]byte, size)
	if _, err := io.ReadFull(br.r, payload); err != nil {
		return nil, eofOrErr(err)
	}
	return payload, nil
}

func eofOrErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}

// decodeBlock hands one framed payload to the consensus deserializer.
func decodeBlock(payload []byte) (*btcutil.Block, error) {
	blk, err := btcutil.NewBlockFromBytes(payload)
	if err != nil {
		return nil, common.Framingf("decode block: %s", err.Error())
	}
	return blk, nil
}
