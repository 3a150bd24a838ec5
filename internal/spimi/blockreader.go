package spimi

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/kev1N916/keSE/internal/codec"
)

// BlockRecord is one term's postings as read back out of a block file:
// doc ids (gap-reconstructed to absolute ids) and their term
// frequencies, in the order they were written.
type BlockRecord struct {
	Term   string
	DocIDs []uint32
	TFs    []uint32
}

// BlockFileReader reads spimi_block_*.tmp files term-by-term in the
// lexicographic order the Builder wrote them in.
type BlockFileReader struct {
	f     *os.File
	r     *bufio.Reader
	codec codec.Codec
}

// OpenBlockFile opens a block file for sequential term-record reading.
func OpenBlockFile(path string, c codec.Codec) (*BlockFileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &BlockFileReader{f: f, r: bufio.NewReader(f), codec: c}, nil
}

// Close releases the underlying file handle.
func (r *BlockFileReader) Close() error { return r.f.Close() }

// Next reads the next term record, or returns io.EOF when the file is
// exhausted.
func (r *BlockFileReader) Next() (*BlockRecord, error) {
	var lenBuf [4]byte

	if _, err := io.ReadFull(r.r, lenBuf[:2]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	termLen := binary.LittleEndian.Uint16(lenBuf[:2])

	termBytes := make([]byte, termLen)
	if _, err := io.ReadFull(r.r, termBytes); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r.r, lenBuf[:4]); err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(lenBuf[:4])

	if _, err := io.ReadFull(r.r, lenBuf[:4]); err != nil {
		return nil, err
	}
	docLen := binary.LittleEndian.Uint32(lenBuf[:4])

	if _, err := io.ReadFull(r.r, lenBuf[:4]); err != nil {
		return nil, err
	}
	tfLen := binary.LittleEndian.Uint32(lenBuf[:4])

	docBytes := make([]byte, docLen)
	if _, err := io.ReadFull(r.r, docBytes); err != nil {
		return nil, err
	}
	tfBytes := make([]byte, tfLen)
	if _, err := io.ReadFull(r.r, tfBytes); err != nil {
		return nil, err
	}

	gaps := make([]uint32, count)
	if err := r.codec.DecodeInto(docBytes, gaps); err != nil {
		return nil, err
	}
	tfs := make([]uint32, count)
	if err := r.codec.DecodeInto(tfBytes, tfs); err != nil {
		return nil, err
	}

	docIDs := make([]uint32, count)
	var prev int64 = -1
	for i, g := range gaps {
		prev = prev + 1 + int64(g)
		docIDs[i] = uint32(prev)
	}

	return &BlockRecord{Term: string(termBytes), DocIDs: docIDs, TFs: tfs}, nil
}
