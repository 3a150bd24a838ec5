// Package postings implements the block postings store: the codec layer
// wrapped with fixed-size doc-id blocks plus the skip metadata (max doc
// id, max score, byte offsets) that lets a cursor skip over blocks
// without decoding them.
package postings

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/kev1N916/keSE/internal/codec"
	"github.com/kev1N916/keSE/internal/scorer"
)

// BlockDescriptor is one entry of a term's skip table, mirroring the
// on-disk skip_tables.bin record layout.
type BlockDescriptor struct {
	LastDocID    uint32
	MaxScore     float32
	ByteOffset   uint64
	ByteLength   uint32
	TFByteLength uint32
	Count        uint32 // postings in this block; last block may be < block size
}

// Writer encodes postings for one term at a time into an underlying
// byte sink (the final inverted_index.idx), returning the skip
// descriptors needed to read them back.
type Writer struct {
	w      io.Writer
	codec  codec.Codec
	blockN int
	offset uint64
}

// NewWriter creates a postings writer over w, encoding with c and
// chunking doc ids/term-frequencies into blocks of blockN postings.
func NewWriter(w io.Writer, c codec.Codec, blockN int) *Writer {
	return &Writer{w: w, codec: c, blockN: blockN}
}

// WriteTerm encodes the full posting list for one term: docIDs strictly
// increasing, tfs and docLens aligned one-to-one with docIDs. idf and
// avgdl parameterize the block-max-score computation (the actual
// maximum BM25 contribution in the block, not the supremum).
func (pw *Writer) WriteTerm(docIDs, tfs, docLens []uint32, idf float64, avgdl float64, params scorer.Params) ([]BlockDescriptor, error) {
	if len(docIDs) != len(tfs) || len(docIDs) != len(docLens) {
		return nil, fmt.Errorf("postings: docIDs/tfs/docLens length mismatch")
	}
	var descriptors []BlockDescriptor
	for start := 0; start < len(docIDs); start += pw.blockN {
		end := start + pw.blockN
		if end > len(docIDs) {
			end = len(docIDs)
		}
		desc, err := pw.writeBlock(docIDs[start:end], tfs[start:end], docLens[start:end], idf, avgdl, params)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

func (pw *Writer) writeBlock(docIDs, tfs, docLens []uint32, idf, avgdl float64, params scorer.Params) (BlockDescriptor, error) {
	gaps := make([]uint32, len(docIDs))
	prev := int64(-1)
	for i, d := range docIDs {
		if int64(d) <= prev {
			return BlockDescriptor{}, fmt.Errorf("postings: non-increasing doc id %d after %d", d, prev)
		}
		gaps[i] = uint32(int64(d) - prev - 1)
		prev = int64(d)
	}

	docBytes := pw.codec.Encode(gaps)
	tfBytes := pw.codec.Encode(tfs)

	var maxScore float32
	for i := range docIDs {
		s := scorer.Score(idf, tfs[i], docLens[i], avgdl, params)
		if s > maxScore {
			maxScore = s
		}
	}

	if _, err := pw.w.Write(docBytes); err != nil {
		return BlockDescriptor{}, err
	}
	if _, err := pw.w.Write(tfBytes); err != nil {
		return BlockDescriptor{}, err
	}

	desc := BlockDescriptor{
		LastDocID:    docIDs[len(docIDs)-1],
		MaxScore:     maxScore,
		ByteOffset:   pw.offset,
		ByteLength:   uint32(len(docBytes)),
		TFByteLength: uint32(len(tfBytes)),
		Count:        uint32(len(docIDs)),
	}
	pw.offset += uint64(len(docBytes)) + uint64(len(tfBytes))
	return desc, nil
}

// Reader decodes blocks out of a random-access postings file given a
// caller-supplied skip descriptor and codec.
type Reader struct {
	r io.ReaderAt
}

// NewReader wraps a random-access postings file.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// DecodeBlock decodes one block's doc ids (gap-reconstructed to
// absolute ids) and term frequencies.
func (pr *Reader) DecodeBlock(desc BlockDescriptor, c codec.Codec) (docIDs []uint32, tfs []uint32, err error) {
	buf := make([]byte, desc.ByteLength+desc.TFByteLength)
	if _, err := pr.r.ReadAt(buf, int64(desc.ByteOffset)); err != nil {
		return nil, nil, err
	}
	gaps := make([]uint32, desc.Count)
	if err := c.DecodeInto(buf[:desc.ByteLength], gaps); err != nil {
		return nil, nil, err
	}
	tfs = make([]uint32, desc.Count)
	if err := c.DecodeInto(buf[desc.ByteLength:], tfs); err != nil {
		return nil, nil, err
	}
	docIDs = make([]uint32, desc.Count)
	var prev int64 = -1
	for i, g := range gaps {
		prev = prev + 1 + int64(g)
		docIDs[i] = uint32(prev)
	}
	return docIDs, tfs, nil
}

// EncodeSkipTable serializes a term's block descriptors to the
// skip_tables.bin record layout: (last_doc_id u32, max_score f32,
// byte_offset u64, byte_length u32, tf_byte_length u32, count u32).
func EncodeSkipTable(descs []BlockDescriptor) []byte {
	const recordSize = 4 + 4 + 8 + 4 + 4 + 4
	out := make([]byte, len(descs)*recordSize)
	for i, d := range descs {
		rec := out[i*recordSize : (i+1)*recordSize]
		binary.LittleEndian.PutUint32(rec[0:4], d.LastDocID)
		binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(d.MaxScore))
		binary.LittleEndian.PutUint64(rec[8:16], d.ByteOffset)
		binary.LittleEndian.PutUint32(rec[16:20], d.ByteLength)
		binary.LittleEndian.PutUint32(rec[20:24], d.TFByteLength)
		binary.LittleEndian.PutUint32(rec[24:28], d.Count)
	}
	return out
}

// DecodeSkipTable is the inverse of EncodeSkipTable.
func DecodeSkipTable(data []byte) ([]BlockDescriptor, error) {
	const recordSize = 28
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("postings: skip table length %d not a multiple of record size", len(data))
	}
	n := len(data) / recordSize
	out := make([]BlockDescriptor, n)
	for i := range out {
		rec := data[i*recordSize : (i+1)*recordSize]
		out[i] = BlockDescriptor{
			LastDocID:    binary.LittleEndian.Uint32(rec[0:4]),
			MaxScore:     math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8])),
			ByteOffset:   binary.LittleEndian.Uint64(rec[8:16]),
			ByteLength:   binary.LittleEndian.Uint32(rec[16:20]),
			TFByteLength: binary.LittleEndian.Uint32(rec[20:24]),
			Count:        binary.LittleEndian.Uint32(rec[24:28]),
		}
	}
	return out, nil
}
