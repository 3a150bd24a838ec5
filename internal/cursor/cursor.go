// Package cursor implements the postings-cursor abstraction the
// retrieval engine drives: a single term's postings, with block-level
// skipping via next_geq and block-max metadata exposed without forcing
// a decode.
package cursor

import (
	"math"

	"github.com/kev1N916/keSE/internal/codec"
	"github.com/kev1N916/keSE/internal/postings"
	"github.com/kev1N916/keSE/internal/scorer"
)

// ExhaustedDocID is the sentinel doc id reported once a cursor has no
// more postings, standing in for the spec's infinity sentinel.
const ExhaustedDocID = math.MaxUint32

// DocLenFunc resolves a document id to its length in tokens, used to
// score postings on demand.
type DocLenFunc func(docID uint32) uint32

// Cursor is a uniform iterator over one term's postings.
type Cursor interface {
	// TermID orders cursors for canonical, deterministic summation.
	TermID() int
	DocID() uint32
	Score() float32
	Next()
	NextGEQ(target uint32)
	BlockMaxDocID() uint32
	BlockMaxScore() float32
	UpperBound() float32
	Exhausted() bool
}

// Block is a cursor over one term's posting list, decoding blocks
// lazily as next_geq or exhaustive iteration demands them.
type Block struct {
	termID  int
	reader  *postings.Reader
	codec   codec.Codec
	descs   []postings.BlockDescriptor
	docLen  DocLenFunc
	idf     float64
	avgdl   float64
	params  scorer.Params
	ub      float32

	blockIdx int
	docIDs   []uint32
	tfs      []uint32
	pos       int
	decoded   bool
	exhausted bool
	decodeErr error
}

// NewBlock builds a cursor for a term whose postings live in the blocks
// described by descs, readable through reader with codec c.
func NewBlock(termID int, reader *postings.Reader, c codec.Codec, descs []postings.BlockDescriptor, docLen DocLenFunc, idf, avgdl float64, params scorer.Params) *Block {
	bc := &Block{
		termID: termID,
		reader: reader,
		codec:  c,
		descs:  descs,
		docLen: docLen,
		idf:    idf,
		avgdl:  avgdl,
		params: params,
		ub:     scorer.UpperBound(idf, params),
	}
	if len(descs) == 0 {
		bc.exhausted = true
	}
	return bc
}

func (c *Block) TermID() int { return c.termID }

func (c *Block) ensureDecoded() {
	if c.decoded || c.exhausted {
		return
	}
	desc := c.descs[c.blockIdx]
	docIDs, tfs, err := c.reader.DecodeBlock(desc, c.codec)
	if err != nil {
		// A decode failure here is surfaced to the caller as an
		// exhausted cursor, with the error kept for DecodeErr. The
		// retrieval algorithms do not call DecodeErr, so for them a
		// corrupt block ends that term's postings without an error.
		c.decodeErr = err
		c.exhausted = true
		return
	}
	c.docIDs = docIDs
	c.tfs = tfs
	c.pos = 0
	c.decoded = true
}

func (c *Block) DocID() uint32 {
	if c.exhausted {
		return ExhaustedDocID
	}
	c.ensureDecoded()
	if c.exhausted {
		return ExhaustedDocID
	}
	return c.docIDs[c.pos]
}

func (c *Block) Score() float32 {
	if c.exhausted {
		return 0
	}
	c.ensureDecoded()
	if c.exhausted {
		return 0
	}
	docID := c.docIDs[c.pos]
	tf := c.tfs[c.pos]
	dl := c.docLen(docID)
	return scorer.Score(c.idf, tf, dl, c.avgdl, c.params)
}

func (c *Block) Next() {
	if c.exhausted {
		return
	}
	c.ensureDecoded()
	if c.exhausted {
		return
	}
	c.pos++
	if c.pos >= len(c.docIDs) {
		c.advanceBlock()
	}
}

func (c *Block) advanceBlock() {
	c.blockIdx++
	c.decoded = false
	c.docIDs = nil
	c.tfs = nil
	c.pos = 0
	if c.blockIdx >= len(c.descs) {
		c.exhausted = true
	}
}

// NextGEQ advances to the first posting with doc id >= target, skipping
// whole blocks via block_max_doc_id before decoding anything.
func (c *Block) NextGEQ(target uint32) {
	if c.exhausted {
		return
	}
	for c.blockIdx < len(c.descs) && c.descs[c.blockIdx].LastDocID < target {
		c.blockIdx++
		c.decoded = false
		c.docIDs = nil
		c.tfs = nil
		c.pos = 0
	}
	if c.blockIdx >= len(c.descs) {
		c.exhausted = true
		return
	}
	c.ensureDecoded()
	if c.exhausted {
		return
	}
	for c.pos < len(c.docIDs) && c.docIDs[c.pos] < target {
		c.pos++
	}
	if c.pos >= len(c.docIDs) {
		c.advanceBlock()
		if !c.exhausted {
			c.NextGEQ(target)
		}
	}
}

// BlockMaxDocID returns the current block's last doc id without forcing
// a decode of its postings.
func (c *Block) BlockMaxDocID() uint32 {
	if c.exhausted || c.blockIdx >= len(c.descs) {
		return ExhaustedDocID
	}
	return c.descs[c.blockIdx].LastDocID
}

// BlockMaxScore returns the current block's precomputed maximum BM25
// contribution without forcing a decode.
func (c *Block) BlockMaxScore() float32 {
	if c.exhausted || c.blockIdx >= len(c.descs) {
		return 0
	}
	return c.descs[c.blockIdx].MaxScore
}

func (c *Block) UpperBound() float32 { return c.ub }

func (c *Block) Exhausted() bool { return c.exhausted }

// DecodeErr returns the error from the most recent failed block decode,
// if any. A cursor that hit a corrupt block reports exhausted=true but
// callers that need to distinguish "naturally exhausted" from "corrupt
// block" should check this.
func (c *Block) DecodeErr() error { return c.decodeErr }
