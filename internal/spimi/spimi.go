// Package spimi implements the memory-bounded, single-pass in-memory
// indexing builder: documents stream in, term postings accumulate in an
// in-memory dictionary (a map, sorted only at flush time), and the
// dictionary spills to a sorted block file whenever the memory counter
// reaches the configured budget.
package spimi

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kev1N916/keSE/internal/codec"
)

// perTermPostingOverhead approximates the bytes a single (doc_id, tf)
// pair costs once slice growth and map bookkeeping are accounted for.
// It intentionally overestimates so the memory counter never meaningfully
// undercounts the budget.
const perTermPostingOverhead = 12

// Config parameterizes a Builder.
type Config struct {
	MemoryBudgetBytes int64
	BlockSizePostings int
	Codec             codec.Codec
	BlockDir          string

	// StartDocID offsets the doc ids this Builder assigns, so that
	// multiple Builders sharding a document stream (see ParallelBuild)
	// can each own a disjoint, globally-unique doc-id range.
	StartDocID uint32
}

// postingBuf accumulates (doc_id, tf) pairs for one term, in the order
// add_document calls arrive — strictly increasing doc ids by the
// builder's own invariant.
type postingBuf struct {
	docIDs []uint32
	tfs    []uint32
}

// Builder is a bounded-memory SPIMI accumulator. It owns its dictionary
// exclusively; its exported methods serialize on an internal mutex, and
// ParallelBuild gives each worker its own Builder rather than sharing
// one.
type Builder struct {
	mu sync.Mutex

	cfg     Config
	dict    map[string]*postingBuf
	memUsed int64

	docLengths []uint32
	docNames   []string

	blockFiles []string
	nextBlock  int

	log *slog.Logger
}

// NewBuilder creates a Builder with the given configuration.
func NewBuilder(cfg Config, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		cfg:  cfg,
		dict: make(map[string]*postingBuf),
		log:  log,
	}
}

// AddDocument indexes one document's token stream under the next
// sequential doc id. Within a document, each term is recorded exactly
// once with its accumulated term frequency.
func (b *Builder) AddDocument(name string, tokens []string) (docID uint32, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docID = b.cfg.StartDocID + uint32(len(b.docLengths))
	tf := make(map[string]uint32, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}

	for term, count := range tf {
		buf, ok := b.dict[term]
		if !ok {
			buf = &postingBuf{}
			b.dict[term] = buf
			b.memUsed += int64(len(term))
		}
		buf.docIDs = append(buf.docIDs, docID)
		buf.tfs = append(buf.tfs, count)
		b.memUsed += perTermPostingOverhead
	}

	b.docLengths = append(b.docLengths, uint32(len(tokens)))
	b.docNames = append(b.docNames, name)

	if b.memUsed >= b.cfg.MemoryBudgetBytes {
		if err := b.flush(); err != nil {
			return docID, err
		}
	}
	return docID, nil
}

// flush writes the current dictionary to a new sorted block file and
// resets in-memory state. Must be called with mu held.
func (b *Builder) flush() error {
	if len(b.dict) == 0 {
		return nil
	}
	terms := make([]string, 0, len(b.dict))
	for term := range b.dict {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	if err := os.MkdirAll(b.cfg.BlockDir, 0o755); err != nil {
		return fmt.Errorf("spimi: create block dir: %w", err)
	}
	path := filepath.Join(b.cfg.BlockDir, fmt.Sprintf("spimi_block_%d.tmp", b.nextBlock))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spimi: create block file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, term := range terms {
		buf := b.dict[term]
		if err := writeBlockRecord(w, b.cfg.Codec, term, buf); err != nil {
			return fmt.Errorf("spimi: write block record for %q: %w", term, err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	b.log.Info("spimi: flushed block", "path", path, "terms", len(terms), "mem_used", b.memUsed)

	b.blockFiles = append(b.blockFiles, path)
	b.nextBlock++
	b.dict = make(map[string]*postingBuf)
	b.memUsed = 0
	return nil
}

// writeBlockRecord writes one term's record: term_bytes_len (u16) |
// term_bytes | posting_count (u32) | compressed_docs_len (u32) |
// compressed_tfs_len (u32) | compressed_docs | compressed_tfs.
func writeBlockRecord(w io.Writer, c codec.Codec, term string, buf *postingBuf) error {
	gaps := make([]uint32, len(buf.docIDs))
	var prev int64 = -1
	for i, d := range buf.docIDs {
		gaps[i] = uint32(int64(d) - prev - 1)
		prev = int64(d)
	}
	docBytes := c.Encode(gaps)
	tfBytes := c.Encode(buf.tfs)

	header := make([]byte, 0, 2+len(term)+4+4+4)
	var lenBuf [4]byte

	binary.LittleEndian.PutUint16(lenBuf[:2], uint16(len(term)))
	header = append(header, lenBuf[:2]...)
	header = append(header, term...)

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(buf.docIDs)))
	header = append(header, lenBuf[:]...)
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(docBytes)))
	header = append(header, lenBuf[:]...)
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(tfBytes)))
	header = append(header, lenBuf[:]...)

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(docBytes); err != nil {
		return err
	}
	if _, err := w.Write(tfBytes); err != nil {
		return err
	}
	return nil
}

// DocMeta summarizes what Finish hands to the merger about the
// document collection.
type DocMeta struct {
	NumDocs    int
	DocLengths []uint32
	DocNames   []string
	AvgDL      float64
}

// Result is the handle Finish returns: the block files ready for
// merging, plus collection-wide document metadata.
type Result struct {
	BlockFiles []string
	Meta       DocMeta
}

// Finish flushes any residual in-memory state and returns the resulting
// block files plus document metadata. The Builder must not be reused
// afterward.
func (b *Builder) Finish() (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.flush(); err != nil {
		return Result{}, err
	}

	var total int64
	for _, l := range b.docLengths {
		total += int64(l)
	}
	avgdl := 0.0
	if len(b.docLengths) > 0 {
		avgdl = float64(total) / float64(len(b.docLengths))
	}

	return Result{
		BlockFiles: b.blockFiles,
		Meta: DocMeta{
			NumDocs:    len(b.docLengths),
			DocLengths: append([]uint32(nil), b.docLengths...),
			DocNames:   append([]string(nil), b.docNames...),
			AvgDL:      avgdl,
		},
	}, nil
}

// MemUsed reports the current (approximate) resident bytes, for tests
// and SPIMI-budget instrumentation.
func (b *Builder) MemUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.memUsed
}
