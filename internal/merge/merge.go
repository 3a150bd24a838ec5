// Package merge performs the external k-way merge of SPIMI block files
// into the final inverted index: concatenated postings, a term
// dictionary, per-term skip tables, and document metadata.
package merge

import (
	"container/heap"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/kev1N916/keSE/internal/codec"
	"github.com/kev1N916/keSE/internal/indexfile"
	"github.com/kev1N916/keSE/internal/postings"
	"github.com/kev1N916/keSE/internal/scorer"
	"github.com/kev1N916/keSE/internal/spimi"
)

// fileState tracks one block file's current (already-read) record.
type fileState struct {
	reader  *spimi.BlockFileReader
	current *spimi.BlockRecord
}

// termHeap is a min-heap over open file indices, ordered by each file's
// current term and, for ties, by file index — the tie-break that keeps
// concatenation in the order blocks were produced (and thus in doc-id
// order, per the SPIMI monotonicity invariant).
type termHeap struct {
	files []*fileState
	idxs  []int
}

func (h *termHeap) Len() int { return len(h.idxs) }
func (h *termHeap) Less(i, j int) bool {
	a, b := h.files[h.idxs[i]].current, h.files[h.idxs[j]].current
	if a.Term != b.Term {
		return a.Term < b.Term
	}
	return h.idxs[i] < h.idxs[j]
}
func (h *termHeap) Swap(i, j int) { h.idxs[i], h.idxs[j] = h.idxs[j], h.idxs[i] }
func (h *termHeap) Push(x any)    { h.idxs = append(h.idxs, x.(int)) }
func (h *termHeap) Pop() any {
	n := len(h.idxs)
	v := h.idxs[n-1]
	h.idxs = h.idxs[:n-1]
	return v
}

// Options parameterizes a merge run.
type Options struct {
	Codec     codec.Codec
	BlockSize int
	Params    scorer.Params
}

// Merge consumes blockFiles (as produced by spimi.Builder/ParallelBuild)
// and writes the final index files under dir.
func Merge(blockFiles []string, meta spimi.DocMeta, opts Options, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("merge: create index dir: %w", err)
	}
	paths := indexfile.ResolvePaths(dir)

	postingsFile, err := os.Create(paths.Postings)
	if err != nil {
		return fmt.Errorf("merge: create postings file: %w", err)
	}
	defer postingsFile.Close()

	files := make([]*fileState, len(blockFiles))
	h := &termHeap{files: files}
	for i, path := range blockFiles {
		r, err := spimi.OpenBlockFile(path, opts.Codec)
		if err != nil {
			return fmt.Errorf("merge: open block file %s: %w", path, err)
		}
		defer r.Close()
		rec, err := r.Next()
		if err == io.EOF {
			files[i] = &fileState{reader: r}
			continue
		}
		if err != nil {
			return fmt.Errorf("merge: read first record of %s: %w", path, err)
		}
		files[i] = &fileState{reader: r, current: rec}
		h.idxs = append(h.idxs, i)
	}
	heap.Init(h)

	pw := postings.NewWriter(postingsFile, opts.Codec, opts.BlockSize)
	var termDict []indexfile.TermDictEntry
	var termStrings []byte
	var skipTableBytes []byte

	for h.Len() > 0 {
		term := files[h.idxs[0]].current.Term

		var group []int
		for h.Len() > 0 && files[h.idxs[0]].current.Term == term {
			group = append(group, heap.Pop(h).(int))
		}
		sort.Ints(group)

		var docIDs, tfs []uint32
		for _, idx := range group {
			fs := files[idx]
			docIDs = append(docIDs, fs.current.DocIDs...)
			tfs = append(tfs, fs.current.TFs...)

			next, err := fs.reader.Next()
			if err == io.EOF {
				fs.current = nil
			} else if err != nil {
				return fmt.Errorf("merge: read next record: %w", err)
			} else {
				fs.current = next
				heap.Push(h, idx)
			}
		}

		docLens := make([]uint32, len(docIDs))
		for i, d := range docIDs {
			if int(d) >= len(meta.DocLengths) {
				return fmt.Errorf("merge: term %q references doc id %d outside [0,%d)", term, d, len(meta.DocLengths))
			}
			docLens[i] = meta.DocLengths[d]
		}

		idf := scorer.IDF(int64(meta.NumDocs), int64(len(docIDs)))
		descs, err := pw.WriteTerm(docIDs, tfs, docLens, idf, meta.AvgDL, opts.Params)
		if err != nil {
			return fmt.Errorf("merge: write term %q: %w", term, err)
		}

		skipTableOffset := uint64(len(skipTableBytes))
		skipTableBytes = append(skipTableBytes, postings.EncodeSkipTable(descs)...)

		termDict = append(termDict, indexfile.TermDictEntry{
			TermOffset:      uint64(len(termStrings)),
			TermLen:         uint32(len(term)),
			DF:              uint32(len(docIDs)),
			SkipTableOffset: skipTableOffset,
			BlockCount:      uint32(len(descs)),
		})
		termStrings = append(termStrings, term...)
	}

	if err := os.WriteFile(paths.TermDict, indexfile.EncodeTermDict(termDict), 0o644); err != nil {
		return fmt.Errorf("merge: write term dict: %w", err)
	}
	if err := os.WriteFile(paths.TermStrings, termStrings, 0o644); err != nil {
		return fmt.Errorf("merge: write term strings: %w", err)
	}
	if err := os.WriteFile(paths.SkipTables, skipTableBytes, 0o644); err != nil {
		return fmt.Errorf("merge: write skip tables: %w", err)
	}

	docMetaBytes, docNameBytes := indexfile.BuildDocMeta(meta.DocLengths, meta.DocNames)
	if err := os.WriteFile(paths.DocMeta, docMetaBytes, 0o644); err != nil {
		return fmt.Errorf("merge: write doc meta: %w", err)
	}
	if err := os.WriteFile(paths.DocNames, docNameBytes, 0o644); err != nil {
		return fmt.Errorf("merge: write doc names: %w", err)
	}

	return indexfile.WriteManifest(dir, indexfile.Manifest{
		Version:   indexfile.FormatVersion,
		Codec:     opts.Codec.ID(),
		BlockSize: opts.BlockSize,
		NumDocs:   uint64(meta.NumDocs),
		NumTerms:  uint64(len(termDict)),
		AvgDL:     meta.AvgDL,
	})
}
