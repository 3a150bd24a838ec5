package spimi

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Document is one producer-yielded item: an optional external name and
// its normalized token stream.
type Document struct {
	Name   string
	Tokens []string
}

// ParallelResult mirrors Result but preserves per-shard document
// metadata in original doc-id order, and the combined block file list
// the merger should consume.
type ParallelResult struct {
	BlockFiles []string
	Meta       DocMeta
}

// ParallelBuild partitions docs across numWorkers independent Builders,
// each owning its own dictionary exclusively — no shared mutable state
// across goroutines, matching the core invariant that the SPIMI
// dictionary is never shared. Doc ids are assigned by each shard in
// sequence order and then offset so the combined corpus keeps the
// producer's original ordering.
func ParallelBuild(ctx context.Context, docs []Document, cfg Config, numWorkers int, log *slog.Logger) (ParallelResult, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(docs) {
		numWorkers = len(docs)
	}
	if numWorkers == 0 {
		return ParallelResult{}, nil
	}
	if log == nil {
		log = slog.Default()
	}

	shardSize := (len(docs) + numWorkers - 1) / numWorkers
	results := make([]Result, numWorkers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		start := w * shardSize
		end := start + shardSize
		if start >= len(docs) {
			continue
		}
		if end > len(docs) {
			end = len(docs)
		}
		shard := docs[start:end]

		g.Go(func() error {
			shardCfg := cfg
			shardCfg.BlockDir = filepath.Join(cfg.BlockDir, fmt.Sprintf("shard_%d", w))
			shardCfg.StartDocID = uint32(start)
			b := NewBuilder(shardCfg, log.With("shard", w))
			for _, d := range shard {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				if _, err := b.AddDocument(d.Name, d.Tokens); err != nil {
					return fmt.Errorf("shard %d: %w", w, err)
				}
			}
			res, err := b.Finish()
			if err != nil {
				return fmt.Errorf("shard %d finish: %w", w, err)
			}
			results[w] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ParallelResult{}, err
	}

	var combined ParallelResult
	var total int64
	for _, res := range results {
		combined.BlockFiles = append(combined.BlockFiles, res.BlockFiles...)
		combined.Meta.DocLengths = append(combined.Meta.DocLengths, res.Meta.DocLengths...)
		combined.Meta.DocNames = append(combined.Meta.DocNames, res.Meta.DocNames...)
		for _, l := range res.Meta.DocLengths {
			total += int64(l)
		}
	}
	combined.Meta.NumDocs = len(combined.Meta.DocLengths)
	if combined.Meta.NumDocs > 0 {
		combined.Meta.AvgDL = float64(total) / float64(combined.Meta.NumDocs)
	}
	return combined, nil
}
