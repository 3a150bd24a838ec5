// Package codec implements the five interchangeable postings compression
// strategies keSE builds its on-disk index on top of: VarByte, Simple-9,
// Simple-16, PForDelta, and Rice.
//
// All five codecs operate on fixed-length runs of non-negative uint32
// values (d-gaps for doc ids, raw counts for term frequencies) and share
// a single interface so the block postings store and retrieval engine
// never need to know which one is in play.
package codec

import (
	"errors"
	"fmt"
)

// ErrCorrupt is returned when a codec encounters malformed bytes or would
// have to read past the end of the encoded slice to satisfy the requested
// length. It is fatal for whichever build or query triggered it.
var ErrCorrupt = errors.New("codec: corrupt or truncated block")

// Codec encodes and decodes runs of non-negative 32-bit integers.
type Codec interface {
	// ID is the short name stored in manifest.json ("varbyte", "simple9", ...).
	ID() string

	// Encode packs values (length <= block size) into a byte sequence.
	Encode(values []uint32) []byte

	// Decode unpacks exactly n values from data, allocating the result.
	Decode(data []byte, n int) ([]uint32, error)

	// DecodeInto unpacks len(out) values from data into out, avoiding
	// allocation on hot paths (cursor next_geq, block rescoring).
	DecodeInto(data []byte, out []uint32) error
}

// ForID resolves a manifest codec identifier to a concrete Codec.
func ForID(id string) (Codec, error) {
	switch id {
	case "varbyte":
		return VarByte{}, nil
	case "simple9":
		return Simple9{}, nil
	case "simple16":
		return Simple16{}, nil
	case "pfordelta":
		return PForDelta{}, nil
	case "rice":
		return Rice{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec id %q", id)
	}
}

// IDs lists every codec identifier, in the order they are tried by
// benchmarks and the CLI's compression_algo validator.
var IDs = []string{"varbyte", "simple9", "simple16", "pfordelta", "rice"}
