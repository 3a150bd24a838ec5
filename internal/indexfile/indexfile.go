// Package indexfile defines the on-disk index layout and the
// encode/decode helpers for manifest.json, term_dict.bin
// (+ term_strings.bin) and doc_meta.bin (+ doc_names.bin). The
// skip_tables.bin records are encoded by package postings.
package indexfile

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FormatVersion is written to every manifest this package produces.
// ReadManifest returns the stored version as-is and does not compare it
// with FormatVersion.
const FormatVersion = 1

// File names within an index directory.
const (
	ManifestFile    = "manifest.json"
	PostingsFile    = "inverted_index.idx"
	TermDictFile    = "term_dict.bin"
	TermStringsFile = "term_strings.bin"
	SkipTablesFile  = "skip_tables.bin"
	DocMetaFile     = "doc_meta.bin"
	DocNamesFile    = "doc_names.bin"
)

// Manifest is the top-level index descriptor.
type Manifest struct {
	Version   int     `json:"version"`
	Codec     string  `json:"codec"`
	BlockSize int     `json:"block_size"`
	NumDocs   uint64  `json:"num_docs"`
	NumTerms  uint64  `json:"num_terms"`
	AvgDL     float64 `json:"avgdl"`
}

// WriteManifest writes m as indented JSON to dir/manifest.json.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// ReadManifest loads dir/manifest.json.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("indexfile: decode manifest: %w", err)
	}
	return m, nil
}

// TermDictEntry is one fixed-stride term_dict.bin record: the term's
// bytes live at term_strings.bin[TermOffset:TermOffset+TermLen].
type TermDictEntry struct {
	TermOffset      uint64
	TermLen         uint32
	DF              uint32
	SkipTableOffset uint64
	BlockCount      uint32
}

const termDictRecordSize = 8 + 4 + 4 + 8 + 4

// EncodeTermDict serializes term dictionary entries, which callers must
// supply already sorted lexicographically by term.
func EncodeTermDict(entries []TermDictEntry) []byte {
	out := make([]byte, len(entries)*termDictRecordSize)
	for i, e := range entries {
		rec := out[i*termDictRecordSize : (i+1)*termDictRecordSize]
		binary.LittleEndian.PutUint64(rec[0:8], e.TermOffset)
		binary.LittleEndian.PutUint32(rec[8:12], e.TermLen)
		binary.LittleEndian.PutUint32(rec[12:16], e.DF)
		binary.LittleEndian.PutUint64(rec[16:24], e.SkipTableOffset)
		binary.LittleEndian.PutUint32(rec[24:28], e.BlockCount)
	}
	return out
}

// DecodeTermDict is the inverse of EncodeTermDict.
func DecodeTermDict(data []byte) ([]TermDictEntry, error) {
	if len(data)%termDictRecordSize != 0 {
		return nil, fmt.Errorf("indexfile: term dict length %d not a multiple of record size", len(data))
	}
	n := len(data) / termDictRecordSize
	out := make([]TermDictEntry, n)
	for i := range out {
		rec := data[i*termDictRecordSize : (i+1)*termDictRecordSize]
		out[i] = TermDictEntry{
			TermOffset:      binary.LittleEndian.Uint64(rec[0:8]),
			TermLen:         binary.LittleEndian.Uint32(rec[8:12]),
			DF:              binary.LittleEndian.Uint32(rec[12:16]),
			SkipTableOffset: binary.LittleEndian.Uint64(rec[16:24]),
			BlockCount:      binary.LittleEndian.Uint32(rec[24:28]),
		}
	}
	return out, nil
}

// LookupTerm binary-searches entries (sorted by the bytes each entry
// points to in strings) for term, returning its index and whether it
// was found.
func LookupTerm(entries []TermDictEntry, strings []byte, term string) (int, bool) {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		e := entries[mid]
		candidate := string(strings[e.TermOffset : e.TermOffset+uint64(e.TermLen)])
		switch {
		case candidate == term:
			return mid, true
		case candidate < term:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return lo, false
}

// DocMetaEntry is one fixed-stride doc_meta.bin record.
type DocMetaEntry struct {
	Length     uint32
	NameOffset uint64
	NameLen    uint32
}

const docMetaRecordSize = 4 + 8 + 4

// EncodeDocMeta serializes document metadata records.
func EncodeDocMeta(entries []DocMetaEntry) []byte {
	out := make([]byte, len(entries)*docMetaRecordSize)
	for i, e := range entries {
		rec := out[i*docMetaRecordSize : (i+1)*docMetaRecordSize]
		binary.LittleEndian.PutUint32(rec[0:4], e.Length)
		binary.LittleEndian.PutUint64(rec[4:12], e.NameOffset)
		binary.LittleEndian.PutUint32(rec[12:16], e.NameLen)
	}
	return out
}

// DecodeDocMeta is the inverse of EncodeDocMeta.
func DecodeDocMeta(data []byte) ([]DocMetaEntry, error) {
	if len(data)%docMetaRecordSize != 0 {
		return nil, fmt.Errorf("indexfile: doc meta length %d not a multiple of record size", len(data))
	}
	n := len(data) / docMetaRecordSize
	out := make([]DocMetaEntry, n)
	for i := range out {
		rec := data[i*docMetaRecordSize : (i+1)*docMetaRecordSize]
		out[i] = DocMetaEntry{
			Length:     binary.LittleEndian.Uint32(rec[0:4]),
			NameOffset: binary.LittleEndian.Uint64(rec[4:12]),
			NameLen:    binary.LittleEndian.Uint32(rec[12:16]),
		}
	}
	return out, nil
}

// BuildDocMeta packs per-document lengths and names into the doc_meta /
// doc_names byte layout.
func BuildDocMeta(lengths []uint32, names []string) (meta []byte, nameHeap []byte) {
	var heap bytes.Buffer
	entries := make([]DocMetaEntry, len(lengths))
	for i, l := range lengths {
		var name string
		if i < len(names) {
			name = names[i]
		}
		entries[i] = DocMetaEntry{
			Length:     l,
			NameOffset: uint64(heap.Len()),
			NameLen:    uint32(len(name)),
		}
		heap.WriteString(name)
	}
	return EncodeDocMeta(entries), heap.Bytes()
}

// Paths resolves the on-disk file paths for an index rooted at dir.
type Paths struct {
	Manifest    string
	Postings    string
	TermDict    string
	TermStrings string
	SkipTables  string
	DocMeta     string
	DocNames    string
}

// ResolvePaths returns the standard file layout under dir.
func ResolvePaths(dir string) Paths {
	return Paths{
		Manifest:    filepath.Join(dir, ManifestFile),
		Postings:    filepath.Join(dir, PostingsFile),
		TermDict:    filepath.Join(dir, TermDictFile),
		TermStrings: filepath.Join(dir, TermStringsFile),
		SkipTables:  filepath.Join(dir, SkipTablesFile),
		DocMeta:     filepath.Join(dir, DocMetaFile),
		DocNames:    filepath.Join(dir, DocNamesFile),
	}
}
