package indexfile

import (
	"sort"
	"testing"
)

func TestTermDictRoundTripAndLookup(t *testing.T) {
	terms := []string{"apple", "banana", "cherry", "date"}
	sort.Strings(terms)

	var strings []byte
	var entries []TermDictEntry
	for i, term := range terms {
		entries = append(entries, TermDictEntry{
			TermOffset:      uint64(len(strings)),
			TermLen:         uint32(len(term)),
			DF:              uint32(i + 1),
			SkipTableOffset: uint64(i * 10),
			BlockCount:      1,
		})
		strings = append(strings, term...)
	}

	enc := EncodeTermDict(entries)
	decoded, err := DecodeTermDict(enc)
	if err != nil {
		t.Fatalf("DecodeTermDict: %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("length mismatch: want %d got %d", len(entries), len(decoded))
	}

	for _, term := range terms {
		idx, found := LookupTerm(decoded, strings, term)
		if !found {
			t.Fatalf("expected to find term %q", term)
		}
		got := string(strings[decoded[idx].TermOffset : decoded[idx].TermOffset+uint64(decoded[idx].TermLen)])
		if got != term {
			t.Fatalf("lookup(%q) resolved to %q", term, got)
		}
	}

	if _, found := LookupTerm(decoded, strings, "missing"); found {
		t.Fatal("expected missing term to be not found")
	}
}

func TestBuildDocMetaRoundTrip(t *testing.T) {
	lengths := []uint32{3, 5, 7}
	names := []string{"doc0", "doc1", "doc2"}
	meta, heap := BuildDocMeta(lengths, names)

	entries, err := DecodeDocMeta(meta)
	if err != nil {
		t.Fatalf("DecodeDocMeta: %v", err)
	}
	if len(entries) != len(lengths) {
		t.Fatalf("expected %d entries, got %d", len(lengths), len(entries))
	}
	for i, e := range entries {
		if e.Length != lengths[i] {
			t.Fatalf("doc %d: length mismatch want %d got %d", i, lengths[i], e.Length)
		}
		name := string(heap[e.NameOffset : e.NameOffset+uint64(e.NameLen)])
		if name != names[i] {
			t.Fatalf("doc %d: name mismatch want %q got %q", i, names[i], name)
		}
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{Version: FormatVersion, Codec: "varbyte", BlockSize: 128, NumDocs: 10, NumTerms: 4, AvgDL: 12.5}
	if err := WriteManifest(dir, m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	got, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got != m {
		t.Fatalf("manifest round trip mismatch: want %+v got %+v", m, got)
	}
}
