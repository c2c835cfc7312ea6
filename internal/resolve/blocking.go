// Package resolve links records from two sources that plausibly describe the
// same customer. Records are blocked by normalized postal code, every in-block
// pair is scored with a weighted field similarity, and pairs above the
// acceptance threshold are classified into confidence tiers.
package resolve

import (
	"sort"

	"github.com/payasparab/addressmatcher/internal/model"
)

// Block is the set of records from each source sharing one postal code.
type Block struct {
	Key string
	A   []model.Record
	B   []model.Record
}

// Pairs returns the number of cross-source pairs in the block.
func (b Block) Pairs() int64 {
	return int64(len(b.A)) * int64(len(b.B))
}

// Index partitions two record collections by blocking key.
type Index struct {
	a, b     map[string][]model.Record
	keys     []string
	unkeyedA int
	unkeyedB int
}

// NewIndex groups a and b by zip_cleaned in a single pass over each.
// Records with an empty key are counted but never placed in a block. Input
// order is preserved within each block.
func NewIndex(a, b []model.Record) *Index {
	ix := &Index{}
	ix.a, ix.unkeyedA = partition(a)
	ix.b, ix.unkeyedB = partition(b)

	for key := range ix.a {
		if _, ok := ix.b[key]; ok {
			ix.keys = append(ix.keys, key)
		}
	}
	sort.Strings(ix.keys)
	return ix
}

func partition(recs []model.Record) (map[string][]model.Record, int) {
	m := make(map[string][]model.Record)
	unkeyed := 0
	for _, r := range recs {
		key := r.BlockingKey()
		if key == "" {
			unkeyed++
			continue
		}
		m[key] = append(m[key], r)
	}
	return m, unkeyed
}

// Blocks returns every key present in both sources, sorted by key.
func (ix *Index) Blocks() []Block {
	out := make([]Block, len(ix.keys))
	for i, key := range ix.keys {
		out[i] = Block{Key: key, A: ix.a[key], B: ix.b[key]}
	}
	return out
}

// SharedKeys returns the number of keys present in both sources.
func (ix *Index) SharedKeys() int {
	return len(ix.keys)
}

// PairCount returns the total number of pairs across all shared blocks.
func (ix *Index) PairCount() int64 {
	var n int64
	for _, key := range ix.keys {
		n += int64(len(ix.a[key])) * int64(len(ix.b[key]))
	}
	return n
}

// Unkeyed returns how many records of each source had no blocking key.
func (ix *Index) Unkeyed() (a, b int) {
	return ix.unkeyedA, ix.unkeyedB
}
