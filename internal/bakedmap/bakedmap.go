// Package bakedmap implements an immutable, sorted key-value map used for
// the trie's child lookup table once a node is done training. Training uses
// a regular Go map for cheap random-key insertion; optimize() "bakes" it
// into one of these, trading insertion speed for a compact, sorted,
// binary-searchable footprint that many nodes can afford to keep around at
// once. See KNLangModel.hpp's BakedMap<K,V> for the structure this mirrors.
package bakedmap

import (
	"cmp"
	"sort"
)

// Map is an immutable, ascending-sorted key/value association with O(log n)
// lookup. The zero value is an empty map. A lookup for a key that is not
// present returns the zero value of V; callers encode "absent" using a
// sentinel they know can't be a real value (e.g. relative offset 0, which
// no node uses to reference itself).
type Map[K cmp.Ordered, V any] struct {
	keys   []K
	values []V
}

// Build constructs a Map from src, sorted ascending by key. src is not
// mutated. Build is the only way to produce a non-empty Map: there is no
// mutation API afterward.
func Build[K cmp.Ordered, V any](src map[K]V) Map[K, V] {
	keys := make([]K, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	values := make([]V, len(keys))
	for i, k := range keys {
		values[i] = src[k]
	}
	return Map[K, V]{keys: keys, values: values}
}

// BuildSorted constructs a Map from parallel key/value slices that the
// caller guarantees are already sorted ascending by key. It does not
// re-sort or validate the ordering; callers who assembled the pairs
// themselves (e.g. a deserializer reading keys in file order) already paid
// that cost once.
func BuildSorted[K cmp.Ordered, V any](keys []K, values []V) Map[K, V] {
	return Map[K, V]{keys: keys, values: values}
}

// Lookup returns the value for key and whether it was present.
func (m Map[K, V]) Lookup(key K) (V, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
	if i < len(m.keys) && m.keys[i] == key {
		return m.values[i], true
	}
	var zero V
	return zero, false
}

// Len returns the number of entries.
func (m Map[K, V]) Len() int { return len(m.keys) }

// At returns the key/value pair at ascending index i.
func (m Map[K, V]) At(i int) (K, V) { return m.keys[i], m.values[i] }

// All calls fn for every entry in ascending key order, stopping early if fn
// returns false.
func (m Map[K, V]) All(fn func(k K, v V) bool) {
	for i := range m.keys {
		if !fn(m.keys[i], m.values[i]) {
			return
		}
	}
}
