// Package store implements the Dataspace: the keyspace mapping keys to
// tagged values, plus the expiration metadata map. Dataspace is not
// self-synchronizing — the Engine's single mutex is the only thing
// serializing access to it, per the concurrency model in spec.md §5.
package store

// Kind tags a Value with its type. The tag is stable across reads; only a
// write under the Engine's lock may rewrite it.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindHash
	KindSortedSet
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindHash:
		return "hash"
	case KindSortedSet:
		return "zset"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Value is the tagged union stored in the keyspace. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Str  []byte
	Int  int64
	Hash map[string][]byte
	ZSet map[string]float64
	List [][]byte
}

func newStringValue(b []byte) *Value {
	return &Value{Kind: KindString, Str: b}
}

func newIntegerValue(n int64) *Value {
	return &Value{Kind: KindInteger, Int: n}
}

// dropValue clears a Value's payload fields. It runs when a value is
// overwritten (Dataspace.replace) and when Increment rewrites a String
// as an Integer; Dataspace.Remove and Dataspace.Flush discard entries
// without calling it and leave the reclaiming to Go's GC.
func dropValue(v *Value) {
	if v == nil {
		return
	}
	v.Str = nil
	v.Hash = nil
	v.ZSet = nil
	v.List = nil
}
