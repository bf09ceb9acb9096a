// Package resp implements the RESP2 wire protocol used by StateDB: a
// request decoder that also accepts inline-text commands as a fallback,
// and a reply encoder for the five RESP2 atom kinds.
package resp

// Type tags a Value with one of the five RESP2 atom kinds.
const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

// Value is a RESP2 atom. Only the fields relevant to Type carry meaning;
// the rest are left zero.
type Value struct {
	Type   byte
	Str    []byte  // SimpleString, Error, BulkString payload
	Int    int64   // Integer
	Array  []Value // Array elements
	IsNull bool    // nil BulkString ($-1) or nil Array (*-1)
}

// MakeSimpleString constructs a SimpleString Value.
func MakeSimpleString(s string) Value {
	return Value{Type: TypeSimpleString, Str: []byte(s)}
}

// MakeError constructs an Error Value.
func MakeError(s string) Value {
	return Value{Type: TypeError, Str: []byte(s)}
}

// MakeBulkString constructs a BulkString Value from owned bytes.
func MakeBulkString(b []byte) Value {
	return Value{Type: TypeBulkString, Str: b}
}

// MakeBulkStringFromString constructs a BulkString Value from a string,
// copying its bytes so the Value never aliases the caller's string data.
func MakeBulkStringFromString(s string) Value {
	return Value{Type: TypeBulkString, Str: []byte(s)}
}

// MakeNilBulkString constructs a null BulkString ($-1).
func MakeNilBulkString() Value {
	return Value{Type: TypeBulkString, IsNull: true}
}

// MakeInteger constructs an Integer Value.
func MakeInteger(n int64) Value {
	return Value{Type: TypeInteger, Int: n}
}

// MakeArray constructs an Array Value from the given elements.
func MakeArray(values []Value) Value {
	return Value{Type: TypeArray, Array: values}
}
