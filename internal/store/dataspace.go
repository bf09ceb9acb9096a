package store

import (
	"strconv"
	"time"
)

// ErrorKind enumerates the ways a Dataspace accessor can fail against a
// key holding the wrong kind of value or an unparsable integer.
type ErrorKind int

const (
	// WrongType: the key holds a Kind incompatible with the requested
	// operation.
	WrongType ErrorKind = iota
	// NotAnInteger: the String payload doesn't parse as a base-10 int64,
	// or the arithmetic would overflow the signed 64-bit range.
	NotAnInteger
)

// Dataspace owns the keyspace and its expiration metadata. It is not
// self-synchronizing; every method assumes the caller already holds
// whatever lock protects concurrent access (the Engine's single mutex, in
// this server).
type Dataspace struct {
	data    map[string]*Value
	expires map[string]time.Time
}

// New creates an empty Dataspace.
func New() *Dataspace {
	return &Dataspace{
		data:    make(map[string]*Value),
		expires: make(map[string]time.Time),
	}
}

// Get returns the Value stored at key, or nil if absent. The returned
// pointer aliases Dataspace-owned memory; callers must not retain it past
// the lock they're holding.
func (d *Dataspace) Get(key string) *Value {
	return d.data[key]
}

// PutString replaces any prior value at key with a String value, owning
// a copy of b's bytes so the Dataspace never aliases the caller's buffer.
func (d *Dataspace) PutString(key string, b []byte) {
	owned := make([]byte, len(b))
	copy(owned, b)
	d.replace(key, newStringValue(owned))
}

// Remove deletes key (and its expiration entry) if present, returning the
// removed Value or nil.
func (d *Dataspace) Remove(key string) *Value {
	old, ok := d.data[key]
	if !ok {
		return nil
	}
	delete(d.data, key)
	delete(d.expires, key)
	return old
}

// GetOrCreateHash returns the Hash at key, creating an empty one if
// absent. It errors with WrongType if key holds a non-Hash value.
func (d *Dataspace) GetOrCreateHash(key string) (map[string][]byte, ErrorKind, bool) {
	v, ok := d.data[key]
	if !ok {
		v = &Value{Kind: KindHash, Hash: make(map[string][]byte)}
		d.data[key] = v
		return v.Hash, 0, true
	}
	if v.Kind != KindHash {
		return nil, WrongType, false
	}
	return v.Hash, 0, true
}

// Increment performs an atomic read-modify-write on key's Integer value:
// absent key stores delta, an Integer adds delta with overflow checking,
// a String that parses as base-10 attempts the same add and rewrites the
// tag to Integer, and any other Kind (or unparsable String) is an error
// leaving the value unchanged.
func (d *Dataspace) Increment(key string, delta int64) (int64, ErrorKind, bool) {
	v, ok := d.data[key]
	if !ok {
		d.data[key] = newIntegerValue(delta)
		return delta, 0, true
	}

	switch v.Kind {
	case KindInteger:
		sum, overflowed := addOverflowChecked(v.Int, delta)
		if overflowed {
			return 0, NotAnInteger, false
		}
		v.Int = sum
		return sum, 0, true
	case KindString:
		n, err := strconv.ParseInt(string(v.Str), 10, 64)
		if err != nil {
			return 0, NotAnInteger, false
		}
		sum, overflowed := addOverflowChecked(n, delta)
		if overflowed {
			return 0, NotAnInteger, false
		}
		dropValue(v)
		v.Kind = KindInteger
		v.Int = sum
		return sum, 0, true
	default:
		return 0, WrongType, false
	}
}

// TypeOf reports the Kind stored at key, or false if key is absent.
func (d *Dataspace) TypeOf(key string) (Kind, bool) {
	v, ok := d.data[key]
	if !ok {
		return 0, false
	}
	return v.Kind, true
}

// Flush drops every key, value, and expiration entry.
func (d *Dataspace) Flush() {
	d.data = make(map[string]*Value)
	d.expires = make(map[string]time.Time)
}

// ExpireAt records an absolute expiration timestamp for key. It does not
// enforce expiration — active eviction is out of scope (spec.md §1
// Non-goals) — it only satisfies the data-model invariant that the
// expiration map is writable independently of the keyspace mutation
// paths that clear it.
func (d *Dataspace) ExpireAt(key string, at time.Time) bool {
	if _, ok := d.data[key]; !ok {
		return false
	}
	d.expires[key] = at
	return true
}

// TTL returns the remaining duration until key's recorded expiration, and
// whether key both exists and carries an expiration entry.
func (d *Dataspace) TTL(key string) (time.Duration, bool) {
	if _, ok := d.data[key]; !ok {
		return 0, false
	}
	at, ok := d.expires[key]
	if !ok {
		return 0, false
	}
	return time.Until(at), true
}

// replace discards any existing value at key (running it through
// dropValue) and installs v in its place, clearing any expiration entry —
// every fresh SET-style write starts the key's lifetime over.
func (d *Dataspace) replace(key string, v *Value) {
	if old, ok := d.data[key]; ok {
		dropValue(old)
	}
	delete(d.expires, key)
	d.data[key] = v
}

func addOverflowChecked(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}
