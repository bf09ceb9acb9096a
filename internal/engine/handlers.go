package engine

import (
	"fmt"

	"github.com/eternalApril/statedb/internal/command"
	"github.com/eternalApril/statedb/internal/resp"
	"github.com/eternalApril/statedb/internal/store"
)

type handlerFunc func(d *store.Dataspace, cmd *command.Command) resp.Value

// handlers is the Executor's dispatch table. Command names classified by
// the command package but absent here (EXPIRE, TTL, KEYS, the ZSet
// family, ...) fall through to Engine.Dispatch's "unknown command" reply
// — see DESIGN.md for why they are parseable but not executed.
var handlers = map[string]handlerFunc{
	"SET":      handleSet,
	"GET":      handleGet,
	"GETDEL":   handleGetDel,
	"INCR":     handleIncr,
	"DECR":     handleDecr,
	"INCRBY":   handleIncrBy,
	"DECRBY":   handleDecrBy,
	"DEL":      handleDel,
	"EXISTS":   handleExists,
	"FLUSHDB":  handleFlushDB,
	"TYPE":     handleType,
	"HSET":     handleHSet,
	"HGET":     handleHGet,
	"HGETALL":  handleHGetAll,
}

func errWrongType() resp.Value {
	return resp.MakeError("WRONGTYPE Operation against a key holding the wrong kind of value")
}

func errNotInteger() resp.Value {
	return resp.MakeError("ERR value is not an integer or out of range")
}

func handleSet(d *store.Dataspace, cmd *command.Command) resp.Value {
	key, value := string(cmd.Args[0]), cmd.Args[1]
	d.PutString(key, value)
	return resp.MakeSimpleString("OK")
}

func handleGet(d *store.Dataspace, cmd *command.Command) resp.Value {
	key := string(cmd.Args[0])
	v := d.Get(key)
	if v == nil {
		return resp.MakeNilBulkString()
	}
	switch v.Kind {
	case store.KindString:
		return resp.MakeBulkString(cloneBytes(v.Str))
	case store.KindInteger:
		return resp.MakeInteger(v.Int)
	default:
		return errWrongType()
	}
}

func handleGetDel(d *store.Dataspace, cmd *command.Command) resp.Value {
	key := string(cmd.Args[0])
	v := d.Get(key)
	if v == nil {
		return resp.MakeNilBulkString()
	}
	switch v.Kind {
	case store.KindString:
		reply := resp.MakeBulkString(cloneBytes(v.Str))
		d.Remove(key)
		return reply
	case store.KindInteger:
		reply := resp.MakeInteger(v.Int)
		d.Remove(key)
		return reply
	default:
		return errWrongType()
	}
}

func handleIncr(d *store.Dataspace, cmd *command.Command) resp.Value {
	return doIncrement(d, string(cmd.Args[0]), 1)
}

func handleDecr(d *store.Dataspace, cmd *command.Command) resp.Value {
	return doIncrement(d, string(cmd.Args[0]), -1)
}

func handleIncrBy(d *store.Dataspace, cmd *command.Command) resp.Value {
	return doIncrement(d, string(cmd.Args[0]), cmd.Int)
}

func handleDecrBy(d *store.Dataspace, cmd *command.Command) resp.Value {
	return doIncrement(d, string(cmd.Args[0]), -cmd.Int)
}

func doIncrement(d *store.Dataspace, key string, delta int64) resp.Value {
	n, kind, ok := d.Increment(key, delta)
	if !ok {
		switch kind {
		case store.WrongType:
			return errWrongType()
		default:
			return errNotInteger()
		}
	}
	return resp.MakeInteger(n)
}

func handleDel(d *store.Dataspace, cmd *command.Command) resp.Value {
	var count int64
	for _, k := range cmd.Args {
		if d.Remove(string(k)) != nil {
			count++
		}
	}
	return resp.MakeInteger(count)
}

func handleExists(d *store.Dataspace, cmd *command.Command) resp.Value {
	var count int64
	for _, k := range cmd.Args {
		if d.Get(string(k)) != nil {
			count++
		}
	}
	return resp.MakeInteger(count)
}

func handleFlushDB(d *store.Dataspace, cmd *command.Command) resp.Value {
	d.Flush()
	return resp.MakeSimpleString("OK")
}

func handleType(d *store.Dataspace, cmd *command.Command) resp.Value {
	kind, ok := d.TypeOf(string(cmd.Args[0]))
	if !ok {
		return resp.MakeSimpleString("none")
	}
	return resp.MakeSimpleString(kind.String())
}

func handleHSet(d *store.Dataspace, cmd *command.Command) resp.Value {
	key := string(cmd.Args[0])
	hash, kind, ok := d.GetOrCreateHash(key)
	if !ok {
		if kind == store.WrongType {
			return errWrongType()
		}
		return resp.MakeError(fmt.Sprintf("ERR unexpected failure setting hash '%s'", key))
	}

	var newFields int64
	for _, pair := range cmd.Pairs {
		field, value := string(pair[0]), pair[1]
		if _, exists := hash[field]; !exists {
			newFields++
		}
		hash[field] = cloneBytes(value)
	}
	return resp.MakeInteger(newFields)
}

func handleHGet(d *store.Dataspace, cmd *command.Command) resp.Value {
	key, field := string(cmd.Args[0]), string(cmd.Args[1])
	v := d.Get(key)
	if v == nil {
		return resp.MakeNilBulkString()
	}
	if v.Kind != store.KindHash {
		return errWrongType()
	}
	value, ok := v.Hash[field]
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(cloneBytes(value))
}

func handleHGetAll(d *store.Dataspace, cmd *command.Command) resp.Value {
	key := string(cmd.Args[0])
	v := d.Get(key)
	if v == nil {
		return resp.MakeArray(nil)
	}
	if v.Kind != store.KindHash {
		return errWrongType()
	}

	elements := make([]resp.Value, 0, len(v.Hash)*2)
	for field, value := range v.Hash {
		elements = append(elements, resp.MakeBulkStringFromString(field))
		elements = append(elements, resp.MakeBulkString(cloneBytes(value)))
	}
	return resp.MakeArray(elements)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
