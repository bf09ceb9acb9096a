package engine_test

import (
	"testing"

	"github.com/eternalApril/statedb/internal/command"
	"github.com/eternalApril/statedb/internal/engine"
	"github.com/eternalApril/statedb/internal/resp"
	"go.uber.org/zap"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(zap.NewNop())
}

func dispatch(t *testing.T, e *engine.Engine, name string, args ...string) resp.Value {
	t.Helper()
	byteArgs := make([][]byte, len(args))
	for i, a := range args {
		byteArgs[i] = []byte(a)
	}
	cmd, err := command.Parse(name, byteArgs)
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", name, err)
	}
	return e.Dispatch(cmd)
}

func TestSetGet(t *testing.T) {
	e := newEngine(t)

	got := dispatch(t, e, "SET", "foo", "bar")
	if string(got.Str) != "OK" {
		t.Fatalf("SET reply = %q, want OK", got.Str)
	}

	got = dispatch(t, e, "GET", "foo")
	if string(got.Str) != "bar" {
		t.Fatalf("GET reply = %q, want bar", got.Str)
	}
}

func TestGetMissingKey(t *testing.T) {
	e := newEngine(t)
	got := dispatch(t, e, "GET", "missing")
	if !got.IsNull {
		t.Errorf("expected null bulk reply, got %+v", got)
	}
}

func TestDelExists(t *testing.T) {
	e := newEngine(t)
	dispatch(t, e, "SET", "k", "v")

	got := dispatch(t, e, "DEL", "k")
	if got.Int != 1 {
		t.Fatalf("DEL count = %d, want 1", got.Int)
	}

	got = dispatch(t, e, "EXISTS", "k")
	if got.Int != 0 {
		t.Fatalf("EXISTS count = %d, want 0", got.Int)
	}
}

func TestIncrByThenGet(t *testing.T) {
	e := newEngine(t)
	dispatch(t, e, "SET", "n", "0")

	got := dispatch(t, e, "INCRBY", "n", "5")
	if got.Int != 5 {
		t.Fatalf("INCRBY reply = %d, want 5", got.Int)
	}

	got = dispatch(t, e, "GET", "n")
	if got.Type != resp.TypeInteger || got.Int != 5 {
		t.Fatalf("GET after INCRBY = %+v, want Integer(5)", got)
	}
}

func TestIncrByOverflowLeavesValueUnchanged(t *testing.T) {
	e := newEngine(t)
	dispatch(t, e, "SET", "n", "1")

	got := dispatch(t, e, "INCRBY", "n", "9223372036854775807")
	if got.Type != resp.TypeError {
		t.Fatalf("expected error reply, got %+v", got)
	}

	got = dispatch(t, e, "GET", "n")
	if got.Type != resp.TypeBulkString || string(got.Str) != "1" {
		t.Fatalf("value changed after overflow: got %+v, want String(1)", got)
	}
}

func TestIncrNonNumericString(t *testing.T) {
	e := newEngine(t)
	dispatch(t, e, "SET", "s", "hi")

	got := dispatch(t, e, "INCR", "s")
	if got.Type != resp.TypeError || string(got.Str) != "ERR value is not an integer or out of range" {
		t.Fatalf("got %+v, want not-an-integer error", got)
	}
}

func TestGetWrongType(t *testing.T) {
	e := newEngine(t)
	dispatch(t, e, "HSET", "h", "f", "v")

	got := dispatch(t, e, "GET", "h")
	if got.Type != resp.TypeError {
		t.Fatalf("expected WRONGTYPE error, got %+v", got)
	}

	// The prior value must survive the failed GET untouched.
	typ := dispatch(t, e, "TYPE", "h")
	if string(typ.Str) != "hash" {
		t.Errorf("TYPE after WRONGTYPE = %q, want hash", typ.Str)
	}
}

func TestHSetHGetHGetAll(t *testing.T) {
	e := newEngine(t)

	got := dispatch(t, e, "HSET", "h", "f", "v")
	if got.Int != 1 {
		t.Fatalf("HSET new-field count = %d, want 1", got.Int)
	}

	got = dispatch(t, e, "HSET", "h", "f", "v2")
	if got.Int != 0 {
		t.Fatalf("re-HSET of same field count = %d, want 0", got.Int)
	}

	got = dispatch(t, e, "HGET", "h", "f")
	if string(got.Str) != "v2" {
		t.Fatalf("HGET = %q, want v2", got.Str)
	}

	got = dispatch(t, e, "HGETALL", "h")
	if len(got.Array) != 2 {
		t.Fatalf("HGETALL array len = %d, want 2", len(got.Array))
	}
}

func TestFlushDB(t *testing.T) {
	e := newEngine(t)
	dispatch(t, e, "SET", "k", "v")
	dispatch(t, e, "FLUSHDB")

	got := dispatch(t, e, "EXISTS", "k")
	if got.Int != 0 {
		t.Fatalf("EXISTS after FLUSHDB = %d, want 0", got.Int)
	}
}

func TestUnknownCommandName(t *testing.T) {
	e := newEngine(t)
	cmd := &command.Command{Name: "BOGUS"}
	got := e.Dispatch(cmd)
	if got.Type != resp.TypeError {
		t.Fatalf("expected error reply, got %+v", got)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	e := newEngine(t)
	dispatch(t, e, "SET", "counter", "0")

	const workers = 20
	const perWorker = 200

	incr, err := command.Parse("INCR", [][]byte{[]byte("counter")})
	if err != nil {
		t.Fatalf("Parse(INCR) error = %v", err)
	}

	done := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		go func() {
			for j := 0; j < perWorker; j++ {
				e.Dispatch(incr)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	got := dispatch(t, e, "GET", "counter")
	want := int64(workers * perWorker)
	if got.Int != want {
		t.Fatalf("final counter = %d, want %d", got.Int, want)
	}
}
