package server_test

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/eternalApril/statedb/internal/engine"
	"github.com/eternalApril/statedb/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startServer boots a Listener on an ephemeral port and tears it down at
// test cleanup.
func startServer(t *testing.T) string {
	t.Helper()

	e := engine.New(zap.NewNop())
	ln, err := server.Listen("127.0.0.1:0", e, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ln.Serve(ctx) //nolint:errcheck
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return ln.Addr().String()
}

func TestEndToEndViaGoRedisClient(t *testing.T) {
	addr := startServer(t)

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, "greeting", "hello", 0).Err())

	val, err := rdb.Get(ctx, "greeting").Result()
	require.NoError(t, err)
	require.Equal(t, "hello", val)

	n, err := rdb.Incr(ctx, "counter").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = rdb.IncrBy(ctx, "counter", 41).Result()
	require.NoError(t, err)
	require.Equal(t, int64(42), n)

	require.NoError(t, rdb.HSet(ctx, "h", "field", "value").Err())
	hval, err := rdb.HGet(ctx, "h", "field").Result()
	require.NoError(t, err)
	require.Equal(t, "value", hval)

	_, err = rdb.Get(ctx, "h").Result()
	require.Error(t, err)
	require.Contains(t, err.Error(), "WRONGTYPE")

	deleted, err := rdb.Del(ctx, "greeting", "counter").Result()
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	_, err = rdb.Get(ctx, "missing").Result()
	require.ErrorIs(t, err, redis.Nil)
}

func TestEndToEndConcurrentClients(t *testing.T) {
	addr := startServer(t)
	ctx := context.Background()

	const clients = 10
	const perClient = 50

	done := make(chan struct{}, clients)
	for i := 0; i < clients; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			rdb := redis.NewClient(&redis.Options{Addr: addr})
			defer rdb.Close()
			for j := 0; j < perClient; j++ {
				rdb.Incr(ctx, "shared_counter")
			}
		}(i)
	}
	for i := 0; i < clients; i++ {
		<-done
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	n, err := rdb.Get(ctx, "shared_counter").Int64()
	require.NoError(t, err)
	require.Equal(t, int64(clients*perClient), n)
}

// TestRawSocketCodecBoundaries drives the wire protocol directly to cover
// cases go-redis's client never exercises: inline commands, pipelined
// frames, and a malformed frame that must not kill the connection.
func TestRawSocketCodecBoundaries(t *testing.T) {
	addr := startServer(t)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Inline command.
	_, err = conn.Write([]byte("PING\r\n"))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "$4\r\n", line)
	payload, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "PONG\r\n", payload)

	// Pipelined SET + INCR in one write, as two RESP arrays back to back.
	_, err = conn.Write([]byte(
		"*3\r\n$3\r\nSET\r\n$1\r\ns\r\n$2\r\nhi\r\n" +
			"*2\r\n$4\r\nINCR\r\n$1\r\ns\r\n",
	))
	require.NoError(t, err)

	ok, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", ok)

	errLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "-ERR value is not an integer or out of range\r\n", errLine)

	// Malformed frame: negative array length. Connection must stay open
	// and reply with the collapsed codec error.
	_, err = conn.Write([]byte("*-5\r\n"))
	require.NoError(t, err)
	badLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "-ERR invalid command format\r\n", badLine)

	// Connection survives: a following well-formed command still works.
	_, err = conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "$4\r\n", line)
}
