package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/eternalApril/statedb/internal/command"
	"github.com/eternalApril/statedb/internal/engine"
	"github.com/eternalApril/statedb/internal/resp"
	"go.uber.org/zap"
)

// Listener runs the ConnectionLoop: it accepts connections on a TCP
// socket and spawns one goroutine per connection, each driving its own
// Peer through the decode → classify → execute → encode cycle.
type Listener struct {
	ln     net.Listener
	engine *engine.Engine
	logger *zap.Logger

	wg sync.WaitGroup
}

// Listen binds addr (host:port) and returns a Listener ready to Serve.
func Listen(addr string, e *engine.Engine, logger *zap.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return &Listener{ln: ln, engine: e, logger: logger}, nil
}

// Addr reports the address actually bound (useful when addr used port 0).
func (s *Listener) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until ctx is canceled, spawning one goroutine
// per connection. It blocks until every in-flight connection has finished
// — shutdown is "stop accepting, let existing work finish," not an abrupt
// cut.
func (s *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection drives one Peer until it disconnects or a fatal I/O
// error occurs. Each loop iteration decodes exactly one request frame,
// classifies it, executes it (under the Engine's lock for anything that
// touches the dataspace), and encodes the reply — flushing immediately
// unless more pipelined input is already buffered.
func (s *Listener) handleConnection(conn net.Conn) {
	peer := NewPeer(conn)
	defer peer.Close()

	for {
		frame, err := peer.ReadCommand()
		if err != nil {
			var decodeErr *resp.DecodeError
			if errors.As(err, &decodeErr) {
				// Codec-level failure: reply and keep the connection open.
				// The decoder does not attempt resynchronization — the
				// next Decode call simply starts a fresh frame.
				if werr := peer.WriteReply(resp.MakeError("ERR invalid command format")); werr != nil {
					return
				}
				if werr := peer.Flush(); werr != nil {
					return
				}
				continue
			}
			s.handleReadError(peer, err)
			return
		}

		reply := s.execute(peer, frame)

		if err := peer.WriteReply(reply); err != nil {
			return
		}
		if peer.Pipelined() {
			continue
		}
		if err := peer.Flush(); err != nil {
			return
		}
	}
}

// handleReadError implements spec.md §4.5's policy for non-decoder read
// failures: a closed connection or reset ends the loop silently; any
// other I/O error is logged before closing.
func (s *Listener) handleReadError(peer *Peer, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || isConnReset(err) {
		return
	}
	s.logger.Warn("connection read error", zap.String("addr", peer.Identity.Addr), zap.Error(err))
}

func isConnReset(err error) bool {
	return strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "broken pipe")
}

// execute classifies frame and runs it. PING, ECHO, and CLIENT SETINFO
// are handled directly against the Peer's own Identity without ever
// touching the Engine, since spec.md §4.5 specifies them as lock-free;
// every other command is handed to the Engine. command.Parse validates
// arity/shape uniformly for all of them.
func (s *Listener) execute(peer *Peer, frame [][]byte) resp.Value {
	name := string(frame[0])
	args := frame[1:]

	cmd, cmdErr := command.Parse(name, args)
	if cmdErr != nil {
		return resp.MakeError(commandErrorText(cmdErr))
	}

	switch cmd.Name {
	case "PING":
		return handlePing(cmd.Args)
	case "ECHO":
		return resp.MakeBulkString(cloneBytes(cmd.Args[0]))
	case "CLIENT":
		peer.Identity.SetInfo(strings.ToUpper(string(cmd.Args[1])), string(cmd.Args[2]))
		return resp.MakeSimpleString("OK")
	}

	return s.engine.Dispatch(cmd)
}

// handlePing replies to a bare PING with a bulk string (matching the
// reference client behavior exercised against this protocol) and to
// PING <message> by echoing message back as a bulk string.
func handlePing(args [][]byte) resp.Value {
	if len(args) == 0 {
		return resp.MakeBulkStringFromString("PONG")
	}
	return resp.MakeBulkString(cloneBytes(args[0]))
}

func commandErrorText(err *command.Error) string {
	return "ERR " + err.Msg
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
