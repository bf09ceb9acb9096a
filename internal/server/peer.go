// Package server implements the ConnectionLoop: accepting TCP
// connections, spawning one worker per connection, and running the
// decode → classify → execute → encode cycle described in spec.md §4.5.
package server

import (
	"net"

	"github.com/eternalApril/statedb/internal/client"
	"github.com/eternalApril/statedb/internal/resp"
)

// Peer wraps one accepted connection: its RESP decoder/encoder pair and
// its per-client identity record. Everything a Peer owns lives and dies
// with the connection — this is the "per-connection scratch arena" named
// in spec.md §3/§9; nothing here is shared with another goroutine.
type Peer struct {
	conn     net.Conn
	decoder  *resp.Decoder
	encoder  *resp.Encoder
	Identity *client.Identity
}

// NewPeer wraps conn, recording its remote address into a fresh Identity.
func NewPeer(conn net.Conn) *Peer {
	return &Peer{
		conn:     conn,
		decoder:  resp.NewDecoder(conn),
		encoder:  resp.NewEncoder(conn),
		Identity: client.New(conn.RemoteAddr().String()),
	}
}

// ReadCommand decodes the next request frame.
func (p *Peer) ReadCommand() ([][]byte, error) {
	return p.decoder.Decode()
}

// WriteReply buffers v for the next Flush.
func (p *Peer) WriteReply(v resp.Value) error {
	return p.encoder.Write(v)
}

// Flush sends any buffered replies to the client.
func (p *Peer) Flush() error {
	return p.encoder.Flush()
}

// Pipelined reports whether the client has already sent more request
// bytes than the decoder has consumed — used to defer Flush until a
// pipelined batch drains, coalescing writes.
func (p *Peer) Pipelined() bool {
	return p.decoder.Buffered() > 0
}

// Close terminates the underlying connection.
func (p *Peer) Close() error {
	return p.conn.Close()
}
