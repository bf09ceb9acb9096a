// Package engine implements the Executor: it interprets a typed
// command.Command against a store.Dataspace under a single mutex,
// producing a RESP reply.
package engine

import (
	"fmt"
	"sync"

	"github.com/eternalApril/statedb/internal/command"
	"github.com/eternalApril/statedb/internal/resp"
	"github.com/eternalApril/statedb/internal/store"
	"go.uber.org/zap"
)

// Engine owns the single mutex serializing every Dataspace mutation, per
// spec.md §5. It holds no per-connection state; PING/ECHO/CLIENT SETINFO
// never reach it (see server.Listener.execute).
type Engine struct {
	mu     sync.Mutex
	data   *store.Dataspace
	logger *zap.Logger
}

// New creates an Engine over a fresh Dataspace.
func New(logger *zap.Logger) *Engine {
	return &Engine{
		data:   store.New(),
		logger: logger,
	}
}

// Dispatch executes cmd and returns its RESP reply. It acquires the
// Engine's lock for the duration of the handler; the returned Value has
// already copied any Dataspace-owned bytes it needs, so it is safe to
// encode and send after the lock is released.
func (e *Engine) Dispatch(cmd *command.Command) resp.Value {
	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("dispatch",
			zap.String("cmd", cmd.Name),
			zap.Int("args", len(cmd.Args)),
		)
	}

	handler, ok := handlers[cmd.Name]
	if !ok {
		return resp.MakeError(fmt.Sprintf("ERR unknown command '%s'", cmd.Name))
	}

	e.mu.Lock()
	reply := handler(e.data, cmd)
	e.mu.Unlock()

	return reply
}
