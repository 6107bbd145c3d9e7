package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// SessionRunner plays one game over a terminal connection.
type SessionRunner interface {
	RunSession(ctx context.Context, conn io.ReadWriter) error
}

// ConnectionManager hands every accepted connection to a SessionRunner.
type ConnectionManager struct {
	runner SessionRunner
}

func NewConnectionManager(runner SessionRunner) *ConnectionManager {
	return &ConnectionManager{
		runner: runner,
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	err := m.runner.RunSession(ctx, conn)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
		slog.DebugContext(ctx, "player hung up", "error", err)
	default:
		slog.WarnContext(ctx, "player session", "error", err)
	}
}
