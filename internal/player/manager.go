package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pixil98/go-rpg/internal/session"
)

const msgBuffer = 128

const banner = "Welcome, traveller. A Game Master awaits your every move.\n\n"

// Subscriber streams a session's battle log lines.
type Subscriber interface {
	SubscribeSession(sessionID string, handler func(data []byte)) (func(), error)
}

// Manager runs a game session for every terminal connection.
type Manager struct {
	sessions *session.Manager
	sub      Subscriber
}

// NewManager creates a manager. With a nil Subscriber each session delivers
// its lines straight to its own terminal.
func NewManager(sessions *session.Manager, sub Subscriber) *Manager {
	return &Manager{
		sessions: sessions,
		sub:      sub,
	}
}

// RunSession walks the player through character creation and then plays
// until they quit or the connection closes.
func (m *Manager) RunSession(ctx context.Context, conn io.ReadWriter) error {
	br := bufio.NewReader(conn)

	_, err := io.WriteString(conn, banner)
	if err != nil {
		return err
	}

	name, class, err := createCharacter(br, conn)
	if err != nil {
		return fmt.Errorf("creating character: %w", err)
	}

	msgs := make(chan []byte, msgBuffer)
	deliver := func(data []byte) {
		select {
		case msgs <- data:
		default:
			slog.WarnContext(ctx, "dropping battle log line for slow terminal")
		}
	}

	var opts []session.SessionOpt
	if m.sub == nil {
		opts = append(opts, session.WithPublisher(session.PublisherFunc(func(_ string, data []byte) error {
			deliver(data)
			return nil
		})))
	}

	s := m.sessions.NewSession(opts...)
	defer m.sessions.Remove(s.ID())

	if m.sub != nil {
		unsub, err := m.sub.SubscribeSession(s.ID(), deliver)
		if err != nil {
			return fmt.Errorf("subscribing to session: %w", err)
		}
		defer unsub()
	}

	slog.InfoContext(ctx, "session started", "session", s.ID(), "name", name, "class", class)

	p := &Player{
		in:      br,
		out:     conn,
		session: s,
		msgs:    msgs,
	}

	_, err = io.WriteString(conn, "The Game Master is setting the scene...\n\n")
	if err != nil {
		return err
	}

	_, err = s.Start(ctx, name, class)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	err = p.drain()
	if err != nil {
		return err
	}

	return p.Play(ctx)
}
