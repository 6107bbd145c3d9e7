package gamemaster

import (
	"context"
	"log/slog"
	"time"
)

const DefaultRequestTimeout = 60 * time.Second

// GameMaster asks the text model for the next turn of the story and turns
// whatever comes back into a Response.
type GameMaster struct {
	text    TextGenerator
	timeout time.Duration
}

type GameMasterOpt func(*GameMaster)

// WithRequestTimeout bounds every request. Zero disables the bound.
func WithRequestTimeout(d time.Duration) GameMasterOpt {
	return func(gm *GameMaster) {
		gm.timeout = d
	}
}

func NewGameMaster(text TextGenerator, opts ...GameMasterOpt) *GameMaster {
	gm := &GameMaster{
		text:    text,
		timeout: DefaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(gm)
	}

	return gm
}

// Respond sends body, prefixed with the Game Master instructions, and parses
// the reply. Transport failures, timeouts and malformed replies all yield Fallback.
func (gm *GameMaster) Respond(ctx context.Context, body string) Response {
	if gm.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gm.timeout)
		defer cancel()
	}

	text, err := gm.text.GenerateText(ctx, FullPrompt(body))
	if err != nil {
		slog.ErrorContext(ctx, "game master request failed", "error", err)
		return Fallback()
	}

	resp, err := ParseResponse(text)
	if err != nil {
		slog.WarnContext(ctx, "discarding game master response", "error", err)
		return Fallback()
	}

	return resp
}
