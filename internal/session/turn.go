package session

import (
	"errors"
	"fmt"
)

var (
	ErrTurnInProgress = errors.New("turn in progress")
	ErrSessionClosed  = errors.New("session closed")
	ErrEmptyAction    = errors.New("action must not be empty")
)

// TurnState is where a session is in its turn cycle. Actions are only
// accepted on the player's turn.
type TurnState int

const (
	PlayerTurn TurnState = iota
	ResolvingAction
	EnemyTurn
)

func (t TurnState) String() string {
	switch t {
	case PlayerTurn:
		return "player turn"
	case ResolvingAction:
		return "resolving action"
	case EnemyTurn:
		return "enemy turn"
	default:
		return fmt.Sprintf("TurnState(%d)", int(t))
	}
}
