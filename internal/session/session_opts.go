package session

import (
	"math/rand/v2"
	"time"

	"github.com/pixil98/go-rpg/internal/game"
)

const DefaultEnemyTurnDelay = time.Second

type SessionOpt func(*Session)

// WithRand sets the source used for enemy turns.
func WithRand(r *rand.Rand) SessionOpt {
	return func(s *Session) {
		s.rng = r
	}
}

// WithClock overrides the time source for scene ids and enemy turn scheduling.
func WithClock(now func() time.Time) SessionOpt {
	return func(s *Session) {
		s.now = now
	}
}

// WithEnemyTurnDelay sets how long after an action the enemies strike back.
func WithEnemyTurnDelay(d time.Duration) SessionOpt {
	return func(s *Session) {
		s.enemyTurnDelay = d
	}
}

// WithBattleLogSize bounds the battle log.
func WithBattleLogSize(n int) SessionOpt {
	return func(s *Session) {
		s.logSize = n
	}
}

func WithPublisher(p Publisher) SessionOpt {
	return func(s *Session) {
		s.pub = p
	}
}

func WithAssets(a Assets) SessionOpt {
	return func(s *Session) {
		s.assets = a
	}
}

// WithInitialState seeds the store. The default is game.DefaultGameState.
func WithInitialState(st *game.GameState) SessionOpt {
	return func(s *Session) {
		s.initial = st
	}
}
