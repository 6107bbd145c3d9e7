package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	idSuffixLength = 9
	idAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Store is the single source of truth for a session's GameState. Every
// mutation copies the current snapshot, changes the copy and swaps it in, so
// a snapshot handed out by Snapshot never changes underneath its reader.
type Store struct {
	state *GameState
	now   func() time.Time

	mu sync.RWMutex
}

type StoreOpt func(*Store)

// WithClock overrides the time source used for generated ids.
func WithClock(now func() time.Time) StoreOpt {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store seeded with initial. A nil initial uses DefaultGameState.
func NewStore(initial *GameState, opts ...StoreOpt) *Store {
	if initial == nil {
		initial = DefaultGameState()
	}

	s := &Store{
		state: initial.Clone(),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() *GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) update(fn func(next *GameState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	fn(next)
	s.state = next
}

// SetPlayerCharacter replaces the whole party with c.
func (s *Store) SetPlayerCharacter(c CharacterStats) {
	s.update(func(next *GameState) {
		next.Party = []CharacterStats{c}
	})
}

// AddGameLogEntry appends entry to the game log.
func (s *Store) AddGameLogEntry(entry string) {
	s.update(func(next *GameState) {
		next.GameLog = append(next.GameLog, entry)
	})
}

// AddEnemy assigns e a fresh id, appends it and returns the id. Any id already on e is replaced.
func (s *Store) AddEnemy(e Enemy) string {
	e.ID = fmt.Sprintf("enemy-%d-%s", s.now().UnixMilli(), randomSuffix(idSuffixLength))

	s.update(func(next *GameState) {
		next.Enemies = append(next.Enemies, e)
	})

	return e.ID
}

// UpdateEnemy merges patch into the enemy with the given id. Unknown ids leave the state unchanged.
func (s *Store) UpdateEnemy(id string, patch EnemyPatch) {
	s.update(func(next *GameState) {
		for i := range next.Enemies {
			if next.Enemies[i].ID == id {
				patch.apply(&next.Enemies[i])
			}
		}
	})
}

// RemoveEnemy drops the enemy with the given id.
func (s *Store) RemoveEnemy(id string) {
	s.update(func(next *GameState) {
		kept := next.Enemies[:0]
		for _, e := range next.Enemies {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		next.Enemies = kept
	})
}

// UpdateCharacter merges patch into the controlled character only.
func (s *Store) UpdateCharacter(patch CharacterPatch) {
	s.update(func(next *GameState) {
		if len(next.Party) > 0 {
			patch.apply(&next.Party[0])
		}
	})
}

// SetCurrentScene moves the party to a new location. An empty description keeps the old one.
func (s *Store) SetCurrentScene(title, description string) {
	s.update(func(next *GameState) {
		next.Location.Current = title
		if description != "" {
			next.Location.Description = description
		}
	})
}

// SetScene replaces the current scene.
func (s *Store) SetScene(scene Scene) {
	s.update(func(next *GameState) {
		next.CurrentScene = scene
	})
}

// SetSceneImage records the URI of the image shown for the current scene.
func (s *Store) SetSceneImage(uri string) {
	s.update(func(next *GameState) {
		next.CurrentSceneImage = uri
	})
}

// SetMap replaces the current map. A nil map clears it.
func (s *Store) SetMap(m *MapData) {
	s.update(func(next *GameState) {
		if m == nil {
			next.CurrentMap = nil
			return
		}
		cp := *m
		cp.Entities = append([]MapEntity(nil), m.Entities...)
		next.CurrentMap = &cp
	})
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}
