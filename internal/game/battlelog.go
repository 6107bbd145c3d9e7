package game

import (
	"slices"
	"sync"
)

// DefaultBattleLogSize is how many battle log lines are kept.
const DefaultBattleLogSize = 50

// BattleLog keeps the most recent lines, newest first. Pushing past capacity
// drops the oldest line.
type BattleLog struct {
	size  int
	lines []string

	mu sync.RWMutex
}

// NewBattleLog creates a log holding at most size lines. Non-positive sizes use DefaultBattleLogSize.
func NewBattleLog(size int, initial ...string) *BattleLog {
	if size <= 0 {
		size = DefaultBattleLogSize
	}

	l := &BattleLog{size: size}
	for _, line := range initial {
		l.Push(line)
	}
	return l
}

// Push adds line as the newest entry.
func (l *BattleLog) Push(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = slices.Insert(l.lines, 0, line)
	if len(l.lines) > l.size {
		l.lines = l.lines[:l.size]
	}
}

// Lines returns a copy of the log, newest first.
func (l *BattleLog) Lines() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.lines)
}

// Recent returns up to n of the newest lines, newest first.
func (l *BattleLog) Recent(n int) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n = max(0, min(n, len(l.lines)))
	return slices.Clone(l.lines[:n])
}

func (l *BattleLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}
