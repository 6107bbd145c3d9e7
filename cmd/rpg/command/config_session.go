package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-rpg/internal/session"
)

type SessionConfig struct {
	EnemyTurnDelay string `json:"enemy_turn_delay"`
	BattleLogSize  int    `json:"battle_log_size"`
}

func (c *SessionConfig) validate() error {
	el := errors.NewErrorList()

	_, err := parseOptionalDuration("enemy_turn_delay", c.EnemyTurnDelay, 0)
	el.Add(err)

	if c.BattleLogSize < 0 {
		el.Add(fmt.Errorf("battle_log_size must not be negative"))
	}

	return el.Err()
}

func (c *SessionConfig) sessionOpts() ([]session.SessionOpt, error) {
	delay, err := parseOptionalDuration("enemy_turn_delay", c.EnemyTurnDelay, session.DefaultEnemyTurnDelay)
	if err != nil {
		return nil, err
	}

	opts := []session.SessionOpt{session.WithEnemyTurnDelay(delay)}
	if c.BattleLogSize > 0 {
		opts = append(opts, session.WithBattleLogSize(c.BattleLogSize))
	}
	return opts, nil
}
