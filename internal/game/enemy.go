package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
)

// Enemy is a hostile combatant introduced during play.
type Enemy struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Class        string `json:"class"`
	Level        int    `json:"level"`
	HP           int    `json:"hp"`
	MaxHP        int    `json:"maxHp"`
	Strength     int    `json:"strength"`
	Dexterity    int    `json:"dexterity"`
	Intelligence int    `json:"intelligence"`
	Description  string `json:"description"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	IsDead       bool   `json:"is_dead,omitempty"`
}

func (e *Enemy) Validate() error {
	el := errors.NewErrorList()

	if strings.TrimSpace(e.Name) == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if e.MaxHP < 0 {
		el.Add(fmt.Errorf("maxHp must not be negative"))
	}

	return el.Err()
}

// IsAlive reports whether the enemy can still act.
func (e *Enemy) IsAlive() bool {
	return !e.IsDead
}

// EnemyPatch holds the fields to merge into an enemy. Nil fields are left unchanged.
type EnemyPatch struct {
	Name         *string
	Class        *string
	Level        *int
	HP           *int
	MaxHP        *int
	Strength     *int
	Dexterity    *int
	Intelligence *int
	Description  *string
	AvatarURL    *string
	IsDead       *bool
}

func (p EnemyPatch) apply(e *Enemy) {
	setIf(&e.Name, p.Name)
	setIf(&e.Class, p.Class)
	setIf(&e.Level, p.Level)
	setIf(&e.HP, p.HP)
	setIf(&e.MaxHP, p.MaxHP)
	setIf(&e.Strength, p.Strength)
	setIf(&e.Dexterity, p.Dexterity)
	setIf(&e.Intelligence, p.Intelligence)
	setIf(&e.Description, p.Description)
	setIf(&e.AvatarURL, p.AvatarURL)
	setIf(&e.IsDead, p.IsDead)
}

// LivingEnemies returns the enemies that are not dead, in order.
func LivingEnemies(enemies []Enemy) []Enemy {
	var alive []Enemy
	for _, e := range enemies {
		if e.IsAlive() {
			alive = append(alive, e)
		}
	}
	return alive
}
