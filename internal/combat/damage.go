package combat

import (
	"fmt"
	"math/rand/v2"

	"github.com/pixil98/go-rpg/internal/game"
)

const (
	MinEnemyDamage = 1
	MaxEnemyDamage = 5
)

// RollEnemyDamage rolls an enemy's hit against the controlled character.
func RollEnemyDamage(r *rand.Rand) int {
	return r.IntN(MaxEnemyDamage-MinEnemyDamage+1) + MinEnemyDamage
}

// PickAttacker chooses one living enemy uniformly at random.
func PickAttacker(r *rand.Rand, enemies []game.Enemy) (game.Enemy, bool) {
	alive := game.LivingEnemies(enemies)
	if len(alive) == 0 {
		return game.Enemy{}, false
	}
	return alive[r.IntN(len(alive))], true
}

// Attack is the outcome of one enemy turn.
type Attack struct {
	Attacker game.Enemy
	Damage   int
}

func (a Attack) Message() string {
	return fmt.Sprintf("%s attacks you for %d damage!", a.Attacker.Name, a.Damage)
}

// EnemyTurn picks an attacker and rolls its damage. It returns false when no enemy is alive.
func EnemyTurn(r *rand.Rand, enemies []game.Enemy) (Attack, bool) {
	attacker, ok := PickAttacker(r, enemies)
	if !ok {
		return Attack{}, false
	}
	return Attack{Attacker: attacker, Damage: RollEnemyDamage(r)}, true
}
