package display

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-rpg/internal/game"
)

// CharacterSheet renders the controlled character's stats.
func CharacterSheet(c game.CharacterStats) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s, level %d %s\n", Title(c.Name), c.Level, Title(c.Class))
	fmt.Fprintf(&sb, "HP: %d/%d  Mana: %d/%d  Stamina: %d\n", c.HP, c.MaxHP, c.Mana, c.MaxMana, c.Stamina)
	fmt.Fprintf(&sb, "STR %2d  DEX %2d  CON %2d  INT %2d  WIS %2d  CHA %2d  SPD %2d\n",
		c.Strength, c.Dexterity, c.Constitution, c.Intelligence, c.Wisdom, c.Charisma, c.Speed)
	if c.Description != "" {
		sb.WriteString(Wrap(c.Description))
		sb.WriteString("\n")
	}
	if c.IsDead {
		sb.WriteString("You are dead.\n")
	}

	return sb.String()
}

// EnemyList renders a numbered list of enemies, marking the selected target.
func EnemyList(enemies []game.Enemy, targetID string) string {
	if len(enemies) == 0 {
		return "There are no enemies here.\n"
	}

	var sb strings.Builder
	for i, e := range enemies {
		marker := " "
		if e.ID == targetID {
			marker = "*"
		}
		status := fmt.Sprintf("%d/%d HP", e.HP, e.MaxHP)
		if e.IsDead {
			status = "dead"
		}
		fmt.Fprintf(&sb, "%s%2d. %s (%s)\n", marker, i+1, Title(e.Name), status)
	}
	return sb.String()
}

// Inventory renders the carried items with their ids.
func Inventory(items []game.Item) string {
	if len(items) == 0 {
		return "You are carrying nothing.\n"
	}

	var sb strings.Builder
	for _, it := range items {
		fmt.Fprintf(&sb, "  %-12s %s\n", it.ID, it.Name)
	}
	return sb.String()
}
