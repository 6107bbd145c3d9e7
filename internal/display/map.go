package display

import (
	"strings"

	"github.com/pixil98/go-rpg/internal/game"
)

const mapLegend = "P: You  E: Enemy  T: Treasure  D: Door"

// Map renders the ASCII map with its legend. An empty map renders nothing.
func Map(m *game.MapData) string {
	if m == nil || strings.TrimSpace(m.ASCII) == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Map\n")
	sb.WriteString(strings.TrimRight(m.ASCII, "\n"))
	sb.WriteString("\n")
	sb.WriteString(mapLegend)
	sb.WriteString("\n")
	return sb.String()
}

// Lines renders log lines oldest first, so the newest ends up next to the prompt.
func Lines(newestFirst []string) string {
	var sb strings.Builder
	for i := len(newestFirst) - 1; i >= 0; i-- {
		sb.WriteString(Wrap(newestFirst[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}
