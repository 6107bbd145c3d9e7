package gamemaster

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// templateFuncs gives every prompt template the sprig functions.
var templateFuncs = sprig.TxtFuncMap()

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func mustParse(name, tmplStr string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).Parse(tmplStr))
}

const instructions = "You are the Game Master for a text-based adventure game. Your role is to narrate the story, describe locations, present challenges, and manage the game world based on player actions.\n\n" +
	"For each response, provide a JSON object with these fields:\n" +
	"1. \"narrative\": The narrative text describing what happens next\n" +
	"2. \"imagePrompt\": A detailed prompt for generating an image of the current scene\n" +
	"3. \"map\": An object with:\n" +
	"   - \"ascii\": A 7x7 ASCII map using # for walls, . for open space, P for player, E for enemy, T for treasure, D for door\n" +
	"   - \"entities\": Array of objects with type (player, enemy, treasure, door, npc or item), x, y coordinates\n" +
	"4. \"enemies\": Optional. Every enemy whose state changed or who newly appeared. Reuse the id of a known enemy when updating it; omit the id for a new enemy. Each has name, class, level, hp, maxHp, description and is_dead.\n\n" +
	"Example response:\n" +
	"```json\n" +
	"{\n" +
	"  \"narrative\": \"You enter a dark cave...\",\n" +
	"  \"imagePrompt\": \"A dark cave entrance with moss-covered walls and a flickering torch casting shadows.\",\n" +
	"  \"map\": {\n" +
	"    \"ascii\": \"#######\\n#.....#\\n#.P.E.#\\n#.....#\\n#..T..#\\n#.....#\\n#######\",\n" +
	"    \"entities\": [\n" +
	"      { \"type\": \"player\", \"x\": 2, \"y\": 2 },\n" +
	"      { \"type\": \"enemy\", \"x\": 4, \"y\": 2 },\n" +
	"      { \"type\": \"treasure\", \"x\": 3, \"y\": 4 }\n" +
	"    ]\n" +
	"  },\n" +
	"  \"enemies\": [\n" +
	"    { \"name\": \"Cave Goblin\", \"class\": \"Monster\", \"level\": 1, \"hp\": 7, \"maxHp\": 7, \"description\": \"A wiry goblin with a rusty knife.\", \"is_dead\": false }\n" +
	"  ]\n" +
	"}\n" +
	"```\n\n" +
	"Current game state and player's action:\n"

// ActionPrompt is everything the Game Master is told about a player action.
type ActionPrompt struct {
	Action   string
	Location string
	Enemies  []string
	Target   string
	Roster   []RosterEntry
}

// RosterEntry lets the Game Master refer to known enemies by id.
type RosterEntry struct {
	ID     string
	Name   string
	HP     int
	MaxHP  int
	IsDead bool
}

var actionTmpl = mustParse("action", `Player action: {{ .Action }}
Current location: {{ .Location }}
Enemies: {{ .Enemies | join ", " | default "None" }}
Selected target: {{ .Target | default "None" }}
{{- if .Roster }}
Enemy roster:
{{- range .Roster }}
- id={{ .ID }} name={{ .Name }} hp={{ .HP }}/{{ .MaxHP }}{{ if .IsDead }} (dead){{ end }}
{{- end }}
{{- end }}
`)

// Render returns the player-facing part of the prompt, without instructions.
func (p ActionPrompt) Render() (string, error) {
	return execute(actionTmpl, p)
}

// FullPrompt prefixes a rendered state/action block with the Game Master instructions.
func FullPrompt(body string) string {
	return instructions + body
}

// OpeningPrompt asks for the introductory scene of a newly created character.
type OpeningPrompt struct {
	Name  string
	Class string
}

var openingTmpl = mustParse("opening", `Create an introductory scene for a single-player RPG. The player character is a {{ .Class }} named {{ .Name }}. Describe their immediate surroundings and present them with a clear starting objective or situation. The response should be engaging and set the tone for a fantasy adventure.
`)

func (p OpeningPrompt) Render() (string, error) {
	return execute(openingTmpl, p)
}

// AvatarPrompt describes a portrait to generate for a party member or enemy.
type AvatarPrompt struct {
	Kind        string // character, enemy or npc
	Name        string
	Level       int
	Description string
}

var avatarTmpl = mustParse("avatar", `A fantasy RPG {{ .Kind }} character named {{ .Name }}
{{- if eq .Kind "enemy" }}, a dangerous {{ .Description | default "monster" }}
{{- else }}, a level {{ .Level | default 1 }} {{ .Description | default "adventurer" }}
{{- end }}. Style: digital painting, highly detailed character portrait, dramatic lighting, "Magic: The Gathering" art style, fantasy RPG character design, 4k resolution, intricate details
{{- if ne .Kind "enemy" }}, wearing appropriate {{ if eq .Kind "character" }}adventuring {{ end }}gear{{ end }}`)

func (p AvatarPrompt) Render() (string, error) {
	return execute(avatarTmpl, p)
}

// DefaultScenePrompt is used when an image is requested without a prompt.
const DefaultScenePrompt = "A group of adventurers stands at the entrance of a dark, mysterious dungeon. The rogue is examining the ancient stone door for traps, while the wizard studies the arcane runes carved into the frame. The fighter keeps watch down the torch-lit corridor, and the cleric clutches their holy symbol, sensing an ominous presence. The air is thick with dust and the scent of old magic."

var sceneImageTmpl = mustParse("scene-image", `Generate a high-quality, detailed fantasy RPG scene in the style of Dungeons & Dragons 5e.
Scene: {{ . }}
Style: Digital art, isometric view, highly detailed environment, dramatic lighting, rich colors.`)

// ImageRequestText wraps a scene prompt with the house art style.
func ImageRequestText(prompt string) (string, error) {
	return execute(sceneImageTmpl, prompt)
}

var sceneAssetTmpl = mustParse("scene-asset", `A fantasy RPG scene showing: {{ . }}. Style: digital art, isometric view, detailed environment, vibrant colors.`)

// SceneAssetPrompt describes the image for a scene that has no image prompt of its own.
func SceneAssetPrompt(description string) (string, error) {
	return execute(sceneAssetTmpl, description)
}
