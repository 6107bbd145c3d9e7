package game

import "slices"

// Scene is the current narrative location and its image prompt. The HP fields
// are carried for wire compatibility with older clients and are not used.
type Scene struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImagePrompt string `json:"imagePrompt"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"maxHp"`
	IsDead      bool   `json:"is_dead"`
}

type Location struct {
	Current     string `json:"current"`
	Description string `json:"description"`
}

// MapEntity marks something of interest on the ASCII map.
type MapEntity struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// MapData is the Game Master's top-down view of the scene.
type MapData struct {
	ASCII    string      `json:"ascii"`
	Entities []MapEntity `json:"entities"`
}

// GameState is the aggregate root for one play session.
type GameState struct {
	// GameLog grows without bound, oldest entry first.
	GameLog           []string         `json:"gameLog"`
	Party             []CharacterStats `json:"party"`
	Enemies           []Enemy          `json:"enemies"`
	Inventory         []Item           `json:"inventory"`
	Location          Location         `json:"location"`
	CurrentScene      Scene            `json:"currentScene"`
	CurrentSceneImage string           `json:"currentSceneImage"`
	CurrentMap        *MapData         `json:"currentMap,omitempty"`
}

// Character returns the controlled character, party index 0.
func (s *GameState) Character() (CharacterStats, bool) {
	if len(s.Party) == 0 {
		return CharacterStats{}, false
	}
	return s.Party[0], true
}

// Enemy returns the enemy with the given id.
func (s *GameState) Enemy(id string) (Enemy, bool) {
	for _, e := range s.Enemies {
		if e.ID == id {
			return e, true
		}
	}
	return Enemy{}, false
}

// Clone returns a deep copy so snapshots never share backing arrays.
func (s *GameState) Clone() *GameState {
	c := *s
	c.GameLog = slices.Clone(s.GameLog)
	c.Party = slices.Clone(s.Party)
	c.Enemies = slices.Clone(s.Enemies)
	c.Inventory = slices.Clone(s.Inventory)
	if s.CurrentMap != nil {
		m := *s.CurrentMap
		m.Entities = slices.Clone(s.CurrentMap.Entities)
		c.CurrentMap = &m
	}
	return &c
}

// DefaultGameState is the snapshot a new game starts from.
func DefaultGameState() *GameState {
	return &GameState{
		GameLog: []string{
			"Your adventure begins with Baulrog the Barbarian!",
			"The air is thick with the promise of battle.",
		},
		Party: []CharacterStats{
			{
				ID:           "1",
				Name:         "Baulrog",
				Class:        "Barbarian",
				Level:        1,
				HP:           15,
				MaxHP:        15,
				Strength:     16,
				Dexterity:    14,
				Constitution: 14,
				Intelligence: 8,
				Wisdom:       10,
				Charisma:     12,
				Stamina:      10,
				Speed:        10,
				Description:  "A fierce barbarian warrior with a mighty axe and unyielding spirit.",
			},
		},
		Enemies:   []Enemy{},
		Inventory: DefaultInventory(),
		Location: Location{
			Current:     "The Bloodied Plains",
			Description: "A vast open plain where the grass has been stained red from countless battles. The wind carries the distant sound of war drums.",
		},
		CurrentScene: Scene{
			ID:          "1",
			Title:       "The Bloodied Plains",
			Description: "A vast open plain where the grass has been stained red from countless battles. The wind carries the distant sound of war drums.",
			ImagePrompt: "A vast open plain with red-stained grass and a stormy sky",
			HP:          100,
			MaxHP:       100,
		},
	}
}
