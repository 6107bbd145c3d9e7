package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
)

// CharacterStats is a party member. Party index 0 is the controlled character.
type CharacterStats struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class"`

	Level      int `json:"level"`
	Experience int `json:"experience"`

	HP      int `json:"hp"`
	MaxHP   int `json:"maxHp"`
	Mana    int `json:"mana"`
	MaxMana int `json:"maxMana"`
	Stamina int `json:"stamina"`

	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
	Speed        int `json:"speed"`

	AvatarURL   string `json:"avatar_url,omitempty"`
	Description string `json:"description,omitempty"`
	IsDead      bool   `json:"is_dead,omitempty"`
}

// NewCharacter returns a level one character with baseline attributes.
func NewCharacter(id, name, class string) CharacterStats {
	return CharacterStats{
		ID:           id,
		Name:         strings.TrimSpace(name),
		Class:        strings.TrimSpace(class),
		Level:        1,
		HP:           10,
		MaxHP:        10,
		Stamina:      10,
		Strength:     10,
		Dexterity:    10,
		Constitution: 10,
		Intelligence: 10,
		Wisdom:       10,
		Charisma:     10,
		Speed:        10,
		Description:  fmt.Sprintf("A %s setting out on a new adventure.", strings.ToLower(strings.TrimSpace(class))),
	}
}

func (c *CharacterStats) Validate() error {
	el := errors.NewErrorList()

	if c.ID == "" {
		el.Add(fmt.Errorf("id is required"))
	}
	if strings.TrimSpace(c.Name) == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if strings.TrimSpace(c.Class) == "" {
		el.Add(fmt.Errorf("class is required"))
	}
	if c.MaxHP < 0 || c.HP > c.MaxHP {
		el.Add(fmt.Errorf("hp %d out of range for max %d", c.HP, c.MaxHP))
	}

	return el.Err()
}

// IsAlive reports whether the character can still act.
func (c *CharacterStats) IsAlive() bool {
	return !c.IsDead
}

// CharacterPatch holds the fields to merge into a character. Nil fields are left unchanged.
type CharacterPatch struct {
	Name         *string
	Class        *string
	Level        *int
	Experience   *int
	HP           *int
	MaxHP        *int
	Mana         *int
	MaxMana      *int
	Stamina      *int
	Strength     *int
	Dexterity    *int
	Constitution *int
	Intelligence *int
	Wisdom       *int
	Charisma     *int
	Speed        *int
	AvatarURL    *string
	Description  *string
	IsDead       *bool
}

func (p CharacterPatch) apply(c *CharacterStats) {
	setIf(&c.Name, p.Name)
	setIf(&c.Class, p.Class)
	setIf(&c.Level, p.Level)
	setIf(&c.Experience, p.Experience)
	setIf(&c.HP, p.HP)
	setIf(&c.MaxHP, p.MaxHP)
	setIf(&c.Mana, p.Mana)
	setIf(&c.MaxMana, p.MaxMana)
	setIf(&c.Stamina, p.Stamina)
	setIf(&c.Strength, p.Strength)
	setIf(&c.Dexterity, p.Dexterity)
	setIf(&c.Constitution, p.Constitution)
	setIf(&c.Intelligence, p.Intelligence)
	setIf(&c.Wisdom, p.Wisdom)
	setIf(&c.Charisma, p.Charisma)
	setIf(&c.Speed, p.Speed)
	setIf(&c.AvatarURL, p.AvatarURL)
	setIf(&c.Description, p.Description)
	setIf(&c.IsDead, p.IsDead)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
