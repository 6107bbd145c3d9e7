package gamemaster

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pixil98/go-rpg/internal/game"
)

const (
	// FallbackNarrative is shown when the Game Master's reply cannot be used.
	FallbackNarrative = "An error occurred while processing your action. Please try again."

	// FallbackImagePrompt replaces the scene image prompt when the reply cannot be used.
	FallbackImagePrompt = "A mysterious error has occurred in the game world."
)

var (
	ErrNoJSONBlock       = errors.New("no fenced json block in response")
	ErrMalformedResponse = errors.New("malformed game master response")
)

var fencePattern = regexp.MustCompile("(?s)```json[ \t]*\r?\n(.*?)\r?\n[ \t]*```")

var validate = validator.New(validator.WithRequiredStructEnabled())

// envelope is the JSON object the Game Master must return.
type envelope struct {
	Narrative   string          `json:"narrative" validate:"required"`
	ImagePrompt string          `json:"imagePrompt"`
	Map         *mapEnvelope    `json:"map" validate:"omitempty"`
	Enemies     []enemyEnvelope `json:"enemies" validate:"omitempty,dive"`
}

type mapEnvelope struct {
	ASCII    string           `json:"ascii" validate:"required"`
	Entities []entityEnvelope `json:"entities" validate:"omitempty,dive"`
}

type entityEnvelope struct {
	Type string `json:"type" validate:"required,oneof=player enemy treasure door npc item"`
	X    int    `json:"x" validate:"gte=0"`
	Y    int    `json:"y" validate:"gte=0"`
}

type enemyEnvelope struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Class       string `json:"class"`
	Level       int    `json:"level" validate:"gte=0"`
	HP          int    `json:"hp" validate:"gte=0"`
	MaxHP       int    `json:"maxHp" validate:"gte=0"`
	Description string `json:"description"`
	IsDead      bool   `json:"is_dead"`
}

// EnemyUpdate is an enemy the Game Master introduced or changed. An empty ID means a new enemy.
type EnemyUpdate struct {
	ID    string
	Enemy game.Enemy
}

// Response is a Game Master reply the rest of the game can rely on.
type Response struct {
	Narrative   string
	ImagePrompt string
	Map         *game.MapData
	Enemies     []EnemyUpdate

	// Malformed is set when the reply was replaced by the fallback.
	Malformed bool
}

// Fallback is the response used whenever the Game Master cannot be reached or understood.
func Fallback() Response {
	return Response{
		Narrative:   FallbackNarrative,
		ImagePrompt: FallbackImagePrompt,
		Malformed:   true,
	}
}

// ParseResponse extracts the fenced json block from text and validates it.
// Anything that does not match the envelope exactly is an error.
func ParseResponse(text string) (Response, error) {
	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return Response{}, ErrNoJSONBlock
	}

	var env envelope
	err := json.Unmarshal([]byte(m[1]), &env)
	if err != nil {
		return Response{}, fmt.Errorf("%w: decoding json: %w", ErrMalformedResponse, err)
	}

	env.Narrative = strings.TrimSpace(env.Narrative)
	err = validate.Struct(&env)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s", ErrMalformedResponse, describe(err))
	}

	return env.toResponse(), nil
}

func (e *envelope) toResponse() Response {
	r := Response{
		Narrative:   e.Narrative,
		ImagePrompt: strings.TrimSpace(e.ImagePrompt),
	}

	if e.Map != nil {
		r.Map = &game.MapData{ASCII: e.Map.ASCII}
		for _, ent := range e.Map.Entities {
			r.Map.Entities = append(r.Map.Entities, game.MapEntity{Type: ent.Type, X: ent.X, Y: ent.Y})
		}
	}

	for _, en := range e.Enemies {
		r.Enemies = append(r.Enemies, EnemyUpdate{
			ID: strings.TrimSpace(en.ID),
			Enemy: game.Enemy{
				Name:        en.Name,
				Class:       en.Class,
				Level:       en.Level,
				HP:          en.HP,
				MaxHP:       en.MaxHP,
				Description: en.Description,
				IsDead:      en.IsDead || (en.MaxHP > 0 && en.HP == 0),
			},
		})
	}

	return r
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
