package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-rpg/internal/assets"
	"github.com/pixil98/go-rpg/internal/combat"
	"github.com/pixil98/go-rpg/internal/game"
	"github.com/pixil98/go-rpg/internal/gamemaster"
	"github.com/pixil98/go-rpg/internal/storage"
)

const welcomeLine = "Welcome to your adventure!"

// GameMaster answers a rendered prompt. It never fails; unusable replies come
// back as gamemaster.Fallback.
type GameMaster interface {
	Respond(ctx context.Context, body string) gamemaster.Response
}

// Assets resolves image URIs for scenes and avatars.
type Assets interface {
	GetAsset(ctx context.Context, assetID string, t storage.AssetType, prompt string) string
	Preload(ctx context.Context, reqs []assets.Request) []string
}

// Outcome is what a resolved action produced.
type Outcome struct {
	Narrative   string
	ImagePrompt string
	Malformed   bool

	// EnemyTurnAt is when the enemies strike back. Zero when no enemy is alive.
	EnemyTurnAt time.Time
}

// Session is one player's game: its state, its battle log and its turn cycle.
type Session struct {
	id      string
	store   *game.Store
	log     *game.BattleLog
	gm      GameMaster
	assets  Assets
	pub     Publisher
	rng     *rand.Rand
	now     func() time.Time
	initial *game.GameState

	enemyTurnDelay time.Duration
	logSize        int

	mu       sync.Mutex
	turn     TurnState
	enemyDue time.Time
	target   string
	closed   bool
}

func NewSession(id string, gm GameMaster, opts ...SessionOpt) *Session {
	s := &Session{
		id:             id,
		gm:             gm,
		pub:            nopPublisher{},
		rng:            rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:            time.Now,
		enemyTurnDelay: DefaultEnemyTurnDelay,
		logSize:        game.DefaultBattleLogSize,
		turn:           PlayerTurn,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.store = game.NewStore(s.initial, game.WithClock(s.now))
	s.log = game.NewBattleLog(s.logSize, welcomeLine)

	return s
}

func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the game state.
func (s *Session) State() *game.GameState {
	return s.store.Snapshot()
}

// BattleLog returns the battle log, newest first.
func (s *Session) BattleLog() []string {
	return s.log.Lines()
}

func (s *Session) Turn() TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Target returns the selected enemy id, if any.
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SelectTarget picks the living enemy the player is focused on. An empty id clears the selection.
func (s *Session) SelectTarget(enemyID string) error {
	if enemyID != "" {
		e, ok := s.store.Snapshot().Enemy(enemyID)
		if !ok || !e.IsAlive() {
			return fmt.Errorf("selecting %q: %w", enemyID, game.ErrEnemyNotFound)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = enemyID
	return nil
}

// Start creates the controlled character and asks the Game Master for an opening scene.
func (s *Session) Start(ctx context.Context, name, class string) (Outcome, error) {
	c := game.NewCharacter(uuid.NewString(), name, class)
	err := c.Validate()
	if err != nil {
		return Outcome{}, fmt.Errorf("creating character: %w", err)
	}

	err = s.beginTurn()
	if err != nil {
		return Outcome{}, err
	}

	s.store.SetPlayerCharacter(c)
	s.store.AddGameLogEntry(fmt.Sprintf("Your adventure begins with %s the %s!", c.Name, c.Class))

	body, err := gamemaster.OpeningPrompt{Name: c.Name, Class: c.Class}.Render()
	if err != nil {
		s.endTurn(false)
		return Outcome{}, err
	}

	return s.resolve(ctx, body), nil
}

// SubmitAction sends the player's action to the Game Master and applies the
// reply. It returns ErrTurnInProgress unless it is the player's turn; in that
// case no request is made.
func (s *Session) SubmitAction(ctx context.Context, action string) (Outcome, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return Outcome{}, ErrEmptyAction
	}

	err := s.beginTurn()
	if err != nil {
		return Outcome{}, err
	}

	body, err := s.actionPrompt(action).Render()
	if err != nil {
		s.endTurn(false)
		return Outcome{}, err
	}

	return s.resolve(ctx, body), nil
}

// UseItem turns using an inventory item into an action.
func (s *Session) UseItem(ctx context.Context, itemID string) (Outcome, error) {
	it, ok := game.FindItem(s.store.Snapshot().Inventory, itemID)
	if !ok {
		return Outcome{}, fmt.Errorf("using %q: %w", itemID, game.ErrItemNotFound)
	}
	return s.SubmitAction(ctx, "Use "+it.Name)
}

func (s *Session) beginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.turn != PlayerTurn {
		return ErrTurnInProgress
	}
	s.turn = ResolvingAction
	return nil
}

// endTurn hands the turn to the enemies when any are alive, otherwise back to the player.
func (s *Session) endTurn(enemiesAlive bool) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return time.Time{}
	}

	if !enemiesAlive {
		s.turn = PlayerTurn
		s.enemyDue = time.Time{}
		return time.Time{}
	}

	s.turn = EnemyTurn
	s.enemyDue = s.now().Add(s.enemyTurnDelay)
	return s.enemyDue
}

func (s *Session) actionPrompt(action string) gamemaster.ActionPrompt {
	snap := s.store.Snapshot()

	p := gamemaster.ActionPrompt{
		Action:   action,
		Location: snap.CurrentScene.Title,
	}

	for _, e := range snap.Enemies {
		p.Roster = append(p.Roster, gamemaster.RosterEntry{
			ID:     e.ID,
			Name:   e.Name,
			HP:     e.HP,
			MaxHP:  e.MaxHP,
			IsDead: e.IsDead,
		})
		if e.IsAlive() {
			p.Enemies = append(p.Enemies, e.Name)
		}
	}

	if e, ok := snap.Enemy(s.Target()); ok {
		p.Target = e.Name
	}

	return p
}

func (s *Session) resolve(ctx context.Context, body string) Outcome {
	resp := s.gm.Respond(ctx, body)
	s.apply(ctx, resp)

	alive := len(game.LivingEnemies(s.store.Snapshot().Enemies)) > 0
	due := s.endTurn(alive)

	return Outcome{
		Narrative:   resp.Narrative,
		ImagePrompt: resp.ImagePrompt,
		Malformed:   resp.Malformed,
		EnemyTurnAt: due,
	}
}

func (s *Session) apply(ctx context.Context, resp gamemaster.Response) {
	s.addLine(ctx, resp.Narrative)
	s.store.AddGameLogEntry(resp.Narrative)

	scene := s.store.Snapshot().CurrentScene
	scene.ID = fmt.Sprintf("scene_%d", s.now().UnixMilli())
	scene.Description = resp.Narrative
	if resp.ImagePrompt != "" {
		scene.ImagePrompt = resp.ImagePrompt
	}
	s.store.SetScene(scene)

	if resp.Map != nil {
		s.store.SetMap(resp.Map)
	}

	for _, u := range resp.Enemies {
		s.applyEnemy(ctx, u)
	}
}

func (s *Session) applyEnemy(ctx context.Context, u gamemaster.EnemyUpdate) {
	if _, ok := s.store.Snapshot().Enemy(u.ID); !ok {
		id := s.store.AddEnemy(u.Enemy)
		slog.DebugContext(ctx, "enemy appeared", "session", s.id, "enemy", id, "name", u.Enemy.Name)
		return
	}

	e := u.Enemy
	s.store.UpdateEnemy(u.ID, game.EnemyPatch{
		Name:        &e.Name,
		Class:       &e.Class,
		Level:       &e.Level,
		HP:          &e.HP,
		MaxHP:       &e.MaxHP,
		Description: &e.Description,
		IsDead:      &e.IsDead,
	})

	if e.IsDead {
		s.mu.Lock()
		if s.target == u.ID {
			s.target = ""
		}
		s.mu.Unlock()
	}
}

// Tick resolves a pending enemy turn once it is due. A living enemy chosen at
// random attacks for 1 to 5 damage; the attack is only reported, the
// character's hit points are left alone.
func (s *Session) Tick(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	if s.closed || s.turn != EnemyTurn || now.Before(s.enemyDue) {
		s.mu.Unlock()
		return nil
	}
	attack, ok := combat.EnemyTurn(s.rng, s.store.Snapshot().Enemies)
	s.turn = PlayerTurn
	s.enemyDue = time.Time{}
	s.mu.Unlock()

	if ok {
		s.addLine(ctx, attack.Message())
	}
	return nil
}

// SceneImage resolves and records the image for the current scene.
func (s *Session) SceneImage(ctx context.Context) (string, error) {
	if s.assets == nil {
		return assets.PlaceholderURI, nil
	}

	scene := s.store.Snapshot().CurrentScene
	prompt := scene.ImagePrompt
	if prompt == "" {
		var err error
		prompt, err = gamemaster.SceneAssetPrompt(scene.Description)
		if err != nil {
			return "", err
		}
	}

	uri := s.assets.GetAsset(ctx, "scene_"+scene.ID, storage.AssetTypeScene, prompt)
	s.store.SetSceneImage(uri)
	return uri, nil
}

// RefreshAvatars resolves portraits for the controlled character and every enemy.
func (s *Session) RefreshAvatars(ctx context.Context) error {
	if s.assets == nil {
		return nil
	}

	snap := s.store.Snapshot()
	c, ok := snap.Character()
	if !ok {
		return game.ErrNoCharacter
	}

	var reqs []assets.Request
	prompt, err := gamemaster.AvatarPrompt{Kind: "character", Name: c.Name, Level: c.Level, Description: c.Class}.Render()
	if err != nil {
		return err
	}
	reqs = append(reqs, assets.Request{ID: "character_" + c.ID, Type: storage.AssetTypeCharacter, Prompt: prompt})

	for _, e := range snap.Enemies {
		prompt, err := gamemaster.AvatarPrompt{Kind: "enemy", Name: e.Name, Level: e.Level, Description: e.Class}.Render()
		if err != nil {
			return err
		}
		reqs = append(reqs, assets.Request{ID: "enemy_" + e.ID, Type: storage.AssetTypeEnemy, Prompt: prompt})
	}

	uris := s.assets.Preload(ctx, reqs)

	s.store.UpdateCharacter(game.CharacterPatch{AvatarURL: game.Ptr(uris[0])})
	for i, e := range snap.Enemies {
		s.store.UpdateEnemy(e.ID, game.EnemyPatch{AvatarURL: game.Ptr(uris[i+1])})
	}
	return nil
}

// Close ends the session. A pending enemy turn is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) addLine(ctx context.Context, line string) {
	s.log.Push(line)

	err := s.pub.PublishToSession(s.id, []byte(line))
	if err != nil {
		slog.WarnContext(ctx, "publishing battle log line", "session", s.id, "error", err)
	}
}
