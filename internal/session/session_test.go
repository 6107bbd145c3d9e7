package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-rpg/internal/assets"
	"github.com/pixil98/go-rpg/internal/game"
	"github.com/pixil98/go-rpg/internal/gamemaster"
	"github.com/pixil98/go-rpg/internal/storage"
)

var attackPattern = regexp.MustCompile(`^Orc attacks you for [1-5] damage!$`)

var epoch = time.UnixMilli(1700000000000)

type fakeGM struct {
	mu      sync.Mutex
	bodies  []string
	respond func(n int) gamemaster.Response
	started chan struct{}
	release chan struct{}
}

func (f *fakeGM) Respond(ctx context.Context, body string) gamemaster.Response {
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	n := len(f.bodies)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.respond != nil {
		return f.respond(n)
	}
	return gamemaster.Response{Narrative: fmt.Sprintf("narrative %d", n)}
}

func (f *fakeGM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

func (f *fakeGM) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[len(f.bodies)-1]
}

func stateWithOrc() *game.GameState {
	st := game.DefaultGameState()
	st.Enemies = []game.Enemy{{ID: "enemy-orc", Name: "Orc", Class: "Monster", Level: 2, HP: 45, MaxHP: 45}}
	return st
}

func newTestSession(gm GameMaster, opts ...SessionOpt) *Session {
	base := []SessionOpt{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return epoch }),
	}
	return NewSession("test", gm, append(base, opts...)...)
}

func TestSession_SubmitAction(t *testing.T) {
	tests := map[string]struct {
		initial      *game.GameState
		resp         gamemaster.Response
		expBody      string
		expLine      string
		expTurn      TurnState
		expImage     string
		expMalformed bool
	}{
		"attack with an enemy present": {
			initial: stateWithOrc(),
			resp:    gamemaster.Response{Narrative: "You swing your axe at the orc.", ImagePrompt: "An orc reeling"},
			expBody: "Player action: Attack\n" +
				"Current location: The Bloodied Plains\n" +
				"Enemies: Orc\n" +
				"Selected target: None\n" +
				"Enemy roster:\n" +
				"- id=enemy-orc name=Orc hp=45/45\n",
			expLine:  "You swing your axe at the orc.",
			expTurn:  EnemyTurn,
			expImage: "An orc reeling",
		},
		"no enemies": {
			resp: gamemaster.Response{Narrative: "The plains are quiet."},
			expBody: "Player action: Attack\n" +
				"Current location: The Bloodied Plains\n" +
				"Enemies: None\n" +
				"Selected target: None\n",
			expLine:  "The plains are quiet.",
			expTurn:  PlayerTurn,
			expImage: "A vast open plain with red-stained grass and a stormy sky",
		},
		"malformed reply": {
			resp: gamemaster.Fallback(),
			expBody: "Player action: Attack\n" +
				"Current location: The Bloodied Plains\n" +
				"Enemies: None\n" +
				"Selected target: None\n",
			expLine:      "An error occurred while processing your action. Please try again.",
			expTurn:      PlayerTurn,
			expImage:     "A mysterious error has occurred in the game world.",
			expMalformed: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gm := &fakeGM{respond: func(int) gamemaster.Response { return tt.resp }}
			s := newTestSession(gm, WithInitialState(tt.initial))

			out, err := s.SubmitAction(context.Background(), "  Attack ")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "body", gm.lastBody(), tt.expBody)
			testutil.AssertEqual(t, "narrative", out.Narrative, tt.expLine)
			testutil.AssertEqual(t, "malformed", out.Malformed, tt.expMalformed)
			testutil.AssertEqual(t, "newest line", s.BattleLog()[0], tt.expLine)
			testutil.AssertEqual(t, "welcome line", s.BattleLog()[1], "Welcome to your adventure!")
			testutil.AssertEqual(t, "turn", s.Turn(), tt.expTurn)

			snap := s.State()
			testutil.AssertEqual(t, "hp untouched", snap.Party[0].HP, 15)
			testutil.AssertEqual(t, "scene id", snap.CurrentScene.ID, "scene_1700000000000")
			testutil.AssertEqual(t, "scene title", snap.CurrentScene.Title, "The Bloodied Plains")
			testutil.AssertEqual(t, "scene description", snap.CurrentScene.Description, tt.expLine)
			testutil.AssertEqual(t, "scene image prompt", snap.CurrentScene.ImagePrompt, tt.expImage)
			testutil.AssertEqual(t, "game log", snap.GameLog[len(snap.GameLog)-1], tt.expLine)

			if tt.expTurn == EnemyTurn {
				testutil.AssertEqual(t, "enemy turn at", out.EnemyTurnAt, epoch.Add(DefaultEnemyTurnDelay))
			} else {
				testutil.AssertEqual(t, "enemy turn at", out.EnemyTurnAt.IsZero(), true)
			}
		})
	}
}

func TestSession_SubmitAction_Empty(t *testing.T) {
	gm := &fakeGM{}
	s := newTestSession(gm)

	_, err := s.SubmitAction(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyAction) {
		t.Fatalf("expected ErrEmptyAction, got %v", err)
	}
	testutil.AssertEqual(t, "requests", gm.calls(), 0)
}

func TestSession_SubmitAction_RejectsWhileResolving(t *testing.T) {
	gm := &fakeGM{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(gm)

	done := make(chan error, 1)
	go func() {
		_, err := s.SubmitAction(context.Background(), "Attack")
		done <- err
	}()

	<-gm.started
	testutil.AssertEqual(t, "turn while resolving", s.Turn(), ResolvingAction)

	_, err := s.SubmitAction(context.Background(), "Attack again")
	if !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress, got %v", err)
	}

	close(gm.release)
	err = <-done
	if err != nil {
		t.Fatalf("first action failed: %v", err)
	}

	testutil.AssertEqual(t, "requests", gm.calls(), 1)
	testutil.AssertEqual(t, "turn after", s.Turn(), PlayerTurn)
}

func TestSession_EnemyTurn(t *testing.T) {
	gm := &fakeGM{}
	s := newTestSession(gm, WithInitialState(stateWithOrc()))
	ctx := context.Background()

	out, err := s.SubmitAction(ctx, "Attack")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.SubmitAction(ctx, "Attack again")
	if !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress during enemy turn, got %v", err)
	}

	err = s.Tick(ctx, out.EnemyTurnAt.Add(-time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "turn before due", s.Turn(), EnemyTurn)
	testutil.AssertEqual(t, "log before due", len(s.BattleLog()), 2)

	err = s.Tick(ctx, out.EnemyTurnAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "turn after due", s.Turn(), PlayerTurn)
	testutil.AssertEqual(t, "log after due", len(s.BattleLog()), 3)

	line := s.BattleLog()[0]
	if !attackPattern.MatchString(line) {
		t.Errorf("unexpected attack line %q", line)
	}
	testutil.AssertEqual(t, "hp untouched", s.State().Party[0].HP, 15)

	err = s.Tick(ctx, out.EnemyTurnAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "no second attack", len(s.BattleLog()), 3)

	_, err = s.SubmitAction(ctx, "Attack again")
	if err != nil {
		t.Fatalf("expected player turn, got %v", err)
	}
}

func TestSession_EnemyTurn_Deterministic(t *testing.T) {
	run := func() string {
		s := newTestSession(&fakeGM{}, WithInitialState(stateWithOrc()))
		out, err := s.SubmitAction(context.Background(), "Attack")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = s.Tick(context.Background(), out.EnemyTurnAt)
		return s.BattleLog()[0]
	}

	testutil.AssertEqual(t, "same seed same attack", run(), run())
}

func TestSession_BattleLogBounded(t *testing.T) {
	gm := &fakeGM{}
	s := newTestSession(gm)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := s.SubmitAction(ctx, "Look around")
		if err != nil {
			t.Fatalf("action %d: %v", i, err)
		}
	}

	lines := s.BattleLog()
	testutil.AssertEqual(t, "log size", len(lines), 50)
	testutil.AssertEqual(t, "newest", lines[0], "narrative 60")
	testutil.AssertEqual(t, "oldest", lines[49], "narrative 11")
	testutil.AssertEqual(t, "game log unbounded", len(s.State().GameLog), 62)
}

func TestSession_SelectTarget(t *testing.T) {
	st := stateWithOrc()
	st.Enemies = append(st.Enemies, game.Enemy{ID: "enemy-rat", Name: "Rat", IsDead: true})

	tests := map[string]struct {
		id        string
		expErr    error
		expTarget string
	}{
		"living enemy": {
			id:        "enemy-orc",
			expTarget: "enemy-orc",
		},
		"dead enemy": {
			id:     "enemy-rat",
			expErr: game.ErrEnemyNotFound,
		},
		"unknown enemy": {
			id:     "enemy-missing",
			expErr: game.ErrEnemyNotFound,
		},
		"clear": {
			id: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestSession(&fakeGM{}, WithInitialState(st))

			err := s.SelectTarget(tt.id)
			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "target", s.Target(), tt.expTarget)
		})
	}
}

func TestSession_TargetInPrompt(t *testing.T) {
	gm := &fakeGM{}
	s := newTestSession(gm, WithInitialState(stateWithOrc()))

	err := s.SelectTarget("enemy-orc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.SubmitAction(context.Background(), "Attack")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gm.lastBody(), "Selected target: Orc\n") {
		t.Errorf("expected target in prompt, got %q", gm.lastBody())
	}
}

func TestSession_EnemyUpdates(t *testing.T) {
	gm := &fakeGM{respond: func(n int) gamemaster.Response {
		if n == 1 {
			return gamemaster.Response{
				Narrative: "A goblin joins the fight.",
				Enemies:   []gamemaster.EnemyUpdate{{Enemy: game.Enemy{Name: "Goblin", HP: 7, MaxHP: 7}}},
			}
		}
		return gamemaster.Response{
			Narrative: "The orc falls.",
			Enemies: []gamemaster.EnemyUpdate{
				{ID: "enemy-orc", Enemy: game.Enemy{Name: "Orc", Class: "Monster", Level: 2, HP: 0, MaxHP: 45, IsDead: true}},
			},
		}
	}}
	s := newTestSession(gm, WithInitialState(stateWithOrc()))
	ctx := context.Background()

	err := s.SelectTarget("enemy-orc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := s.SubmitAction(ctx, "Look")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = s.Tick(ctx, out.EnemyTurnAt)

	snap := s.State()
	testutil.AssertEqual(t, "enemy count", len(snap.Enemies), 2)
	testutil.AssertEqual(t, "new enemy", snap.Enemies[1].Name, "Goblin")
	if !strings.HasPrefix(snap.Enemies[1].ID, "enemy-1700000000000-") {
		t.Errorf("unexpected enemy id %q", snap.Enemies[1].ID)
	}

	_, err = s.SubmitAction(ctx, "Attack the orc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orc, ok := s.State().Enemy("enemy-orc")
	testutil.AssertEqual(t, "orc found", ok, true)
	testutil.AssertEqual(t, "orc dead", orc.IsDead, true)
	testutil.AssertEqual(t, "orc hp", orc.HP, 0)
	testutil.AssertEqual(t, "target cleared", s.Target(), "")
	testutil.AssertEqual(t, "goblin still fighting", s.Turn(), EnemyTurn)
}

func TestSession_Start(t *testing.T) {
	gm := &fakeGM{respond: func(int) gamemaster.Response {
		return gamemaster.Response{Narrative: "You wake in a ruined tower."}
	}}
	s := newTestSession(gm)

	out, err := s.Start(context.Background(), " Lyra ", "Mage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "narrative", out.Narrative, "You wake in a ruined tower.")
	if !strings.Contains(gm.lastBody(), "The player character is a Mage named Lyra.") {
		t.Errorf("unexpected opening prompt %q", gm.lastBody())
	}

	snap := s.State()
	testutil.AssertEqual(t, "party size", len(snap.Party), 1)
	testutil.AssertEqual(t, "name", snap.Party[0].Name, "Lyra")
	testutil.AssertEqual(t, "class", snap.Party[0].Class, "Mage")
	testutil.AssertEqual(t, "intro entry", snap.GameLog[len(snap.GameLog)-2], "Your adventure begins with Lyra the Mage!")
	testutil.AssertEqual(t, "newest line", s.BattleLog()[0], "You wake in a ruined tower.")
}

func TestSession_Start_InvalidCharacter(t *testing.T) {
	gm := &fakeGM{}
	s := newTestSession(gm)

	_, err := s.Start(context.Background(), "", "Mage")
	testutil.AssertErrorContains(t, err, "name is required")
	testutil.AssertEqual(t, "requests", gm.calls(), 0)
	testutil.AssertEqual(t, "turn", s.Turn(), PlayerTurn)
}

func TestSession_UseItem(t *testing.T) {
	gm := &fakeGM{}
	s := newTestSession(gm)

	_, err := s.UseItem(context.Background(), "potion")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(gm.lastBody(), "Player action: Use Health Potion\n") {
		t.Errorf("unexpected body %q", gm.lastBody())
	}

	_, err = s.UseItem(context.Background(), "sword")
	if !errors.Is(err, game.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestSession_Close(t *testing.T) {
	gm := &fakeGM{}
	s := newTestSession(gm, WithInitialState(stateWithOrc()))
	ctx := context.Background()

	out, err := s.SubmitAction(ctx, "Attack")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Close()

	_ = s.Tick(ctx, out.EnemyTurnAt)
	testutil.AssertEqual(t, "no attack after close", len(s.BattleLog()), 2)

	_, err = s.SubmitAction(ctx, "Attack")
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSession_Publishes(t *testing.T) {
	var mu sync.Mutex
	var got []string
	pub := PublisherFunc(func(id string, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, id+": "+string(data))
		return nil
	})

	s := newTestSession(&fakeGM{}, WithPublisher(pub), WithInitialState(stateWithOrc()))
	out, err := s.SubmitAction(context.Background(), "Attack")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = s.Tick(context.Background(), out.EnemyTurnAt)

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, "published", len(got), 2)
	testutil.AssertEqual(t, "narrative", got[0], "test: narrative 1")
	if !strings.HasPrefix(got[1], "test: Orc attacks you for ") {
		t.Errorf("unexpected attack message %q", got[1])
	}
}

type fakeAssets struct {
	mu   sync.Mutex
	reqs []assets.Request
}

func (f *fakeAssets) GetAsset(ctx context.Context, id string, t storage.AssetType, prompt string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, assets.Request{ID: id, Type: t, Prompt: prompt})
	return "/assets/" + t.String() + "/" + id + ".jpg"
}

func (f *fakeAssets) Preload(ctx context.Context, reqs []assets.Request) []string {
	uris := make([]string, len(reqs))
	for i, r := range reqs {
		uris[i] = f.GetAsset(ctx, r.ID, r.Type, r.Prompt)
	}
	return uris
}

func TestSession_SceneImage(t *testing.T) {
	a := &fakeAssets{}
	s := newTestSession(&fakeGM{}, WithAssets(a))

	uri, err := s.SceneImage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "uri", uri, "/assets/scene/scene_1.jpg")
	testutil.AssertEqual(t, "recorded", s.State().CurrentSceneImage, uri)
	testutil.AssertEqual(t, "prompt", a.reqs[0].Prompt, "A vast open plain with red-stained grass and a stormy sky")
}

func TestSession_SceneImage_NoAssets(t *testing.T) {
	s := newTestSession(&fakeGM{})

	uri, err := s.SceneImage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "uri", uri, assets.PlaceholderURI)
}

func TestSession_RefreshAvatars(t *testing.T) {
	a := &fakeAssets{}
	s := newTestSession(&fakeGM{}, WithAssets(a), WithInitialState(stateWithOrc()))

	err := s.RefreshAvatars(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.State()
	testutil.AssertEqual(t, "character avatar", snap.Party[0].AvatarURL, "/assets/character/character_1.jpg")
	testutil.AssertEqual(t, "enemy avatar", snap.Enemies[0].AvatarURL, "/assets/enemy/enemy_enemy-orc.jpg")
	testutil.AssertEqual(t, "requests", len(a.reqs), 2)
	if !strings.HasPrefix(a.reqs[1].Prompt, "A fantasy RPG enemy character named Orc, a dangerous Monster.") {
		t.Errorf("unexpected enemy prompt %q", a.reqs[1].Prompt)
	}
}

func TestSession_RefreshAvatars_NoCharacter(t *testing.T) {
	s := newTestSession(&fakeGM{}, WithAssets(&fakeAssets{}), WithInitialState(&game.GameState{}))

	err := s.RefreshAvatars(context.Background())
	if !errors.Is(err, game.ErrNoCharacter) {
		t.Fatalf("expected ErrNoCharacter, got %v", err)
	}
}
