package player

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pixil98/go-rpg/internal/display"
	"github.com/pixil98/go-rpg/internal/game"
	"github.com/pixil98/go-rpg/internal/session"
)

const defaultLogLines = 10

type command struct {
	name string
	args string
	help string

	// nargs is the exact argument count. Input with a different count is
	// treated as an action, so "look" is a command but "look around" is not.
	nargs int
	run   func(ctx context.Context, p *Player, args []string) error
}

// commandList and commandIndex are filled in init since help lists the commands.
var (
	commandList  []command
	commandIndex map[string]command
)

func init() {
	commandList = []command{
		{name: "look", help: "describe where you are", run: cmdLook},
		{name: "status", help: "show your character sheet", run: cmdStatus},
		{name: "enemies", help: "list the enemies in sight", run: cmdEnemies},
		{name: "target", args: "<n>", nargs: 1, help: "focus on enemy number n, 0 to clear", run: cmdTarget},
		{name: "map", help: "show the map", run: cmdMap},
		{name: "log", help: "show the most recent battle log", run: cmdLog},
		{name: "inventory", help: "list what you carry", run: cmdInventory},
		{name: "use", args: "<item>", nargs: 1, help: "use an item from your inventory", run: cmdUse},
		{name: "image", help: "show where the scene image is stored", run: cmdImage},
		{name: "portraits", help: "generate portraits for you and your foes", run: cmdPortraits},
		{name: "help", help: "show this help", run: cmdHelp},
		{name: "quit", help: "leave the game", run: cmdQuit},
	}

	commandIndex = make(map[string]command, len(commandList))
	for _, c := range commandList {
		commandIndex[c.name] = c
	}
}

// errQuit ends the session loop without an error.
var errQuit = errors.New("quit")

// exec runs line as a command, or as an action for the Game Master when it is not one.
func (p *Player) exec(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	if c, ok := commandIndex[strings.ToLower(parts[0])]; ok && len(parts)-1 == c.nargs {
		return c.run(ctx, p, parts[1:])
	}

	return p.act(ctx, func() (session.Outcome, error) {
		return p.session.SubmitAction(ctx, line)
	})
}

func (p *Player) act(ctx context.Context, fn func() (session.Outcome, error)) error {
	_, err := fn()
	switch {
	case errors.Is(err, session.ErrTurnInProgress):
		return NewUserError("Wait for your turn.")
	case errors.Is(err, game.ErrItemNotFound):
		return NewUserError("You don't have that.")
	case err != nil:
		return err
	}
	return nil
}

func cmdLook(ctx context.Context, p *Player, args []string) error {
	snap := p.session.State()

	var sb strings.Builder
	sb.WriteString(display.Capitalize(snap.Location.Current) + "\n")
	sb.WriteString(display.Wrap(snap.CurrentScene.Description) + "\n")
	if alive := game.LivingEnemies(snap.Enemies); len(alive) > 0 {
		names := make([]string, 0, len(alive))
		for _, e := range alive {
			names = append(names, display.Title(e.Name))
		}
		sb.WriteString("Enemies: " + strings.Join(names, ", ") + "\n")
	}
	return p.writeLine(sb.String())
}

func cmdStatus(ctx context.Context, p *Player, args []string) error {
	c, ok := p.session.State().Character()
	if !ok {
		return NewUserError("You have no character.")
	}
	return p.writeLine(display.CharacterSheet(c))
}

func cmdEnemies(ctx context.Context, p *Player, args []string) error {
	return p.writeLine(display.EnemyList(p.session.State().Enemies, p.session.Target()))
}

func cmdTarget(ctx context.Context, p *Player, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return NewUserError("Target which enemy? Use the number from 'enemies'.")
	}

	if n == 0 {
		_ = p.session.SelectTarget("")
		return p.writeLine("Target cleared.")
	}

	enemies := p.session.State().Enemies
	if n < 1 || n > len(enemies) {
		return NewUserError("There is no such enemy.")
	}

	e := enemies[n-1]
	err = p.session.SelectTarget(e.ID)
	if errors.Is(err, game.ErrEnemyNotFound) {
		return NewUserError(fmt.Sprintf("%s cannot be targeted.", display.Title(e.Name)))
	}
	if err != nil {
		return err
	}
	return p.writeLine(fmt.Sprintf("You focus on %s.", display.Title(e.Name)))
}

func cmdMap(ctx context.Context, p *Player, args []string) error {
	m := display.Map(p.session.State().CurrentMap)
	if m == "" {
		return NewUserError("You have no map of this place.")
	}
	return p.writeLine(m)
}

func cmdLog(ctx context.Context, p *Player, args []string) error {
	lines := p.session.BattleLog()
	return p.writeLine(display.Lines(lines[:min(defaultLogLines, len(lines))]))
}

func cmdInventory(ctx context.Context, p *Player, args []string) error {
	return p.writeLine(display.Inventory(p.session.State().Inventory))
}

func cmdUse(ctx context.Context, p *Player, args []string) error {
	return p.act(ctx, func() (session.Outcome, error) {
		return p.session.UseItem(ctx, strings.ToLower(args[0]))
	})
}

func cmdImage(ctx context.Context, p *Player, args []string) error {
	uri, err := p.session.SceneImage(ctx)
	if err != nil {
		return err
	}
	return p.writeLine("Scene image: " + uri)
}

func cmdPortraits(ctx context.Context, p *Player, args []string) error {
	err := p.session.RefreshAvatars(ctx)
	if errors.Is(err, game.ErrNoCharacter) {
		return NewUserError("You have no character.")
	}
	if err != nil {
		return err
	}

	snap := p.session.State()
	var sb strings.Builder
	for _, c := range snap.Party {
		fmt.Fprintf(&sb, "%s: %s\n", c.Name, c.AvatarURL)
	}
	for _, e := range snap.Enemies {
		fmt.Fprintf(&sb, "%s: %s\n", e.Name, e.AvatarURL)
	}
	return p.writeLine(sb.String())
}

func cmdHelp(ctx context.Context, p *Player, args []string) error {
	var sb strings.Builder
	sb.WriteString("Anything that is not a command is an action for the Game Master.\n")
	for _, c := range commandList {
		fmt.Fprintf(&sb, "  %-18s %s\n", strings.TrimSpace(c.name+" "+c.args), c.help)
	}
	return p.writeLine(sb.String())
}

func cmdQuit(ctx context.Context, p *Player, args []string) error {
	return errQuit
}
