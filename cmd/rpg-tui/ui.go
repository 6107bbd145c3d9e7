package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pixil98/go-rpg/internal/display"
	"github.com/pixil98/go-rpg/internal/game"
	"github.com/pixil98/go-rpg/internal/session"
)

var classes = []string{"Barbarian", "Cleric", "Fighter", "Mage", "Ranger", "Rogue"}

const helpText = "Type an action for the Game Master, or: target <n>, use <item>, image, portraits, help, quit"

type ui struct {
	app     *tview.Application
	pages   *tview.Pages
	form    *tview.Form
	log     *tview.TextView
	status  *tview.TextView
	input   *tview.InputField
	session *session.Session
}

func newUI() *ui {
	u := &ui{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		form:   tview.NewForm(),
		log:    tview.NewTextView(),
		status: tview.NewTextView(),
		input:  tview.NewInputField(),
	}

	u.log.SetScrollable(true).SetWrap(true).SetWordWrap(true)
	u.log.SetBorder(true).SetTitle(" Battle Log ")
	u.status.SetWrap(false)
	u.status.SetBorder(true).SetTitle(" Status ")
	u.input.SetLabel("> ").SetFieldBackgroundColor(tcell.ColorDefault)

	u.form.AddInputField("Name", "", 20, nil, nil).
		AddDropDown("Class", classes, 0, nil).
		AddButton("Begin", nil).
		AddButton("Quit", u.app.Stop)
	u.form.SetBorder(true).SetTitle(" Create your character ")

	body := tview.NewFlex().
		AddItem(u.log, 0, 2, false).
		AddItem(u.status, 0, 1, false)
	play := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(u.input, 1, 0, true)

	u.pages.AddPage("create", u.form, true, true).
		AddPage("game", play, true, false)

	return u
}

func (u *ui) run(ctx context.Context) error {
	u.form.GetButton(0).SetSelectedFunc(func() {
		name := u.form.GetFormItemByLabel("Name").(*tview.InputField).GetText()
		_, class := u.form.GetFormItemByLabel("Class").(*tview.DropDown).GetCurrentOption()
		u.pages.SwitchToPage("game")
		u.app.SetFocus(u.input)
		go u.begin(ctx, name, class)
	})

	u.input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			line := strings.TrimSpace(u.input.GetText())
			u.input.SetText("")
			if line != "" {
				go u.handle(ctx, line)
			}
		case tcell.KeyEscape:
			u.app.Stop()
		}
	})

	go func() {
		<-ctx.Done()
		u.app.Stop()
	}()

	return u.app.SetRoot(u.pages, true).EnableMouse(true).Run()
}

func (u *ui) begin(ctx context.Context, name, class string) {
	u.publish(u.session.ID(), []byte("The Game Master is setting the scene..."))
	_, err := u.session.Start(ctx, display.Title(strings.TrimSpace(name)), class)
	if err != nil {
		u.notice(err.Error())
		u.app.QueueUpdateDraw(func() {
			u.pages.SwitchToPage("create")
		})
		return
	}
	u.notice(helpText)
}

func (u *ui) handle(ctx context.Context, line string) {
	cmd, arg := parseCommand(line)

	var err error
	switch cmd {
	case "quit":
		u.app.Stop()
		return
	case "help":
		u.notice(helpText)
	case "target":
		err = u.target(arg)
	case "use":
		_, err = u.session.UseItem(ctx, strings.ToLower(arg))
	case "image":
		var uri string
		uri, err = u.session.SceneImage(ctx)
		if err == nil {
			u.notice("Scene image: " + uri)
		}
	case "portraits":
		err = u.session.RefreshAvatars(ctx)
		if err == nil {
			u.notice("Portraits are ready.")
		}
	default:
		_, err = u.session.SubmitAction(ctx, line)
	}

	switch {
	case errors.Is(err, session.ErrTurnInProgress):
		u.notice("Wait for your turn.")
	case errors.Is(err, game.ErrItemNotFound):
		u.notice("You don't have that.")
	case errors.Is(err, game.ErrEnemyNotFound):
		u.notice("There is no such enemy.")
	case err != nil:
		slog.ErrorContext(ctx, "handling input", "input", line, "error", err)
		u.notice(err.Error())
	}
	u.refresh()
}

func (u *ui) target(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		u.notice("Target which enemy? Use the number shown in the status panel.")
		return nil
	}
	if n == 0 {
		return u.session.SelectTarget("")
	}

	enemies := u.session.State().Enemies
	if n > len(enemies) {
		return game.ErrEnemyNotFound
	}
	return u.session.SelectTarget(enemies[n-1].ID)
}

// publish receives battle log lines from the session.
func (u *ui) publish(_ string, data []byte) error {
	u.app.QueueUpdateDraw(func() {
		fmt.Fprintf(u.log, "%s\n\n", display.Wrap(string(data)))
		u.log.ScrollToEnd()
		u.status.SetText(statusText(u.session))
	})
	return nil
}

func (u *ui) notice(msg string) {
	u.app.QueueUpdateDraw(func() {
		fmt.Fprintf(u.log, "* %s\n\n", msg)
		u.log.ScrollToEnd()
	})
}

func (u *ui) refresh() {
	u.app.QueueUpdateDraw(func() {
		u.status.SetText(statusText(u.session))
	})
}

// parseCommand splits line into a command and its argument. Lines that are
// not a known command come back with an empty command.
func parseCommand(line string) (string, string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}

	cmd := strings.ToLower(fields[0])
	switch cmd {
	case "target", "use":
		if len(fields) == 2 {
			return cmd, fields[1]
		}
	case "quit", "help", "image", "portraits":
		if len(fields) == 1 {
			return cmd, ""
		}
	}
	return "", ""
}

func statusText(s *session.Session) string {
	snap := s.State()

	var sb strings.Builder
	if c, ok := snap.Character(); ok {
		sb.WriteString(display.CharacterSheet(c) + "\n")
	}
	sb.WriteString(snap.Location.Current + "\n\n")
	sb.WriteString(display.EnemyList(snap.Enemies, s.Target()) + "\n")
	sb.WriteString(display.Inventory(snap.Inventory) + "\n")
	if m := display.Map(snap.CurrentMap); m != "" {
		sb.WriteString(m)
	}
	sb.WriteString("\nTurn: " + s.Turn().String())
	return sb.String()
}
