package player

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pixil98/go-rpg/internal/display"
)

const (
	maxNameTries = 5
	maxClassLen  = 30
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z '-]{0,19}$`)

var suggestedClasses = []string{"Barbarian", "Cleric", "Fighter", "Mage", "Ranger", "Rogue"}

// createCharacter asks for a name and class until the player confirms them.
func createCharacter(br *bufio.Reader, w io.Writer) (string, string, error) {
	for {
		name, err := Prompt(br, w, "What is your name, adventurer? ", WithMaxTries(maxNameTries), WithValidator(
			func(s string) (bool, string) {
				if !namePattern.MatchString(s) {
					return false, "Names are letters only, up to 20 characters.\n"
				}
				return true, ""
			},
		))
		if err != nil {
			return "", "", fmt.Errorf("reading name: %w", err)
		}

		_, err = fmt.Fprintf(w, "Classes include %s. Or invent your own.\n", strings.Join(suggestedClasses, ", "))
		if err != nil {
			return "", "", err
		}

		class, err := Prompt(br, w, "What is your class? ", WithMaxTries(maxNameTries), WithValidator(
			func(s string) (bool, string) {
				if s == "" || len(s) > maxClassLen {
					return false, fmt.Sprintf("Enter a class of at most %d characters.\n", maxClassLen)
				}
				return true, ""
			},
		))
		if err != nil {
			return "", "", fmt.Errorf("reading class: %w", err)
		}

		name, class = display.Title(name), display.Title(class)
		ok, err := PromptYN(br, w, fmt.Sprintf("Begin as %s the %s? [y/n] ", name, class))
		if err != nil {
			return "", "", err
		}
		if ok {
			return name, class, nil
		}
	}
}
