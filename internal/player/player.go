package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pixil98/go-rpg/internal/session"
)

// Player connects one terminal to one game session.
type Player struct {
	in      *bufio.Reader
	out     io.Writer
	session *session.Session

	msgs chan []byte
}

func (p *Player) Play(ctx context.Context) error {
	// Start goroutine to read input lines into a channel
	inputChan := make(chan string)
	inputErrChan := make(chan error, 1)
	go func() {
		defer close(inputChan)
		for {
			line, err := p.in.ReadString('\n')
			if line != "" {
				select {
				case inputChan <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					inputErrChan <- err
				}
				return
			}
		}
	}()

	err := p.exec(ctx, "look")
	if err != nil {
		return fmt.Errorf("initial look failed: %w", err)
	}
	err = p.prompt()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg := <-p.msgs:
			err = p.writeLine("\n" + string(msg))
			if err != nil {
				return err
			}
			err = p.prompt()
			if err != nil {
				return err
			}

		case line, ok := <-inputChan:
			if !ok {
				select {
				case err := <-inputErrChan:
					return err
				default:
					return nil
				}
			}

			line = strings.TrimSpace(line)
			if line == "" {
				err = p.prompt()
				if err != nil {
					return err
				}
				continue
			}

			err = p.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return p.farewell()
			}
			if err != nil {
				var userErr *UserError
				if !errors.As(err, &userErr) {
					return fmt.Errorf("command execution failed: %w", err)
				}
				err = p.writeLine(userErr.Message)
				if err != nil {
					return err
				}
			}

			err = p.drain()
			if err != nil {
				return err
			}
			err = p.prompt()
			if err != nil {
				return err
			}
		}
	}
}

// drain writes any battle log lines that are already waiting.
func (p *Player) drain() error {
	for {
		select {
		case msg := <-p.msgs:
			err := p.writeLine(string(msg))
			if err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// farewell flushes pending battle log lines before saying goodbye.
func (p *Player) farewell() error {
	err := p.drain()
	if err != nil {
		return err
	}
	return p.writeLine("Goodbye!")
}

func (p *Player) prompt() error {
	prompt := "> "
	if c, ok := p.session.State().Character(); ok {
		prompt = fmt.Sprintf("[%d/%dHP] > ", c.HP, c.MaxHP)
	}
	_, err := io.WriteString(p.out, prompt)
	return err
}

func (p *Player) writeLine(msg string) error {
	_, err := io.WriteString(p.out, strings.TrimRight(msg, "\n")+"\n\n")
	return err
}
