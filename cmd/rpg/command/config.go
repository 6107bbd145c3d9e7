package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

const minTickInterval = 10 * time.Millisecond

type Config struct {
	TickInterval string           `json:"tick_interval"`
	Listeners    []ListenerConfig `json:"listeners"`
	Assets       AssetsConfig     `json:"assets"`
	GameMaster   GameMasterConfig `json:"game_master"`
	Nats         NatsConfig       `json:"nats"`
	Session      SessionConfig    `json:"session"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < minTickInterval {
		el.Add(fmt.Errorf("tick_interval must be at least %s", minTickInterval))
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Assets.validate())
	el.Add(c.GameMaster.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Session.validate())

	return el.Err()
}

// parseOptionalDuration returns def when s is empty.
func parseOptionalDuration(name, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return d, nil
}
