package command

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-service"

	"github.com/pixil98/go-rpg/internal/assets"
	"github.com/pixil98/go-rpg/internal/driver"
	"github.com/pixil98/go-rpg/internal/listener"
	"github.com/pixil98/go-rpg/internal/messaging"
	"github.com/pixil98/go-rpg/internal/player"
	"github.com/pixil98/go-rpg/internal/session"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	secrets, err := cfg.GameMaster.loadEnv()
	if err != nil {
		return nil, err
	}

	// Asset storage and the image cache
	store, err := cfg.Assets.buildStore()
	if err != nil {
		return nil, err
	}
	images := cfg.GameMaster.buildImageClient(secrets.APIKey, store)
	cache := assets.NewCache(store, images)

	// Game Master
	gm, text, err := cfg.GameMaster.buildGameMaster(context.Background(), secrets.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating game master: %w", err)
	}

	// Battle log fan out
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	publisher := messaging.NewNatsPublisher(natsServer)

	// Sessions
	sessionOpts, err := cfg.Session.sessionOpts()
	if err != nil {
		return nil, err
	}
	sessionOpts = append(sessionOpts,
		session.WithPublisher(publisher),
		session.WithAssets(cache),
	)
	sessions := session.NewManager(gm, session.WithSessionOpts(sessionOpts...))

	// Create Listeners
	cm := listener.NewConnectionManager(player.NewManager(sessions, publisher))
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.buildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = w
	}

	// Setup the game driver
	tick, err := time.ParseDuration(cfg.TickInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing tick_interval: %w", err)
	}
	d := driver.NewDriver([]driver.Ticker{sessions}, driver.WithTickLength(tick))

	// Create a worker list
	return service.WorkerList{
		"driver":      d,
		"game_master": text,
		"listeners":   &listeners,
		"nats":        natsServer,
		"sessions":    sessions,
	}, nil
}
