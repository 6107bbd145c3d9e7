package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/pixil98/go-rpg/internal/assets"
	"github.com/pixil98/go-rpg/internal/driver"
	"github.com/pixil98/go-rpg/internal/gamemaster"
	"github.com/pixil98/go-rpg/internal/session"
	"github.com/pixil98/go-rpg/internal/storage"
)

type tuiEnv struct {
	APIKey       string        `env:"GEMINI_API_KEY,required,notEmpty"`
	TextModel    string        `env:"RPG_TEXT_MODEL"`
	AssetRoot    string        `env:"RPG_ASSET_ROOT" envDefault:"assets"`
	TickInterval time.Duration `env:"RPG_TICK_INTERVAL" envDefault:"250ms"`
	LogFile      string        `env:"RPG_LOG_FILE" envDefault:"rpg-tui.log"`
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env file: %w", err)
	}

	var cfg tuiEnv
	err = env.Parse(&cfg)
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	// The screen belongs to tview, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := storage.NewDiskStore(cfg.AssetRoot)
	if err != nil {
		return fmt.Errorf("opening asset store: %w", err)
	}
	cache := assets.NewCache(store, gamemaster.NewImageClient(cfg.APIKey, store))

	text, err := gamemaster.NewTextClient(ctx, cfg.APIKey, cfg.TextModel)
	if err != nil {
		return err
	}
	defer text.Close()

	u := newUI()
	sessions := session.NewManager(gamemaster.NewGameMaster(text), session.WithSessionOpts(
		session.WithAssets(cache),
		session.WithPublisher(session.PublisherFunc(u.publish)),
	))
	u.session = sessions.NewSession()
	defer sessions.Remove(u.session.ID())

	go func() {
		err := driver.NewDriver([]driver.Ticker{sessions}, driver.WithTickLength(cfg.TickInterval)).Start(ctx)
		if err != nil {
			slog.Error("driver stopped", "error", err)
		}
	}()

	return u.run(ctx)
}
