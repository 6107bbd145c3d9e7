package command

import (
	"context"
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-rpg/internal/gamemaster"
	"github.com/pixil98/go-rpg/internal/storage"
)

type GameMasterConfig struct {
	TextModel      string `json:"text_model"`
	ImageEndpoint  string `json:"image_endpoint"`
	RequestTimeout string `json:"request_timeout"`
}

// gameMasterEnv holds the secrets that never belong in the config file.
type gameMasterEnv struct {
	APIKey string `env:"GEMINI_API_KEY,required,notEmpty"`
}

func (c *GameMasterConfig) validate() error {
	el := errors.NewErrorList()

	_, err := parseOptionalDuration("request_timeout", c.RequestTimeout, 0)
	el.Add(err)

	if c.ImageEndpoint != "" {
		u, err := url.Parse(c.ImageEndpoint)
		if err != nil {
			el.Add(fmt.Errorf("parsing image_endpoint: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			el.Add(fmt.Errorf("image_endpoint must be an http(s) url"))
		}
	}

	return el.Err()
}

func (c *GameMasterConfig) loadEnv() (gameMasterEnv, error) {
	var e gameMasterEnv
	err := env.Parse(&e)
	if err != nil {
		return gameMasterEnv{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

func (c *GameMasterConfig) buildImageClient(apiKey string, store *storage.DiskStore) *gamemaster.ImageClient {
	var opts []gamemaster.ImageClientOpt
	if c.ImageEndpoint != "" {
		opts = append(opts, gamemaster.WithImageEndpoint(c.ImageEndpoint))
	}
	return gamemaster.NewImageClient(apiKey, store, opts...)
}

func (c *GameMasterConfig) buildGameMaster(ctx context.Context, apiKey string) (*gamemaster.GameMaster, *gamemaster.TextClient, error) {
	timeout, err := parseOptionalDuration("request_timeout", c.RequestTimeout, gamemaster.DefaultRequestTimeout)
	if err != nil {
		return nil, nil, err
	}

	text, err := gamemaster.NewTextClient(ctx, apiKey, c.TextModel)
	if err != nil {
		return nil, nil, err
	}

	return gamemaster.NewGameMaster(text, gamemaster.WithRequestTimeout(timeout)), text, nil
}
