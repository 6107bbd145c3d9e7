package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-rpg/internal/storage"
)

type AssetsConfig struct {
	Root string `json:"root"`
}

func (c *AssetsConfig) validate() error {
	el := errors.NewErrorList()

	if c.Root == "" {
		el.Add(fmt.Errorf("assets root is required"))
	}

	return el.Err()
}

func (c *AssetsConfig) buildStore() (*storage.DiskStore, error) {
	s, err := storage.NewDiskStore(c.Root)
	if err != nil {
		return nil, fmt.Errorf("opening asset store: %w", err)
	}
	return s, nil
}
