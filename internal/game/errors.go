package game

import "errors"

var (
	ErrEnemyNotFound = errors.New("enemy not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrNoCharacter   = errors.New("party has no controlled character")
)
