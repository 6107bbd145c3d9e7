package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pixil98/go-errors"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// AssetType groups cached images into one directory each.
type AssetType string

const (
	AssetTypeScene     AssetType = "scene"
	AssetTypeCharacter AssetType = "character"
	AssetTypeEnemy     AssetType = "enemy"
	AssetTypeMap       AssetType = "map"
	AssetTypeItem      AssetType = "item"
)

// AssetTypes lists every type that gets a directory under the cache root.
var AssetTypes = []AssetType{
	AssetTypeScene,
	AssetTypeCharacter,
	AssetTypeEnemy,
	AssetTypeMap,
	AssetTypeItem,
}

func (t AssetType) String() string {
	return string(t)
}

func (t AssetType) Validate() error {
	for _, known := range AssetTypes {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("unknown asset type: %q", string(t))
}

func (t *AssetType) UnmarshalText(text []byte) error {
	at := AssetType(text)
	if err := at.Validate(); err != nil {
		return err
	}
	*t = at
	return nil
}

// Identifier names a single asset within its type directory.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

func (id Identifier) Validate() error {
	el := errors.NewErrorList()

	if id == "" {
		el.Add(fmt.Errorf("id must be set"))
	} else if !identifierPattern.MatchString(id.String()) {
		el.Add(fmt.Errorf("id must be alphanumeric"))
	}

	return el.Err()
}

// Hash is a 31-multiplier string hash over UTF-16 code units with 32-bit
// wraparound. Ids derived from it must stay stable across releases since they
// name files already on disk.
func Hash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

// HashID joins parts with underscores and hashes the result into a
// hex identifier. Negative hashes keep their sign, e.g. "-1f3a".
func HashID(parts ...string) Identifier {
	return Identifier(strconv.FormatInt(int64(Hash(strings.Join(parts, "_"))), 16))
}
