package game

// Item is something the controlled character carries.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// DefaultInventory is what every new character starts with.
func DefaultInventory() []Item {
	return []Item{
		{ID: "potion", Name: "Health Potion", Icon: "local-drink"},
		{ID: "mana-potion", Name: "Mana Potion", Icon: "opacity"},
		{ID: "scroll", Name: "Scroll", Icon: "menu-book"},
	}
}

// FindItem returns the item with the given id.
func FindItem(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
