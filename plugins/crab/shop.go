package crab

import (
	"fmt"
	"strings"
)

// Item is something the shop sells. Items are collectibles only.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Price       int    `json:"price"`
	Description string `json:"description"`
}

var ShopItems = []Item{
	{ID: "net", Name: "Crab Net", Emoji: "🥅", Price: 50, Description: "A sturdy net for the serious crabber"},
	{ID: "bucket", Name: "Crab Bucket", Emoji: "🪣", Price: 100, Description: "Somewhere to keep your catch"},
	{ID: "trap", Name: "Crab Trap", Emoji: "🪤", Price: 250, Description: "Looks impressive on a dock"},
	{ID: "hat", Name: "Captain's Hat", Emoji: "🧢", Price: 500, Description: "Everyone will know you mean business"},
	{ID: "trophy", Name: "Golden Claw Trophy", Emoji: "🏆", Price: 1000, Description: "Proof of a life spent crabbing"},
}

// FindItem looks an item up by id or name, ignoring case
func FindItem(id string) (Item, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, it := range ShopItems {
		if it.ID == id || strings.ToLower(it.Name) == id {
			return it, true
		}
	}
	return Item{}, false
}

// Purchase debits the price of itemID from a copy of a and adds the item to
// its inventory. On error a is returned untouched.
func Purchase(a Account, itemID string) (Account, Item, error) {
	it, ok := FindItem(itemID)
	if !ok {
		return a, Item{}, fmt.Errorf("%q: %w", itemID, ErrUnknownItem)
	}
	if a.Coins < it.Price {
		return a, it, fmt.Errorf("%s costs %d, you have %d: %w", it.Name, it.Price, a.Coins, ErrInsufficientFunds)
	}
	out := a.copy()
	out.Coins -= it.Price
	out.Inventory[it.ID]++
	return out, it, nil
}
