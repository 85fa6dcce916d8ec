package crab

import (
	"fmt"
	"sort"
	"strings"
)

type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
)

func (r Rarity) String() string {
	switch r {
	case Common:
		return "Common"
	case Uncommon:
		return "Uncommon"
	case Rare:
		return "Rare"
	case Epic:
		return "Epic"
	case Legendary:
		return "Legendary"
	}
	return fmt.Sprintf("Rarity(%d)", int(r))
}

// Creature is one row of the spawn table
type Creature struct {
	Name   string `json:"name"`
	Rarity Rarity `json:"rarity"`
	Value  int    `json:"value"`
	Emoji  string `json:"emoji"`
	Color  int    `json:"color"`
	// Weight is the relative chance of spawning; zero counts as one
	Weight int `json:"-"`
}

// Creatures is the default spawn table. Every weight is equal so a draw is
// uniform over the rows.
var Creatures = []Creature{
	{Name: "Common Crab", Rarity: Common, Value: 5, Emoji: "🦀", Color: 0x808080},
	{Name: "Blue Crab", Rarity: Uncommon, Value: 15, Emoji: "🔵", Color: 0x0099FF},
	{Name: "Golden Crab", Rarity: Rare, Value: 50, Emoji: "🌟", Color: 0xFFD700},
	{Name: "Crystal Crab", Rarity: Epic, Value: 100, Emoji: "💎", Color: 0x9370DB},
	{Name: "Galaxy Crab", Rarity: Legendary, Value: 250, Emoji: "🌌", Color: 0xFF4500},
}

// FindCreature matches a creature by name, first word of its name, or
// rarity, ignoring case
func FindCreature(table []Creature, name string) (Creature, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Creature{}, false
	}
	for _, c := range table {
		first := strings.ToLower(strings.Fields(c.Name)[0])
		if strings.ToLower(c.Name) == name || first == name || strings.ToLower(c.Rarity.String()) == name {
			return c, true
		}
	}
	return Creature{}, false
}

type picker struct {
	creatures  []Creature
	cumulative []int
	total      int
}

func newPicker(table []Creature) *picker {
	p := &picker{creatures: table}
	for _, c := range table {
		w := c.Weight
		if w <= 0 {
			w = 1
		}
		p.total += w
		p.cumulative = append(p.cumulative, p.total)
	}
	return p
}

// Pick draws a creature proportionally to its weight
func (p *picker) Pick(rng Rand) Creature {
	n := rng.Intn(p.total)
	i := sort.SearchInts(p.cumulative, n+1)
	return p.creatures[i]
}
