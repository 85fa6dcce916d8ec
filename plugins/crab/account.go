package crab

// Account is a user's standing on one server
type Account struct {
	ID          int64  `db:"id"`
	Server      string `db:"server"`
	User        string `db:"user"`
	Name        string `db:"name"`
	Coins       int    `db:"coins"`
	Level       int    `db:"level"`
	XP          int    `db:"xp"`
	TotalCaught int    `db:"total_caught"`

	// Inventory counts items by id
	Inventory map[string]int `db:"-"`
	// Collection counts catches by creature name
	Collection map[string]int `db:"-"`
}

// NewAccount is the state of a user who has never played
func NewAccount(server, user string) Account {
	return Account{
		Server:     server,
		User:       user,
		Level:      1,
		Inventory:  map[string]int{},
		Collection: map[string]int{},
	}
}

// XPNeeded is the experience that finishes the current level
func (a Account) XPNeeded() int {
	return a.Level * 100
}

func (a Account) copy() Account {
	out := a
	out.Inventory = make(map[string]int, len(a.Inventory))
	for k, v := range a.Inventory {
		out.Inventory[k] = v
	}
	out.Collection = make(map[string]int, len(a.Collection))
	for k, v := range a.Collection {
		out.Collection[k] = v
	}
	return out
}

// ApplyCatch credits a catch to a copy of a. Reaching the level threshold
// bumps the level and starts xp over at zero; leftover xp is not carried.
func ApplyCatch(a Account, r Reward, creature string) (Account, bool) {
	out := a.copy()
	out.Coins += r.Coins
	out.XP += r.XP
	out.TotalCaught++
	out.Collection[creature]++
	leveled := false
	for out.XP >= out.XPNeeded() {
		out.Level++
		out.XP = 0
		leveled = true
	}
	return out, leveled
}
