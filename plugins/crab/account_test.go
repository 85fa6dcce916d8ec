package crab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelUpAtThreshold(t *testing.T) {
	a := NewAccount("srv", "u1")
	a.XP = 95
	out, leveled := ApplyCatch(a, Reward{Coins: 10, XP: 5}, "Common Crab")
	assert.True(t, leveled)
	assert.Equal(t, 2, out.Level)
	assert.Equal(t, 0, out.XP)
}

func TestNoLevelUpBelowThreshold(t *testing.T) {
	a := NewAccount("srv", "u1")
	a.XP = 95
	out, leveled := ApplyCatch(a, Reward{Coins: 10, XP: 4}, "Common Crab")
	assert.False(t, leveled)
	assert.Equal(t, 1, out.Level)
	assert.Equal(t, 99, out.XP)
}

func TestApplyCatchCounts(t *testing.T) {
	a := NewAccount("srv", "u1")
	a.Coins = 7
	out, _ := ApplyCatch(a, Reward{Coins: 20, Bonus: 15, XP: 3}, "Blue Crab")
	out, _ = ApplyCatch(out, Reward{Coins: 10, Bonus: 5, XP: 1}, "Blue Crab")
	assert.Equal(t, 37, out.Coins)
	assert.Equal(t, 2, out.TotalCaught)
	assert.Equal(t, 4, out.XP)
	assert.Equal(t, 2, out.Collection["Blue Crab"])
}

func TestApplyCatchLeavesInputAlone(t *testing.T) {
	a := NewAccount("srv", "u1")
	ApplyCatch(a, Reward{Coins: 20, XP: 3}, "Blue Crab")
	assert.Equal(t, 0, a.Coins)
	assert.Equal(t, 0, a.TotalCaught)
	assert.Empty(t, a.Collection)
}

func TestXPNeeded(t *testing.T) {
	a := NewAccount("srv", "u1")
	assert.Equal(t, 100, a.XPNeeded())
	a.Level = 4
	assert.Equal(t, 400, a.XPNeeded())
}
