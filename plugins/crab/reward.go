package crab

// Reward is what a single catch pays out
type Reward struct {
	Coins int
	Bonus int
	XP    int
}

// bonusCoins rolls 1..100: a 100 pays 100, 60 and up pays 60..90, anything
// lower pays 1..59
func bonusCoins(rng Rand) int {
	roll := rng.Intn(100) + 1
	switch {
	case roll == 100:
		return 100
	case roll >= 60:
		return 60 + rng.Intn(31)
	default:
		return rng.Intn(59) + 1
	}
}

// ComputeReward scores a catch. It draws from rng, so call it once per catch.
func ComputeReward(s Spawn, rng Rand) Reward {
	bonus := bonusCoins(rng)
	return Reward{
		Coins: s.Creature.Value + bonus,
		Bonus: bonus,
		XP:    rng.Intn(5) + 1,
	}
}
