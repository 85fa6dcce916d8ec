package crab

import "sort"

// RankAccounts orders accounts by catches, most first, keeping the given
// order among ties, and trims to n when n > 0
func RankAccounts(accounts []Account, n int) []Account {
	out := append([]Account{}, accounts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalCaught > out[j].TotalCaught
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
