package crab

import (
	"encoding/json"
	"net/http"

	"github.com/ggicci/httpin"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

func (p *CrabPlugin) registerWeb() {
	p.bot.RegisterWebName(p.router(), "/crab", "Crab")
}

func (p *CrabPlugin) router() http.Handler {
	r := chi.NewRouter()
	r.With(httpin.NewInput(LeaderboardReq{})).
		Get("/api/leaderboard/{server}", p.handleLeaderboard)
	r.Get("/api/shop", p.handleShop)
	return r
}

type LeaderboardReq struct {
	Server string `in:"path=server"`
	Limit  int    `in:"query=limit;default=10"`
}

type leaderboardEntry struct {
	Rank        int    `json:"rank"`
	User        string `json:"user"`
	Name        string `json:"name"`
	TotalCaught int    `json:"totalCaught"`
	Coins       int    `json:"coins"`
	Level       int    `json:"level"`
}

func (p *CrabPlugin) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	input := r.Context().Value(httpin.Input).(*LeaderboardReq)
	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	top, err := p.store.TopAccounts(input.Server, limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard api")
		w.WriteHeader(500)
		json.NewEncoder(w).Encode(struct{ Err string }{err.Error()})
		return
	}
	out := []leaderboardEntry{}
	for i, a := range top {
		out = append(out, leaderboardEntry{
			Rank:        i + 1,
			User:        a.User,
			Name:        a.Name,
			TotalCaught: a.TotalCaught,
			Coins:       a.Coins,
			Level:       a.Level,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (p *CrabPlugin) handleShop(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ShopItems)
}
