package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velour/crabbase/bot/stats"
	"github.com/velour/crabbase/config"
)

func makeWeb(t *testing.T) *Web {
	cfg := config.ReadConfig(":memory:")
	cfg.Set("nick", "crabbot")
	cfg.Set("bot.httprate.requests", "0")
	return New(cfg, stats.New(), func() []string { return []string{"crab", "admin"} })
}

func TestRootStatus(t *testing.T) {
	ws := makeWeb(t)
	ws.stats.MessagesRcv.Add(3)
	rec := httptest.NewRecorder()
	ws.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var st Status
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "crabbot", st.Name)
	assert.EqualValues(t, 3, st.MessagesRcv)
	assert.Equal(t, []string{"crab", "admin"}, st.Plugins)
}

func TestRegisterWebNameAddsNav(t *testing.T) {
	ws := makeWeb(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pinch"))
	})
	ws.RegisterWebName(h, "/crab", "Crab")
	rec := httptest.NewRecorder()
	ws.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crab", nil))
	assert.Equal(t, "pinch", rec.Body.String())
	assert.Contains(t, ws.GetWebNavigation(), EndPoint{"Crab", "/crab"})
}
