package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot/stats"
	"github.com/velour/crabbase/config"

	httpin_integration "github.com/ggicci/httpin/integration"
)

type Web struct {
	config        *config.Config
	router        *chi.Mux
	httpEndPoints []EndPoint
	stats         *stats.Stats
	plugins       func() []string
}

type EndPoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Status is the document served at the root of the web interface
type Status struct {
	Name         string     `json:"name"`
	Uptime       string     `json:"uptime"`
	MessagesSent int64      `json:"messagesSent"`
	MessagesRcv  int64      `json:"messagesReceived"`
	Plugins      []string   `json:"plugins"`
	EndPoints    []EndPoint `json:"endpoints"`
}

// GetWebNavigation returns the registered endpoints plus any configured
// bot.links entries of the form name:url
func (ws *Web) GetWebNavigation() []EndPoint {
	endpoints := append([]EndPoint{}, ws.httpEndPoints...)
	moreEndpoints := ws.config.GetArray("bot.links", []string{})
	for _, e := range moreEndpoints {
		link := strings.SplitN(e, ":", 2)
		if len(link) != 2 {
			continue
		}
		endpoints = append(endpoints, EndPoint{link[0], link[1]})
	}
	return endpoints
}

func (ws *Web) showStats() Status {
	st := Status{
		Name:         ws.botName(),
		Uptime:       ws.stats.Uptime(),
		MessagesSent: ws.stats.MessagesSent.Load(),
		MessagesRcv:  ws.stats.MessagesRcv.Load(),
		EndPoints:    ws.GetWebNavigation(),
	}
	if ws.plugins != nil {
		st.Plugins = ws.plugins()
	}
	return st
}

func (ws *Web) serveRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ws.showStats())
}

func (ws *Web) serveNav(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ws.GetWebNavigation())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	err := enc.Encode(v)
	if err != nil {
		jsonErr, _ := json.Marshal(err.Error())
		w.WriteHeader(500)
		w.Write(jsonErr)
	}
}

func (ws *Web) setupHTTP() {
	// Make the http logger optional
	if ws.config.GetInt("bot.useLogger", 0) == 1 {
		ws.router.Use(middleware.Logger)
	}

	reqCount := ws.config.GetInt("bot.httprate.requests", 500)
	reqTime := time.Duration(ws.config.GetInt("bot.httprate.seconds", 5))
	if reqCount > 0 && reqTime > 0 {
		ws.router.Use(httprate.LimitByIP(reqCount, reqTime*time.Second))
	}

	ws.router.Use(middleware.RequestID)
	ws.router.Use(middleware.Recoverer)
	ws.router.Use(middleware.StripSlashes)

	UseURLParams()

	ws.router.HandleFunc("/", ws.serveRoot)
	ws.router.HandleFunc("/nav", ws.serveNav)
}

var urlParams sync.Once

// UseURLParams lets httpin inputs read chi path parameters with the "path"
// directive. The directive is process wide, so it is installed only once.
func UseURLParams() {
	urlParams.Do(func() {
		httpin_integration.UseGochiURLParam("path", chi.URLParam)
	})
}

// Router exposes the mux so tests can serve requests without listening
func (ws *Web) Router() http.Handler {
	return ws.router
}

func (ws *Web) RegisterWeb(r http.Handler, root string) {
	ws.router.Mount(root, r)
}

func (ws *Web) RegisterWebName(r http.Handler, root, name string) {
	ws.httpEndPoints = append(ws.httpEndPoints, EndPoint{name, root})
	ws.router.Mount(root, r)
}

func (ws *Web) ListenAndServe(addr string) {
	log.Debug().Msgf("starting web service at %s", addr)
	log.Fatal().Err(http.ListenAndServe(addr, ws.router)).Msg("bot killed")
}

func New(config *config.Config, s *stats.Stats, plugins func() []string) *Web {
	w := &Web{
		config:  config,
		router:  chi.NewRouter(),
		stats:   s,
		plugins: plugins,
	}
	w.setupHTTP()
	return w
}

func (ws *Web) botName() string {
	return ws.config.Get("nick", "crabbase")
}
