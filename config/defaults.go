package config

import (
	"bytes"
	"text/template"

	"github.com/rs/zerolog/log"
)

var q = `
INSERT INTO config VALUES('type','discord');
INSERT INTO config VALUES('nick','{{.Nick}}');
INSERT INTO config VALUES('commandchar','!');
INSERT INTO config VALUES('httpaddr','127.0.0.1:1337');
INSERT INTO config VALUES('crab.spawninterval',180);
INSERT INTO config VALUES('crab.spawnchance',0.7);
INSERT INTO config VALUES('crab.ttl',600);
INSERT INTO config VALUES('crab.keyword','crab');
INSERT INTO config VALUES('crab.leaderboard.size',10);
INSERT INTO config VALUES('crab.snapshot','crabbase-spawns');
INSERT INTO config VALUES('bot.httprate.requests',500);
INSERT INTO config VALUES('bot.httprate.seconds',5);
INSERT INTO config VALUES('init',1);
`

// SetDefaults wipes the config table and seeds it for a fresh bot named nick
func (c *Config) SetDefaults(nick string) {
	if nick == "" {
		log.Fatal().Msgf("You must provide a nick")
	}
	t := template.Must(template.New("query").Parse(q))
	vals := struct {
		Nick string
	}{
		nick,
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vals); err != nil {
		log.Fatal().Err(err).Msg("could not build default config")
	}
	c.MustExec(`delete from config;`)
	c.MustExec(buf.String())
	log.Info().Msg("Configuration initialized.")
}
