// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/config"
	"github.com/velour/crabbase/connectors/discord"
	"github.com/velour/crabbase/plugins/admin"
	"github.com/velour/crabbase/plugins/cli"
	"github.com/velour/crabbase/plugins/crab"
)

var (
	dbpath      = flag.String("db", "crabbase.db", "Database file to load. (Defaults to crabbase.db)")
	debug       = flag.Bool("debug", false, "Turn on debug logging")
	setDefaults = flag.Bool("set-defaults", false, "Write default config values to the database")
)

func main() {
	flag.Usage = func() {
		os.Stderr.WriteString("Usage: crabbase [flags] [nick]\n")
		flag.PrintDefaults()
	}
	flag.Parse() // parses the logging flags.

	log.Logger = log.Logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	c := config.ReadConfig(*dbpath)

	if *setDefaults || c.GetInt("init", 0) != 1 {
		nick := "crabbot"
		if flag.NArg() > 0 {
			nick = flag.Arg(0)
		}
		c.SetDefaults(nick)
		log.Info().Str("nick", nick).Msg("wrote default config")
	}

	var client bot.Connector
	switch c.Get("type", "discord") {
	case "discord":
		if c.Get("DISCORDBOTTOKEN", "") == "" {
			log.Fatal().Msg("DISCORDBOTTOKEN is not set")
		}
		client = discord.New(c)
	case "cli":
		client = cli.New(os.Stdin, os.Stdout, c.Get("nick", "crabbot"))
	default:
		log.Fatal().Msgf("Unknown connection type: %s", c.Get("type", "UNSET"))
	}

	b := bot.New(c, client)

	// crab goes first so a bare help shows the game's commands
	crabs := crab.New(b)
	b.AddPlugin(crabs)
	b.AddPlugin(admin.New(b))

	go b.ListenAndServe()
	go func() {
		if err := client.Serve(); err != nil {
			log.Fatal().Err(err).Msg("connector stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	crabs.Stop()
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("error closing connector")
	}
}
