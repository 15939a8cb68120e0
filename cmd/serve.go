package cmd

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/api"
	"github.com/etnz/brokerage/date"
	"github.com/etnz/brokerage/store"
)

type serveCmd struct {
	addr    string
	fetchAt string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the reports over HTTP" }
func (*serveCmd) Usage() string {
	return `serve [-addr <addr>] [-fetch-at <cron spec>]

  Serve the report endpoints over HTTP and refresh the quote files on a
  schedule. Environment is loaded from a .env file when present.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8090", "listen address")
	f.StringVar(&c.fetchAt, "fetch-at", "35 16 * * MON-FRI", "cron schedule for the quote refresh, empty to disable")
}

func (c *serveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fail(err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	transfers, err := LoadTransfers()
	if err != nil {
		return fail(err)
	}
	db, err := store.Open(*storePath, log.With().Str("component", "store").Logger())
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	server := &api.Server{
		Dir:       *dataDir,
		QuoteDir:  *quoteDir,
		Quotes:    brokerage.NewCSVQuoteService(*quoteDir),
		Store:     db,
		Transfers: transfers,
		Log:       log.With().Str("component", "api").Logger(),
	}

	if c.fetchAt != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(c.fetchAt, func() {
			p, err := BuildPortfolio(brokerage.CombinedAccount, date.Today())
			if err != nil {
				log.Error().Err(err).Msg("quote refresh: cannot build portfolio")
				return
			}
			if err := brokerage.RetrieveQuotes(*quoteDir, p.CurrentSymbols(), false); err != nil {
				log.Error().Err(err).Msg("quote refresh failed")
				return
			}
			log.Info().Msg("quote refresh done")
		})
		if err != nil {
			return fail(err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info().Str("schedule", c.fetchAt).Msg("quote refresh scheduled")
	}

	log.Info().Str("addr", c.addr).Msg("listening")
	if err := http.ListenAndServe(c.addr, server.Router()); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
