package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/brokerage/cmd"
)

func main() {
	// Shell completion, a no-op outside of a completion request.
	completion().Complete("bkr")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{}
	}
	return &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"data-dir":       predict.Dirs("*"),
			"quote-dir":      predict.Dirs("*"),
			"store":          predict.Files("*"),
			"transfers-file": predict.Files("*"),
		},
	}
}
