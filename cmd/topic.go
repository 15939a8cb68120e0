package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/brokerage/docs"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `topic <topic>

  Show documentation for a given topic, or the topic list without
  arguments. "*" shows everything.
`
}

func (*topicCmd) SetFlags(*flag.FlagSet) {}

func (*topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		return fail(err)
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}
