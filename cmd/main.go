package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"search-assistant/cmd/ask"
	"search-assistant/cmd/serve"
	"search-assistant/config"
)

// newApp builds the command tree. Backend flags belong to each command, so they go after its name:
// search-assistant ask --endpoint URL "question"
func newApp() *cli.App {
	return &cli.App{
		Name:  "search-assistant",
		Usage: "Ask questions of an answering backend from the browser or the terminal",
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Serve the search page over http",
				Flags:   append(config.Flags(), serve.Flags()...),
				Action:  serve.Serve,
			},
			{
				Name:      "ask",
				Aliases:   []string{"a"},
				Usage:     "Ask a single question and print the answer with its sources",
				ArgsUsage: "<question...>",
				Flags:     config.Flags(),
				Action:    ask.Ask,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
