package ask

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v2"

	"search-assistant/backend"
	"search-assistant/config"
	"search-assistant/query"
)

func Ask(ctx *cli.Context) error {
	userQuery := strings.TrimSpace(strings.Join(ctx.Args().Slice(), " "))
	if userQuery == "" {
		return errors.New("a question is required, e.g. search-assistant ask \"What is the capital of France?\"")
	}

	settings, err := config.FromCLI(ctx)
	if err != nil {
		return err
	}

	client, err := backend.New(settings.Backend)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	result := client.Submit(ctx.Context, userQuery)
	if result.Failed() {
		return errors.New(result.ErrorMessage)
	}

	render(ctx, result)
	return nil
}

func render(ctx *cli.Context, result query.Result) {
	w := ctx.App.Writer
	fmt.Fprintf(w, "Answer:\n%s\n", result.Answer)
	if len(result.Sources) == 0 {
		return
	}

	table := uitable.New()
	table.RightAlign(0)
	table.Separator = " "
	for i, source := range result.Sources {
		table.AddRow(fmt.Sprintf("%d.", i+1), source)
	}
	fmt.Fprintf(w, "\nSources:\n%s\n", table)
}
