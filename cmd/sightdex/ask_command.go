package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the catalog a free-text question",
		Long: `Answer a free-text question from the remote catalog and print the result
as markdown.

Examples:
  sightdex ask "tell me about pikachu"
  sightdex ask list 5 grass type pokemon
  sightdex ask "what is the move thunderbolt"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withPipeline(func(p *pipeline) error {
				runCtx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
				defer cancel()

				md, err := p.answers.Respond(runCtx, question)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			})
		},
	}
}
