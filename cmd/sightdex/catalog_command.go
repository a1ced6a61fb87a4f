package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sightdex/internal/render"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List catalog entries and their primary sprites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(p *pipeline) error {
				return runCatalog(cmd, p, limit)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to list")
	return cmd
}

func runCatalog(cmd *cobra.Command, p *pipeline, limit int) error {
	runCtx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	entries, err := p.catalog.ListCatalog(runCtx, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "Catalog returned no entries.")
		return nil
	}

	if isTerminal(out) {
		rows := make([][]string, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, []string{
				strconv.Itoa(entry.ID),
				render.DisplayName(entry.Name),
				p.catalog.PrimarySpriteURL(entry.ID),
			})
		}
		aligns := []columnAlignment{alignRight, alignLeft, alignLeft}
		fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Primary Sprite"}, rows, aligns))
	} else {
		for _, entry := range entries {
			fmt.Fprintf(out, "%d\t%s\t%s\n", entry.ID, entry.Name, p.catalog.PrimarySpriteURL(entry.ID))
		}
	}
	fmt.Fprintf(out, "%s entries\n", humanize.Comma(int64(len(entries))))
	return nil
}
