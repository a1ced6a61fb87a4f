package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sightdex/internal/imagehash"
	"sightdex/internal/render"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var showReport bool

	cmd := &cobra.Command{
		Use:   "identify <image-path-or-url>",
		Short: "Identify the creature depicted in an image",
		Long: `Identify an image against the remote catalog using perceptual fingerprints.
The argument is a local file path or an image URL. A coarse scan ranks every
catalog candidate by primary sprite similarity; when the best score falls
below the configured threshold a refinement pass rehashes the leaders across
their secondary sprite sources.

Examples:
  sightdex identify mystery.png
  sightdex identify https://example.com/sighting.jpg
  sightdex identify mystery.png --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(p *pipeline) error {
				return runIdentify(cmd, p, strings.TrimSpace(args[0]), jsonOut, showReport)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the match as JSON")
	cmd.Flags().BoolVar(&showReport, "report", false, "Print the full markdown report after the summary")
	return cmd
}

func runIdentify(cmd *cobra.Command, p *pipeline, target string, jsonOut, showReport bool) error {
	out := cmd.OutOrStdout()

	var fileBytes []byte
	var rawURL string
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		data, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("read image %s: %w", target, err)
		}
		fileBytes = data
	} else {
		rawURL = target
	}

	runCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	if !jsonOut {
		fmt.Fprintf(out, "🔍 Identifying image: %s\n", target)
	}

	data, err := p.identifier.ResolveQuery(runCtx, fileBytes, rawURL)
	if err != nil {
		return err
	}
	if !jsonOut {
		fmt.Fprintf(out, "📦 Query image: %s\n\n", humanize.Bytes(uint64(len(data))))
	}

	match, err := p.identifier.Identify(runCtx, data)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd, match)
	}

	rows := [][]string{
		{"Name", render.DisplayName(match.Name)},
		{"ID", strconv.Itoa(match.ID)},
		{"Similarity", fmt.Sprintf("%.4f", match.Similarity)},
		{"Verification", match.Classification.String()},
		{"Refined", yesNo(match.Refined)},
		{"Candidates Scanned", strconv.Itoa(match.Scanned)},
		{"Elapsed", match.Elapsed.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

	if match.Classification == imagehash.ClassificationLikely {
		fmt.Fprintf(out, "\n✅ Match scored at or above the %.2f similarity threshold.\n", p.identifier.Threshold())
	} else {
		fmt.Fprintf(out, "\n⚠️  Best match fell below the similarity threshold; treat it as a guess.\n")
	}

	if showReport {
		fmt.Fprintf(out, "\n%s\n", matchReport(runCtx, p, match))
	}
	return nil
}
