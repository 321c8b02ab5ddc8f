package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/brandtone/internal/config"
	"github.com/satindergrewal/brandtone/internal/descriptor"
	"github.com/satindergrewal/brandtone/internal/render"
	"github.com/satindergrewal/brandtone/internal/synth"
	"github.com/satindergrewal/brandtone/internal/wavstore"
)

var (
	renderTitle    string
	renderDuration int
	renderOut      string

	renderCmd = &cobra.Command{
		Use:     "render PROMPT",
		Short:   "Render one track from a style prompt",
		Example: `  brandtone render "energético electronic anthem" --title "Store Opening" --duration 10`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runRender,
	}

	describeCmd = &cobra.Command{
		Use:   "describe PROMPT",
		Short: "Print the genre and mood a prompt maps to",
		Args:  cobra.MinimumNArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error {
			g, m := descriptor.Extract(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "genre: %s\nmood:  %s\n", g, m)
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List rendered tracks, newest first",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
)

func init() {
	renderCmd.Flags().StringVarP(&renderTitle, "title", "t", "", "track title, used for the file name (required)")
	renderCmd.Flags().IntVarP(&renderDuration, "duration", "d", render.DefaultDuration, "length in seconds")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output directory (overrides BRANDTONE_OUTPUT_DIR)")
	renderCmd.MarkFlagRequired("title")

	listCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output directory (overrides BRANDTONE_OUTPUT_DIR)")
}

func outputDir(configured string) string {
	if renderOut != "" {
		return renderOut
	}
	return configured
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := wavstore.NewFileStore(outputDir(cfg.OutputDir), synth.SampleRate)
	res, err := render.New(store, cfg.MaxDuration, logger).Render(render.Request{
		Prompt:   strings.Join(args, " "),
		Title:    renderTitle,
		Duration: renderDuration,
	})
	if err != nil {
		return err
	}

	var size uint64
	if info, err := os.Stat(res.Path); err == nil {
		size = uint64(info.Size())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s / %s, %ds, %s\n",
		res.Path, res.Genre, res.Mood, res.Duration, humanize.Bytes(size))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	tracks, err := wavstore.NewFileStore(outputDir(cfg.OutputDir), synth.SampleRate).List()
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no tracks")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLENGTH\tSIZE\tRENDERED")
	for _, t := range tracks {
		fmt.Fprintf(tw, "%s\t%.0fs\t%s\t%s\n",
			t.Name, t.Seconds, humanize.Bytes(uint64(t.Size)), humanize.Time(t.Modified))
	}
	return tw.Flush()
}
