package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jsphweid/chartdex/chart"
	"github.com/jsphweid/chartdex/model"
	"github.com/jsphweid/chartdex/tempo"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chart-file>",
	Short: "Inspects a chart file",
	Long:  `Prints one row per chart in the directory of a chart file: events, notes and tempo.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Inspect(cmd.OutOrStdout(), args[0])
	},
}

func Inspect(w io.Writer, path string) error {
	charts, err := chart.LoadFile(path)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Slot", "Chart", "Events", "Notes P1", "Notes P2", "Declared", "Init BPM", "BPM Changes", "Background", "Last ms"})

	for _, c := range charts {
		tempoMap, err := tempo.Build(c.Events)
		if err != nil {
			return err
		}
		counts := lo.CountValuesBy(c.Events, func(e model.ChartEvent) model.EventKind { return e.Kind })
		declared := lo.FilterMap(c.Events, func(e model.ChartEvent, _ int) (int, bool) {
			return int(e.Value), e.Kind == model.NoteCount
		})
		var lastMs uint32
		if len(c.Events) > 0 {
			lastMs = lo.MaxBy(c.Events, func(a, b model.ChartEvent) bool { return a.OffsetMs > b.OffsetMs }).OffsetMs
		}
		t.AppendRow(table.Row{
			c.Difficulty.Slot,
			c.Difficulty.Short(),
			len(c.Events),
			counts[model.NoteP1],
			counts[model.NoteP2],
			lo.Sum(declared),
			tempoMap.InitialBPM(),
			tempoMap.Len(),
			counts[model.BackgroundSample],
			lastMs,
		})
	}
	t.Render()
	return nil
}
