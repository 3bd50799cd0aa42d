package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jsphweid/chartdex/file"
	"github.com/jsphweid/chartdex/song"
	"github.com/jsphweid/chartdex/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [out-dir]",
	Short: "Creates a report",
	Long:  `Summarizes every converted chart found in an output directory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.OutDir
		if len(args) == 1 {
			dir = args[0]
		}
		return Report(cmd.OutOrStdout(), dir)
	},
}

func Report(w io.Writer, dir string) error {
	entries, err := song.Catalog(dir)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Song", "Chart", "Title", "Level", "Init BPM", "BPM Events", "Notes", "Channels"})

	songs := make(map[uint32]int)
	var notes []int
	var maxNotes int
	for _, e := range entries {
		s, err := song.Summarize(e)
		if err != nil {
			return err
		}
		songs[e.SongID]++
		notes = append(notes, s.NumNotes)
		maxNotes = util.Max(maxNotes, s.NumNotes)
		t.AppendRow(table.Row{file.SongKey(e.SongID), s.Chart, s.Title, s.Level, s.InitBPM, s.NumBPMChanges, s.NumNotes, s.NumChannels})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", util.Sum(notes), ""})
	t.Render()

	fmt.Fprintf(w, "songs: %v\n", len(util.GetKeys(songs)))
	fmt.Fprintf(w, "charts: %v\n", len(entries))
	fmt.Fprintf(w, "most notes in one chart: %v\n", maxNotes)
	return nil
}
