package cmd

import (
	"fmt"
	"os"

	"github.com/jsphweid/chartdex/file"
	"github.com/jsphweid/chartdex/midi"
	"github.com/jsphweid/chartdex/model"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(midiCmd)
}

var midiCmd = &cobra.Command{
	Use:   "midi <song-id> <difficulty> [out.mid]",
	Short: "Exports one chart as a MIDI file",
	Long:  `Exports the notes and tempo changes of one chart (e.g. SP-A) as a standard MIDI file.`,
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseSongIDs(args[:1])
		if err != nil {
			return err
		}
		d, err := model.ParseDifficulty(args[1])
		if err != nil {
			return err
		}
		out := fmt.Sprintf("%s-%s.mid", file.SongKey(ids[0]), d.Short())
		if len(args) == 3 {
			out = args[2]
		}
		return ExportMidi(ids[0], d, out)
	},
}

func ExportMidi(songID uint32, d model.Difficulty, out string) error {
	conv := NewConverter(cfg, nil, true)
	decoded, err := conv.DecodeChart(songID, d)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := midi.ExportChart(f, d.String(), decoded.Tempo.Events(), decoded.Assembler.Channels()); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	return f.Close()
}
