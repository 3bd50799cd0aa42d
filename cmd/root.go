package cmd

import (
	"log/slog"
	"os"

	"github.com/jsphweid/chartdex/audio"
	"github.com/jsphweid/chartdex/chart"
	"github.com/jsphweid/chartdex/config"
	"github.com/jsphweid/chartdex/db"
	"github.com/jsphweid/chartdex/song"
	"github.com/spf13/cobra"
)

var (
	cfg     = config.Load()
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chartdex",
	Short: "Converts rhythm game song data to bmson",
	Long: `Converts rhythm game song data (a chart file plus its .2dx/.s3p sample
container) into bmson charts with extracted samples and a rendered background track.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&cfg.ContentsDir, "contents", cfg.ContentsDir, "game contents directory")
	flags.StringVar(&cfg.CustomDir, "custom", cfg.CustomDir, "directory with custom eyecatches and videos")
	flags.StringVar(&cfg.OutDir, "out", cfg.OutDir, "output directory")
	flags.StringVar(&cfg.MetadataCSV, "metadata", cfg.MetadataCSV, "song metadata csv")
	flags.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg binary")
	flags.BoolVar(&cfg.Transcode, "transcode", cfg.Transcode, "convert samples to ogg with ffmpeg")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// newLookup prefers the CSV export and falls back to the DynamoDB table.
func newLookup(c *config.Config) (db.Lookup, error) {
	if c.MetadataCSV != "" {
		if _, err := os.Stat(c.MetadataCSV); err == nil {
			return db.LoadCSV(c.MetadataCSV)
		}
		slog.Debug("metadata csv not found", "path", c.MetadataCSV)
	}
	return db.ConnectDynamo(c.DynamoRegion, c.DynamoEndpoint, c.MetadataTable)
}

func NewConverter(c *config.Config, lookup db.Lookup, preValidate bool) *song.Converter {
	conv := &song.Converter{
		ContentsDir: c.ContentsDir,
		CustomDir:   c.CustomDir,
		OutDir:      c.OutDir,
		Lookup:      lookup,
		Options:     chart.Options{PreValidate: preValidate},
	}
	if c.Transcode {
		conv.Transcoder = audio.NewFFmpegTranscoder(c.FFmpegPath)
	}
	return conv
}
