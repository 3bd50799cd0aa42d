package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/jsphweid/chartdex/file"
	"github.com/jsphweid/chartdex/song"
	"github.com/spf13/cobra"
)

var (
	archiveExt    string
	noPreValidate bool
	workers       int
)

func init() {
	convertCmd.Flags().StringVar(&archiveExt, "archive", "", "also pack each song directory (zip, tar, tar.gz, tar.zst)")
	convertCmd.Flags().BoolVar(&noPreValidate, "no-prevalidate", false, "resolve events without checking sample references first")
	convertCmd.Flags().IntVarP(&workers, "workers", "w", cfg.Workers, "songs converted in parallel")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <song-id>...",
	Short: "Converts songs to bmson",
	Long:  `Converts every chart of each song, extracting samples and rendering the background track.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseSongIDs(args)
		if err != nil {
			return err
		}
		lookup, err := newLookup(cfg)
		if err != nil {
			return err
		}
		conv := NewConverter(cfg, lookup, !noPreValidate)
		_, err = Convert(cmd.Context(), conv, ids, workers, archiveExt)
		return err
	},
}

func parseSongIDs(args []string) ([]uint32, error) {
	ids := make([]uint32, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid song id %q", arg)
		}
		ids = append(ids, uint32(id))
	}
	return ids, nil
}

// Convert runs up to n songs at a time and optionally archives each song
// directory. Results of failed songs are nil.
func Convert(ctx context.Context, conv *song.Converter, ids []uint32, n int, archive string) ([]*song.Result, error) {
	if n <= 0 {
		n = 1
	}
	results := make([]*song.Result, len(ids))
	errs := make([]error, len(ids))
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id uint32) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := conv.Convert(ctx, id)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("song %s: %w", file.SongKey(id), err)
				return
			}
			slog.Info("song converted", "song", id, "charts", len(res.Documents), "dir", res.Dir)
			if archive != "" {
				dst := res.Dir + "." + archive
				if err := file.Archive(ctx, res.Dir, dst); err != nil {
					errs[i] = fmt.Errorf("song %s: %w", file.SongKey(id), err)
					return
				}
				slog.Info("song archived", "song", id, "archive", dst)
			}
		}(i, id)
	}
	wg.Wait()
	return results, errors.Join(errs...)
}
