package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/jsphweid/chartdex/song"
	"github.com/jsphweid/chartdex/util"
	"github.com/spf13/cobra"
)

var watchDelay time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 2*time.Second, "quiet period before converting changed songs")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Converts songs whenever their files change",
	Long:  `Watches <contents>/data/sound and converts every song whose chart or container changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lookup, err := newLookup(cfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return Watch(ctx, NewConverter(cfg, lookup, true), filepath.Join(cfg.ContentsDir, "data", "sound"), watchDelay, cfg.Workers)
	},
}

var songFileRe = regexp.MustCompile(`^(\d+)(?:_pre)?\.(?:1|2dx|s3p)$`)

// songIDFromPath recognizes chart files and sample containers.
func songIDFromPath(path string) (uint32, bool) {
	m := songFileRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 32)
	return uint32(id), err == nil
}

// Watch blocks until ctx is done. Changes are collected until the tree has
// been quiet for delay and then converted together, up to workers songs at a
// time. A changed container makes every sample of the song stale, so conv is
// switched to re-export existing samples.
func Watch(ctx context.Context, conv *song.Converter, root string, delay time.Duration, workers int) error {
	conv.Overwrite = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	addRecursive := func(dir string) error {
		return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(p)
			}
			return nil
		})
	}
	if err := addRecursive(root); err != nil {
		return err
	}

	var mu sync.Mutex
	pending := make(map[uint32]bool)
	debounced := debounce.New(delay)
	flush := func() {
		mu.Lock()
		ids := util.GetKeys(pending)
		pending = make(map[uint32]bool)
		mu.Unlock()

		slog.Info("converting changed songs", "songs", ids)
		if _, err := Convert(ctx, conv, ids, workers, ""); err != nil {
			slog.Error("conversion failed", "err", err)
		}
	}

	slog.Info("watching", "dir", root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(event.Name); err != nil {
						slog.Warn("failed to watch new directory", "dir", event.Name, "err", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			id, ok := songIDFromPath(event.Name)
			if !ok {
				continue
			}
			slog.Debug("song file changed", "song", id, "file", filepath.Base(event.Name))
			mu.Lock()
			pending[id] = true
			mu.Unlock()
			debounced(flush)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		}
	}
}
