// Package song converts one song at a time: it extracts the sample container
// once and then decodes and writes every chart of the song concurrently.
package song

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jsphweid/chartdex/audio"
	"github.com/jsphweid/chartdex/channel"
	"github.com/jsphweid/chartdex/chart"
	"github.com/jsphweid/chartdex/container"
	"github.com/jsphweid/chartdex/db"
	"github.com/jsphweid/chartdex/document"
	"github.com/jsphweid/chartdex/file"
	"github.com/jsphweid/chartdex/model"
	"github.com/samber/lo"
)

type Converter struct {
	ContentsDir string
	CustomDir   string
	OutDir      string
	Lookup      db.Lookup

	// nil keeps the raw container payloads and renders background tracks as wav
	Transcoder audio.Transcoder
	Options    chart.Options

	// re-export samples that already exist, for containers that changed
	Overwrite bool
}

// delayMixer shifts every background placement by the song's background delay.
// Placements pushed before the start of the song are clamped to 0.
type delayMixer struct {
	channel.Mixer
	delayMs int
}

func (m delayMixer) Mix(ctx context.Context, placements []model.Placement, outName string) (string, error) {
	shifted := lo.Map(placements, func(p model.Placement, _ int) model.Placement {
		offset := int64(p.OffsetMs) + int64(m.delayMs)
		p.OffsetMs = uint32(max(0, min(offset, math.MaxUint32)))
		return p
	})
	return m.Mixer.Mix(ctx, shifted, outName)
}

type Result struct {
	SongID    uint32
	Dir       string
	Documents []string
}

func (c *Converter) SongDir(songID uint32) string {
	return filepath.Join(c.OutDir, file.SongKey(songID))
}

// DocumentName is the file name of one chart's bmson, e.g. "20003 [SP ANOTHER].bmson".
func DocumentName(songID uint32, d model.Difficulty) string {
	return fmt.Sprintf("%s [%s].bmson", file.SongKey(songID), d)
}

func (c *Converter) sampleExt() string {
	if c.Transcoder == nil {
		return "wav"
	}
	return "ogg"
}

// Convert writes every chart of songID under SongDir. Charts fail
// independently; the documents that were written are returned together with
// the joined errors of the ones that were not.
func (c *Converter) Convert(ctx context.Context, songID uint32) (*Result, error) {
	files, err := file.Locate(c.ContentsDir, c.CustomDir, songID)
	if err != nil {
		return nil, err
	}
	meta, err := c.Lookup.Lookup(ctx, songID)
	if err != nil {
		return nil, err
	}

	dir := c.SongDir(songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &model.ExternalError{Op: "creating output directory", Err: err}
	}

	entries, err := container.ExtractFile(files.Container)
	if err != nil {
		return nil, err
	}
	cid := container.ContainerID(files.Container)
	slog.Info("container extracted", "song", songID, "container", filepath.Base(files.Container), "samples", len(entries))

	refs, err := c.exportSamples(ctx, dir, cid, entries, meta.Volume)
	if err != nil {
		return nil, err
	}
	assets, err := c.exportAssets(ctx, dir, cid, files, meta.Volume)
	if err != nil {
		return nil, err
	}

	charts, err := chart.LoadFile(files.Chart)
	if err != nil {
		return nil, err
	}

	var mixer channel.Mixer = &audio.BeepMixer{Dir: dir, Ext: c.sampleExt(), Transcoder: c.Transcoder}
	if meta.BackgroundDelay != 0 {
		mixer = delayMixer{Mixer: mixer, delayMs: meta.BackgroundDelay}
	}
	docs := make([]string, len(charts))
	errs := make([]error, len(charts))
	var wg sync.WaitGroup
	for i, ch := range charts {
		wg.Add(1)
		go func(i int, ch chart.Chart) {
			defer wg.Done()
			docs[i], errs[i] = c.convertChart(ctx, songID, dir, cid, meta, assets, refs, ch, mixer)
			if errs[i] != nil {
				slog.Error("chart failed", "song", songID, "chart", ch.Difficulty.String(), "err", errs[i])
			}
		}(i, ch)
	}
	wg.Wait()

	return &Result{SongID: songID, Dir: dir, Documents: lo.Compact(docs)}, errors.Join(errs...)
}

func (c *Converter) convertChart(ctx context.Context, songID uint32, dir, cid string, meta model.SongMetadata,
	assets document.Assets, refs []string, ch chart.Chart, mixer channel.Mixer) (string, error) {
	decoded, err := chart.Decode(ch.Difficulty.String(), ch.Events, refs, c.Options)
	if err != nil {
		return "", err
	}
	for player, declared := range decoded.DeclaredNotes {
		if declared > 0 && declared != decoded.NotesFor(player) {
			slog.Warn("note count differs from the chart header", "chart", ch.Difficulty.String(),
				"player", player+1, "declared", declared, "decoded", decoded.NotesFor(player))
		}
	}

	outName := path.Join(cid, fmt.Sprintf("%s-BGM-%s", cid, ch.Difficulty.Short()))
	channels, err := decoded.Assembler.Finish(ctx, mixer, outName)
	if err != nil {
		return "", err
	}

	doc := document.Build(meta, ch.Difficulty, assets, decoded.Tempo.Events(), decoded.Assembler.Lines(), channels)
	out := filepath.Join(dir, DocumentName(songID, ch.Difficulty))
	if err := doc.WriteFile(out); err != nil {
		return "", &model.ExternalError{Op: "writing " + filepath.Base(out), Err: err}
	}
	slog.Info("chart converted", "song", songID, "chart", ch.Difficulty.String(),
		"notes", decoded.Notes, "channels", len(channels), "out", filepath.Base(out))
	return out, nil
}

// exportSamples writes every entry under dir/cid and returns the references
// the charts use for them, in container order.
func (c *Converter) exportSamples(ctx context.Context, dir, cid string, entries []model.ContainerEntry, volume float64) ([]string, error) {
	sampleDir := filepath.Join(dir, cid)
	if err := os.MkdirAll(sampleDir, 0o755); err != nil {
		return nil, &model.ExternalError{Op: "creating sample directory", Err: err}
	}

	refs := make([]string, len(entries))
	for i, e := range entries {
		name, err := c.exportEntry(ctx, sampleDir, e, volume)
		if err != nil {
			return nil, err
		}
		refs[i] = path.Join(cid, name)
	}
	return refs, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func (c *Converter) exportEntry(ctx context.Context, sampleDir string, e model.ContainerEntry, volume float64) (string, error) {
	raw := e.Filename()
	name := strings.TrimSuffix(raw, filepath.Ext(raw)) + "." + c.sampleExt()
	if c.Transcoder == nil {
		name = raw
	}
	dst := filepath.Join(sampleDir, name)
	if exists(dst) && !c.Overwrite {
		slog.Debug("sample already exported, skipping", "sample", name)
		return name, nil
	}

	src := filepath.Join(sampleDir, raw)
	if err := os.WriteFile(src, e.Payload, 0o644); err != nil {
		return "", &model.ExternalError{Op: "writing sample " + raw, Err: err}
	}
	if c.Transcoder == nil {
		return name, nil
	}
	if err := c.Transcoder.Transcode(ctx, src, dst, volume); err != nil {
		return "", &model.ExternalError{Op: "transcoding sample " + raw, Err: err}
	}
	if err := os.Remove(src); err != nil {
		slog.Warn("could not remove raw sample", "sample", raw, "err", err)
	}
	return name, nil
}

// exportAssets extracts the preview and copies the optional artwork and video.
func (c *Converter) exportAssets(ctx context.Context, dir, cid string, files *file.SongFiles, volume float64) (document.Assets, error) {
	var assets document.Assets

	if files.Preview != "" {
		entries, err := container.ExtractFile(files.Preview)
		if err != nil {
			return assets, err
		}
		if len(entries) > 0 {
			name, err := c.exportEntry(ctx, filepath.Join(dir, cid), entries[0], volume)
			if err != nil {
				return assets, err
			}
			assets.PreviewMusic = path.Join(cid, name)
		}
	} else {
		slog.Warn("no preview container found", "song", files.SongID)
	}

	var err error
	if assets.TitleImage, err = file.CopyAsset(files.TitleImage, dir); err != nil {
		return assets, &model.ExternalError{Op: "copying title image", Err: err}
	}
	if assets.EyecatchImage, err = file.CopyAsset(files.Eyecatch, dir); err != nil {
		return assets, &model.ExternalError{Op: "copying eyecatch", Err: err}
	}
	if assets.Video, err = file.CopyAsset(files.Video, dir); err != nil {
		return assets, &model.ExternalError{Op: "copying video", Err: err}
	}
	return assets, nil
}

// DecodeChart decodes one difficulty of a song without writing anything.
func (c *Converter) DecodeChart(songID uint32, d model.Difficulty) (*chart.Decoded, error) {
	files, err := file.Locate(c.ContentsDir, c.CustomDir, songID)
	if err != nil {
		return nil, err
	}
	entries, err := container.ExtractFile(files.Container)
	if err != nil {
		return nil, err
	}
	charts, err := chart.LoadFile(files.Chart)
	if err != nil {
		return nil, err
	}

	ch, ok := lo.Find(charts, func(ch chart.Chart) bool { return ch.Difficulty == d })
	if !ok {
		return nil, &model.ExternalError{Op: "finding chart", Err: fmt.Errorf("song %s has no %s chart", file.SongKey(songID), d)}
	}
	refs := lo.Map(entries, func(e model.ContainerEntry, _ int) string { return e.Filename() })
	return chart.Decode(d.String(), ch.Events, refs, c.Options)
}
