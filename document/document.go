// Package document assembles and writes bmson chart documents.
package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
	"github.com/jsphweid/chartdex/tempo"
	"github.com/samber/lo"
)

type Info struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	Artist        string `json:"artist"`
	Genre         string `json:"genre"`
	ModeHint      string `json:"mode_hint"`
	ChartName     string `json:"chart_name"`
	Level         int    `json:"level"`
	InitBPM       uint32 `json:"init_bpm"`
	Resolution    int    `json:"resolution"`
	PreviewMusic  string `json:"preview_music,omitempty"`
	TitleImage    string `json:"title_image,omitempty"`
	EyecatchImage string `json:"eyecatch_image,omitempty"`
}

type Line struct {
	Pulse uint64 `json:"y"`
}

type StopEvent struct {
	Pulse    uint64 `json:"y"`
	Duration uint64 `json:"duration"`
}

type BGA struct {
	Header []string `json:"bga_header,omitempty"`
}

type Bmson struct {
	Version       string               `json:"version"`
	Info          Info                 `json:"info"`
	Lines         []Line               `json:"lines"`
	BPMEvents     []tempo.BPMEvent     `json:"bpm_events"`
	StopEvents    []StopEvent          `json:"stop_events"`
	SoundChannels []model.SoundChannel `json:"sound_channels"`
	BGA           BGA                  `json:"bga"`
}

// Assets are the optional song-level files referenced by every chart.
type Assets struct {
	PreviewMusic  string
	TitleImage    string
	EyecatchImage string
	Video         string
}

// Build merges everything decoded for one chart. The first BPM event is the
// initial tempo and stays in the event list at pulse 0.
func Build(meta model.SongMetadata, d model.Difficulty, assets Assets, bpmEvents []tempo.BPMEvent, lines []uint64, channels []model.SoundChannel) *Bmson {
	var initBPM uint32
	if len(bpmEvents) > 0 {
		initBPM = bpmEvents[0].BPM
	}

	doc := &Bmson{
		Version: constants.BmsonVersion,
		Info: Info{
			Title:         meta.Title,
			Subtitle:      meta.Subtitle,
			Artist:        meta.Artist,
			Genre:         meta.Genre,
			ModeHint:      d.ModeHint(),
			ChartName:     d.ChartName,
			Level:         meta.Level(d),
			InitBPM:       initBPM,
			Resolution:    constants.Resolution,
			PreviewMusic:  assets.PreviewMusic,
			TitleImage:    assets.TitleImage,
			EyecatchImage: assets.EyecatchImage,
		},
		Lines:         lo.Map(lines, func(p uint64, _ int) Line { return Line{Pulse: p} }),
		BPMEvents:     append([]tempo.BPMEvent{}, bpmEvents...),
		StopEvents:    []StopEvent{},
		SoundChannels: append([]model.SoundChannel{}, channels...),
	}
	if assets.Video != "" {
		doc.BGA.Header = []string{"bga", assets.Video}
	}
	return doc
}

func (b *Bmson) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// WriteFile writes through a temporary file so a failed write never leaves a
// partial document behind.
func (b *Bmson) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bmson-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := b.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read loads a previously written document.
func Read(path string) (*Bmson, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var b Bmson
	if err := json.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return &b, nil
}

func (b *Bmson) NumNotes() int {
	return lo.SumBy(b.SoundChannels, func(c model.SoundChannel) int {
		return len(lo.Filter(c.Notes, func(n model.Note, _ int) bool { return n.Lane > 0 }))
	})
}
