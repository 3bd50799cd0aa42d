// Package channel routes decoded notes and background cues onto per-sample
// sound channels.
package channel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
	"github.com/samber/lo"
)

// Mixer renders background placements into one audio asset and returns its reference.
type Mixer interface {
	Mix(ctx context.Context, placements []model.Placement, outName string) (string, error)
}

type placement struct {
	offsetMs uint32
	sample   int
}

// Assembler owns the sample assignment state of one chart. It must not be
// reused for another chart.
type Assembler struct {
	chart    string
	channels []model.SoundChannel

	// current sample per player and key; zero value is sample 0
	assignments [2][constants.KeysPerPlayer]int

	background []placement
	lines      []uint64
}

// NewAssembler creates one channel per sample reference, in container order.
func NewAssembler(chart string, refs []string) *Assembler {
	channels := lo.Map(refs, func(ref string, _ int) model.SoundChannel {
		return model.SoundChannel{Name: ref}
	})
	return &Assembler{chart: chart, channels: channels}
}

func (a *Assembler) NumSamples() int {
	return len(a.channels)
}

func (a *Assembler) consistencyError(format string, args ...any) error {
	return &model.ConsistencyError{Chart: a.chart, Msg: fmt.Sprintf(format, args...)}
}

func checkSlot(player, key int) error {
	if player < 0 || player > 1 || key < 0 || key >= constants.KeysPerPlayer {
		return &model.FormatError{Msg: fmt.Sprintf("player %d key %d out of range", player+1, key)}
	}
	return nil
}

// Assign sets the sample future notes on player/key will trigger.
func (a *Assembler) Assign(player, key, sample int) error {
	if err := checkSlot(player, key); err != nil {
		return err
	}
	a.assignments[player][key] = sample
	return nil
}

func (a *Assembler) Assigned(player, key int) int {
	return a.assignments[player][key]
}

// AddNote files note under the sample currently assigned to player/key.
func (a *Assembler) AddNote(player, key int, note model.Note) error {
	if err := checkSlot(player, key); err != nil {
		return err
	}
	sample := a.assignments[player][key]
	if sample < 0 || sample >= len(a.channels) {
		return a.consistencyError("note at pulse %d uses sample %d but the container has %d samples",
			note.Pulse, sample, len(a.channels))
	}
	a.channels[sample].Notes = append(a.channels[sample].Notes, note)
	return nil
}

// AddBackground records a background cue; sample is zero based.
func (a *Assembler) AddBackground(offsetMs uint32, sample int) error {
	if sample < 0 || sample >= len(a.channels) {
		return a.consistencyError("background sample %d at %dms out of range, the container has %d samples",
			sample, offsetMs, len(a.channels))
	}
	a.background = append(a.background, placement{offsetMs: offsetMs, sample: sample})
	return nil
}

// AddMeasure appends a bar line; a bar at the same pulse as the previous one is dropped.
func (a *Assembler) AddMeasure(pulse uint64) {
	if n := len(a.lines); n > 0 && a.lines[n-1] == pulse {
		return
	}
	a.lines = append(a.lines, pulse)
}

func (a *Assembler) Lines() []uint64 {
	return append([]uint64(nil), a.lines...)
}

// Placements resolves background cues into sample references.
func (a *Assembler) Placements() []model.Placement {
	return lo.Map(a.background, func(p placement, _ int) model.Placement {
		return model.Placement{OffsetMs: p.offsetMs, Reference: a.channels[p.sample].Name}
	})
}

// Channels returns the note carrying channels, without any background track.
func (a *Assembler) Channels() []model.SoundChannel {
	return pruneEmpty(a.channels)
}

func pruneEmpty(channels []model.SoundChannel) []model.SoundChannel {
	return lo.Filter(channels, func(c model.SoundChannel, _ int) bool {
		return len(c.Notes) > 0
	})
}

// Finish renders the background track through mixer, appends it as a channel
// holding a single note at pulse 0, and drops channels without notes.
func (a *Assembler) Finish(ctx context.Context, mixer Mixer, outName string) ([]model.SoundChannel, error) {
	channels := append([]model.SoundChannel(nil), a.channels...)

	if placements := a.Placements(); len(placements) > 0 {
		slog.Debug("mixing background track", "chart", a.chart, "placements", len(placements), "out", outName)
		ref, err := mixer.Mix(ctx, placements, outName)
		if err != nil {
			return nil, &model.ExternalError{Op: fmt.Sprintf("mixing background for chart %s", a.chart), Err: err}
		}
		channels = append(channels, model.SoundChannel{
			Name:  ref,
			Notes: []model.Note{{Lane: 0, Pulse: 0, Length: 0}},
		})
	}

	return pruneEmpty(channels), nil
}
