// Package chart reads chart files and decodes their event streams.
package chart

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jsphweid/chartdex/channel"
	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
	"github.com/jsphweid/chartdex/tempo"
)

type Options struct {
	// check every sample reference against the container before resolving
	// any event, instead of failing at the first bad reference
	PreValidate bool
}

// Decoded is the result of both passes over one chart.
type Decoded struct {
	Chart     string
	Tempo     *tempo.Map
	Assembler *channel.Assembler

	// note counts declared by the chart itself, per player
	DeclaredNotes [2]int
	Notes         int
	playerNotes   [2]int
}

// NotesFor is the number of decoded notes for player 0 or 1.
func (d *Decoded) NotesFor(player int) int {
	return d.playerNotes[player]
}

// Decode runs the tempo discovery pass and then the resolution pass over
// events. refs holds one sample reference per container entry.
func Decode(chartName string, events []model.ChartEvent, refs []string, opts Options) (*Decoded, error) {
	tempoMap, err := tempo.Build(events)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", chartName, err)
	}
	if tempoMap.Len() == 0 {
		return nil, &model.FormatError{Msg: fmt.Sprintf("chart %s has no tempo", chartName)}
	}

	if opts.PreValidate {
		if err := validateSampleRange(chartName, events, len(refs)); err != nil {
			return nil, err
		}
	}

	d := &Decoded{
		Chart:     chartName,
		Tempo:     tempoMap,
		Assembler: channel.NewAssembler(chartName, refs),
	}
	for _, e := range events {
		if err := d.resolve(e); err != nil {
			return nil, err
		}
	}
	slog.Debug("chart decoded", "chart", chartName, "events", len(events), "notes", d.Notes, "tempo_changes", tempoMap.Len())
	return d, nil
}

// wire sample numbers are one based; 0 leaves the key on the first sample
func assignedSample(value uint16) int {
	if value == 0 {
		return 0
	}
	return int(value) - 1
}

func playerOf(kind model.EventKind) int {
	switch kind {
	case model.NoteP2, model.SampleAssignP2:
		return 1
	}
	return 0
}

func (d *Decoded) resolve(e model.ChartEvent) error {
	switch e.Kind {
	case model.NoteP1, model.NoteP2:
		return d.resolveNote(e)

	case model.SampleAssignP1, model.SampleAssignP2:
		if e.Param == constants.MultiSpinScratchKey {
			slog.Warn("ignoring sample assignment on reserved key", "chart", d.Chart, "offset_ms", e.OffsetMs, "value", e.Value)
			return nil
		}
		return d.Assembler.Assign(playerOf(e.Kind), int(e.Param), assignedSample(e.Value))

	case model.TempoChange:
		// consumed by the tempo pass

	case model.BackgroundSample:
		return d.Assembler.AddBackground(e.OffsetMs, int(e.Value)-1)

	case model.MeasureBar:
		d.Assembler.AddMeasure(d.Tempo.Pulses(e.OffsetMs))

	case model.NoteCount:
		if e.Param < 2 {
			d.DeclaredNotes[e.Param] = int(e.Value)
		}

	case model.MeterInfo, model.EndOfSong, model.TimingWindowInfo:
		slog.Debug("informational event", "chart", d.Chart, "kind", e.Kind, "offset_ms", e.OffsetMs)

	default:
		return &model.FormatError{Msg: fmt.Sprintf("chart %s: unknown event at %dms, type 0x%02X, param 0x%02X, value 0x%04X",
			d.Chart, e.OffsetMs, uint8(e.Kind), e.Param, e.Value)}
	}
	return nil
}

func (d *Decoded) resolveNote(e model.ChartEvent) error {
	player := playerOf(e.Kind)
	key := int(e.Param)
	multiSpin := key == constants.MultiSpinScratchKey
	if multiSpin {
		key = constants.ScratchKey
	}
	if key >= constants.KeysPerPlayer {
		return &model.FormatError{Msg: fmt.Sprintf("chart %s: note key %d at %dms", d.Chart, e.Param, e.OffsetMs)}
	}

	start := d.Tempo.Pulses(e.OffsetMs)
	var length uint64
	if e.Value > 0 {
		end := uint64(e.OffsetMs) + uint64(e.Value)
		if end > math.MaxUint32 {
			return &model.FormatError{Msg: fmt.Sprintf("chart %s: note at %dms held %dms ends past the chart's time range",
				d.Chart, e.OffsetMs, e.Value)}
		}
		length = d.Tempo.Pulses(uint32(end)) - start
	}
	if multiSpin {
		if length > constants.MultiSpinTrim {
			length -= constants.MultiSpinTrim
		} else {
			length = 0
		}
	}

	note := model.Note{
		Lane:   key + 1 + player*constants.KeysPerPlayer,
		Pulse:  start,
		Length: length,
	}
	if err := d.Assembler.AddNote(player, key, note); err != nil {
		return err
	}
	d.Notes++
	d.playerNotes[player]++
	return nil
}

// validateSampleRange finds the highest sample referenced anywhere in the chart.
func validateSampleRange(chartName string, events []model.ChartEvent, samples int) error {
	for _, e := range events {
		var sample int
		switch e.Kind {
		case model.SampleAssignP1, model.SampleAssignP2:
			if e.Param == constants.MultiSpinScratchKey {
				continue
			}
			sample = assignedSample(e.Value)
		case model.BackgroundSample:
			sample = int(e.Value) - 1
		case model.NoteP1, model.NoteP2:
			// unassigned keys fall back to the first sample
			sample = 0
		default:
			continue
		}
		if sample < 0 || sample >= samples {
			return &model.ConsistencyError{
				Chart: chartName,
				Msg:   fmt.Sprintf("%s at %dms references sample %d but the container has %d samples", e.Kind, e.OffsetMs, sample, samples),
			}
		}
	}
	return nil
}
