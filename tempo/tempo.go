// Package tempo converts chart timestamps in milliseconds into pulses using a
// piecewise constant BPM map.
package tempo

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
)

const msPerMinute = 60000

type BPMEvent struct {
	Pulse uint64 `json:"y"`
	BPM   uint32 `json:"bpm"`
}

// Map holds breakpoints in chart order. One Map belongs to exactly one chart.
type Map struct {
	breakpoints []model.TempoBreakpoint
}

// BPM decodes a TempoChange record. A zero divisor means the value already is
// the BPM; this has only been seen in a handful of assets.
func BPM(value uint16, divisor uint8) uint32 {
	if divisor == 0 {
		return uint32(value)
	}
	return uint32(math.RoundToEven(float64(value) / float64(divisor)))
}

// Add appends a breakpoint. A breakpoint at an offset already present is
// ignored and Add reports false.
func (m *Map) Add(offsetMs, bpm uint32) (bool, error) {
	if n := len(m.breakpoints); n > 0 {
		last := m.breakpoints[n-1]
		if offsetMs == last.OffsetMs {
			slog.Warn("ignoring duplicate tempo change", "offset_ms", offsetMs, "bpm", bpm, "kept_bpm", last.BPM)
			return false, nil
		}
		if offsetMs < last.OffsetMs {
			return false, &model.FormatError{Msg: fmt.Sprintf("tempo change at %dms precedes previous change at %dms", offsetMs, last.OffsetMs)}
		}
	}
	m.breakpoints = append(m.breakpoints, model.TempoBreakpoint{OffsetMs: offsetMs, BPM: bpm})
	return true, nil
}

func (m *Map) Len() int {
	return len(m.breakpoints)
}

func (m *Map) Breakpoints() []model.TempoBreakpoint {
	return append([]model.TempoBreakpoint(nil), m.breakpoints...)
}

// InitialBPM is the first BPM seen in the chart, or 0 for an empty map.
func (m *Map) InitialBPM() uint32 {
	if len(m.breakpoints) == 0 {
		return 0
	}
	return m.breakpoints[0].BPM
}

// Pulses integrates the tempo map from 0 up to offsetMs. The first tempo is
// taken to hold from 0 even when its breakpoint is later.
func (m *Map) Pulses(offsetMs uint32) uint64 {
	// sum of ms*bpm; dividing once at the end keeps the result exact
	var beatMs uint64
	for i, bp := range m.breakpoints {
		var start uint32
		if i > 0 {
			start = bp.OffsetMs
		}
		if offsetMs <= start {
			break
		}
		end := offsetMs
		if i+1 < len(m.breakpoints) && m.breakpoints[i+1].OffsetMs < end {
			end = m.breakpoints[i+1].OffsetMs
		}
		beatMs += uint64(end-start) * uint64(bp.BPM)
	}
	return beatMs * constants.Resolution / msPerMinute
}

// Events lists one BPM event per breakpoint; the first is pinned to pulse 0.
func (m *Map) Events() []BPMEvent {
	events := make([]BPMEvent, 0, len(m.breakpoints))
	for i, bp := range m.breakpoints {
		var pulse uint64
		if i > 0 {
			pulse = m.Pulses(bp.OffsetMs)
		}
		events = append(events, BPMEvent{Pulse: pulse, BPM: bp.BPM})
	}
	return events
}

// Build scans events for TempoChange records.
func Build(events []model.ChartEvent) (*Map, error) {
	m := &Map{}
	for _, e := range events {
		if e.Kind != model.TempoChange {
			continue
		}
		bpm := BPM(e.Value, e.Param)
		added, err := m.Add(e.OffsetMs, bpm)
		if err != nil {
			return nil, err
		}
		if added {
			slog.Debug("tempo change", "offset_ms", e.OffsetMs, "bpm", bpm)
		}
	}
	return m, nil
}
