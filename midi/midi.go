// Package midi exports decoded charts as standard MIDI files so they can be
// auditioned in any sequencer.
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
	"github.com/jsphweid/chartdex/tempo"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// lane 1 (P1 key 0) plays C2
	baseKey  = 36
	velocity = 100
)

type timed struct {
	tick uint64
	off  bool
	msg  []byte
}

// LaneKey maps a playable lane to its channel and key: P1 on channel 0,
// P2 on channel 1, one key per lane.
func LaneKey(lane int) (channel, key uint8) {
	return uint8((lane - 1) / constants.KeysPerPlayer), uint8(baseKey + (lane-1)%constants.KeysPerPlayer)
}

// ExportChart writes a two track SMF at the chart resolution: a tempo track
// and a note track. Background notes (lane 0) are skipped.
func ExportChart(w io.Writer, name string, bpmEvents []tempo.BPMEvent, channels []model.SoundChannel) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(constants.Resolution)

	var tempoTrack smf.Track
	tempoTrack.Add(0, smf.MetaTrackSequenceName(name))
	var last uint64
	for _, e := range bpmEvents {
		tempoTrack.Add(uint32(e.Pulse-last), smf.MetaTempo(float64(e.BPM)))
		last = e.Pulse
	}
	tempoTrack.Close(0)

	var events []timed
	for _, c := range channels {
		for _, n := range c.Notes {
			if n.Lane <= 0 {
				continue
			}
			ch, key := LaneKey(n.Lane)
			length := n.Length
			if length == 0 {
				length = 1
			}
			events = append(events,
				timed{tick: n.Pulse, msg: midi.NoteOn(ch, key, velocity)},
				timed{tick: n.Pulse + length, off: true, msg: midi.NoteOff(ch, key)},
			)
		}
	}
	// note offs first so a retriggered key is not cut short
	slices.SortStableFunc(events, func(a, b timed) int {
		switch {
		case a.tick != b.tick:
			if a.tick < b.tick {
				return -1
			}
			return 1
		case a.off && !b.off:
			return -1
		case !a.off && b.off:
			return 1
		}
		return 0
	})

	var noteTrack smf.Track
	last = 0
	for _, e := range events {
		noteTrack.Add(uint32(e.tick-last), e.msg)
		last = e.tick
	}
	noteTrack.Close(0)

	if err := s.Add(tempoTrack); err != nil {
		return err
	}
	if err := s.Add(noteTrack); err != nil {
		return err
	}
	_, err := s.WriteTo(w)
	return err
}

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	var blank smf.SMF

	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return &blank, fmt.Errorf("reading midi file: %w", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return &blank, fmt.Errorf("parsing midi file: %w", err)
	}
	return res, nil
}
