package model

import "fmt"

type EventKind uint8

const (
	NoteP1           EventKind = 0x00
	NoteP2           EventKind = 0x01
	SampleAssignP1   EventKind = 0x02
	SampleAssignP2   EventKind = 0x03
	TempoChange      EventKind = 0x04
	MeterInfo        EventKind = 0x05
	EndOfSong        EventKind = 0x06
	BackgroundSample EventKind = 0x07
	TimingWindowInfo EventKind = 0x08
	MeasureBar       EventKind = 0x0C
	NoteCount        EventKind = 0x10
)

var eventKindNames = map[EventKind]string{
	NoteP1:           "NoteP1",
	NoteP2:           "NoteP2",
	SampleAssignP1:   "SampleAssignP1",
	SampleAssignP2:   "SampleAssignP2",
	TempoChange:      "TempoChange",
	MeterInfo:        "MeterInfo",
	EndOfSong:        "EndOfSong",
	BackgroundSample: "BackgroundSample",
	TimingWindowInfo: "TimingWindowInfo",
	MeasureBar:       "MeasureBar",
	NoteCount:        "NoteCount",
}

// Known reports whether k is one of the documented event types.
func (k EventKind) Known() bool {
	_, ok := eventKindNames[k]
	return ok
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint8(k))
}

// ChartEvent is one 8 byte record of a chart stream.
type ChartEvent struct {
	OffsetMs uint32
	Kind     EventKind
	Param    uint8
	Value    uint16
}

type TempoBreakpoint struct {
	OffsetMs uint32
	BPM      uint32
}

// Note positions are in pulses, see constants.Resolution.
type Note struct {
	Lane         int    `json:"x"`
	Pulse        uint64 `json:"y"`
	Length       uint64 `json:"l"`
	Continuation bool   `json:"c"`
}

type SoundChannel struct {
	Name  string `json:"name"`
	Notes []Note `json:"notes"`
}

// Placement is a background sample cued at a wall clock offset.
type Placement struct {
	OffsetMs  uint32
	Reference string
}

// FormatSampleName gives the zero padded file name used for extracted samples.
func FormatSampleName(index uint32, ext string) string {
	return fmt.Sprintf("%04d.%s", index, ext)
}
