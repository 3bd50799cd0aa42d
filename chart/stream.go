package chart

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
)

// Slot is one populated entry of a chart file's directory.
type Slot struct {
	Difficulty model.Difficulty
	Offset     uint32
	Size       uint32
}

// ReadDirectory reads the 12 slot directory at the start of a chart file.
// Slots with a zero offset hold no chart and are left out.
func ReadDirectory(r io.ReaderAt) ([]Slot, error) {
	buf := make([]byte, constants.DirectorySlots*constants.DirectoryStride)
	if n, err := r.ReadAt(buf, 0); n != len(buf) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, &model.FormatError{Msg: "chart directory truncated"}
		}
		return nil, fmt.Errorf("reading chart directory: %w", err)
	}

	var slots []Slot
	for i := 0; i < constants.DirectorySlots; i++ {
		entry := buf[i*constants.DirectoryStride:]
		offset := binary.LittleEndian.Uint32(entry[0:4])
		if offset == 0 {
			continue
		}
		d, err := model.DifficultyForSlot(i)
		if err != nil {
			return nil, err
		}
		slots = append(slots, Slot{Difficulty: d, Offset: offset, Size: binary.LittleEndian.Uint32(entry[4:8])})
	}
	return slots, nil
}

func decodeRecord(rec []byte) model.ChartEvent {
	return model.ChartEvent{
		OffsetMs: binary.LittleEndian.Uint32(rec[0:4]),
		Kind:     model.EventKind(rec[4]),
		Param:    rec[5],
		Value:    binary.LittleEndian.Uint16(rec[6:8]),
	}
}

// ReadEvents materializes records until the end of chart sentinel or end of data.
func ReadEvents(r io.Reader) ([]model.ChartEvent, error) {
	var events []model.ChartEvent
	reader := bufio.NewReader(r)
	rec := make([]byte, constants.RecordSize)
	for {
		_, err := io.ReadFull(reader, rec)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return nil, &model.FormatError{Msg: fmt.Sprintf("partial record after %d events", len(events))}
		}
		if err != nil {
			return nil, fmt.Errorf("reading chart record: %w", err)
		}
		if bytes.Equal(rec, constants.EndOfChart[:]) {
			break
		}
		events = append(events, decodeRecord(rec))
	}
	return events, nil
}

// ReadSlot reads the event stream of one directory slot.
func ReadSlot(r io.ReaderAt, slot Slot) ([]model.ChartEvent, error) {
	size := int64(slot.Size)
	if size == 0 {
		size = 1<<63 - 1 - int64(slot.Offset)
	}
	return ReadEvents(io.NewSectionReader(r, int64(slot.Offset), size))
}

// Chart is one difficulty's materialized event stream.
type Chart struct {
	Difficulty model.Difficulty
	Events     []model.ChartEvent
}

// LoadFile reads every chart in a chart file.
func LoadFile(path string) ([]Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart file: %w", err)
	}
	defer f.Close()

	slots, err := ReadDirectory(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	charts := make([]Chart, 0, len(slots))
	for _, slot := range slots {
		events, err := ReadSlot(f, slot)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", path, slot.Difficulty, err)
		}
		charts = append(charts, Chart{Difficulty: slot.Difficulty, Events: events})
	}
	return charts, nil
}
