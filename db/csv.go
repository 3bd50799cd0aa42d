package db

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jsphweid/chartdex/model"
)

// CSVLookup serves metadata from a song list export with a header row.
type CSVLookup struct {
	songs map[uint32]model.SongMetadata
}

func LoadCSV(path string) (*CSVLookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.ExternalError{Op: "opening metadata csv", Err: err}
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (*CSVLookup, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &model.ExternalError{Op: "reading metadata csv header", Err: err}
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["ID"]; !ok {
		return nil, &model.ExternalError{Op: "reading metadata csv", Err: fmt.Errorf("no ID column")}
	}

	lookup := &CSVLookup{songs: make(map[uint32]model.SongMetadata)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &model.ExternalError{Op: "reading metadata csv", Err: err}
		}
		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return Sanitize(record[i])
		}

		id, ok := parseNumber(cell("ID"))
		if !ok {
			continue
		}
		meta := model.SongMetadata{
			ID:       uint32(id),
			Title:    cell("TITLE"),
			Subtitle: cell("SUBTITLE"),
			Artist:   cell("ARTIST"),
			Genre:    cell("GENRE"),
			Levels:   make(map[string]int),
			Volume:   1,
		}
		for _, col := range levelColumns {
			if level, ok := parseNumber(cell(col)); ok {
				meta.Levels[col] = int(level)
			}
		}
		if v, err := strconv.ParseFloat(cell("VOLUME"), 64); err == nil && v > 0 {
			meta.Volume = v
		}
		if delay, ok := parseNumber(cell("BG DELAY")); ok {
			meta.BackgroundDelay = int(delay)
		}
		lookup.songs[meta.ID] = meta
	}
	return lookup, nil
}

// parseNumber accepts "12" as well as spreadsheet style "12.0".
func parseNumber(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

func (l *CSVLookup) Lookup(_ context.Context, songID uint32) (model.SongMetadata, error) {
	meta, ok := l.songs[songID]
	if !ok {
		return model.SongMetadata{}, notFound(songID)
	}
	return meta, nil
}
