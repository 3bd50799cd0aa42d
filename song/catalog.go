package song

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/jsphweid/chartdex/document"
	"github.com/jsphweid/chartdex/model"
	"github.com/jsphweid/chartdex/util"
)

var documentNameRe = regexp.MustCompile(`^(\d+) \[((?:SP|DP) [A-Z]+)\]\.bmson$`)

// Entry is one converted chart found in an output directory.
type Entry struct {
	SongID     uint32
	Difficulty model.Difficulty
	Path       string
}

// ParseDocumentName is the inverse of DocumentName.
func ParseDocumentName(name string) (uint32, model.Difficulty, bool) {
	m := documentNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, model.Difficulty{}, false
	}
	id, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, model.Difficulty{}, false
	}
	d, err := model.ParseDifficulty(m[2])
	if err != nil {
		return 0, model.Difficulty{}, false
	}
	return uint32(id), d, true
}

// Catalog lists every converted chart under outDir, ordered by song and slot.
func Catalog(outDir string) ([]Entry, error) {
	if _, err := os.Stat(outDir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	paths, err := util.GatherFiles(outDir, ".bmson")
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, p := range paths {
		id, d, ok := ParseDocumentName(filepath.Base(p))
		if !ok {
			continue
		}
		entries = append(entries, Entry{SongID: id, Difficulty: d, Path: p})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.SongID != b.SongID {
			return int(a.SongID) - int(b.SongID)
		}
		return a.Difficulty.Slot - b.Difficulty.Slot
	})
	return entries, nil
}

// Summarize reads the document behind e.
func Summarize(e Entry) (model.ChartSummary, error) {
	doc, err := document.Read(e.Path)
	if err != nil {
		return model.ChartSummary{}, err
	}
	return model.ChartSummary{
		Chart:         e.Difficulty.Short(),
		Title:         doc.Info.Title,
		Level:         doc.Info.Level,
		InitBPM:       doc.Info.InitBPM,
		NumNotes:      doc.NumNotes(),
		NumChannels:   len(doc.SoundChannels),
		NumBPMChanges: len(doc.BPMEvents),
	}, nil
}
