package song

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/chartdex/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentName(t *testing.T) {
	d, err := model.DifficultyForSlot(8)
	require.NoError(t, err)

	id, parsed, ok := ParseDocumentName(DocumentName(1001, d))
	require.True(t, ok)
	assert.Equal(t, uint32(1001), id)
	assert.Equal(t, d, parsed)

	_, _, ok = ParseDocumentName("01001 [XP HYPER].bmson")
	assert.False(t, ok)
	_, _, ok = ParseDocumentName("notes.txt")
	assert.False(t, ok)
}

func TestCatalogAndSummarize(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		7: {tempoAt(0, 120), {OffsetMs: 0, Kind: model.NoteP2, Param: 0}},
		2: {
			tempoAt(0, 120),
			tempoAt(1000, 180),
			{OffsetMs: 0, Kind: model.NoteP1, Param: 0},
			{OffsetMs: 1500, Kind: model.NoteP1, Param: 1},
		},
	})
	c := newConverter(t, contents)
	_, err := c.Convert(context.Background(), 20003)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(c.OutDir, "20003", "readme.bmson"), []byte("{}"), 0o644))

	entries, err := Catalog(c.OutDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SP-A", entries[0].Difficulty.Short())
	assert.Equal(t, "DP-N", entries[1].Difficulty.Short())

	summary, err := Summarize(entries[0])
	require.NoError(t, err)
	assert.Equal(t, model.ChartSummary{
		Chart:         "SP-A",
		Title:         "Test Song",
		Level:         10,
		InitBPM:       120,
		NumNotes:      2,
		NumChannels:   1,
		NumBPMChanges: 2,
	}, summary)
}
