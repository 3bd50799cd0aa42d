package midi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/chartdex/model"
	"github.com/jsphweid/chartdex/tempo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaneKey(t *testing.T) {
	assert := assert.New(t)
	ch, key := LaneKey(1)
	assert.Equal(uint8(0), ch)
	assert.Equal(uint8(36), key)

	ch, key = LaneKey(16)
	assert.Equal(uint8(1), ch)
	assert.Equal(uint8(43), key)
}

func TestExportChartRoundTrip(t *testing.T) {
	bpm := []tempo.BPMEvent{{Pulse: 0, BPM: 120}, {Pulse: 960, BPM: 150}}
	channels := []model.SoundChannel{
		{Name: "0000.wav", Notes: []model.Note{{Lane: 1, Pulse: 480, Length: 240}}},
		{Name: "0001.wav", Notes: []model.Note{{Lane: 9, Pulse: 720}}},
		{Name: "bgm.wav", Notes: []model.Note{{Lane: 0}}},
	}

	path := filepath.Join(t.TempDir(), "chart.mid")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ExportChart(f, "SP-A", bpm, channels))
	require.NoError(t, f.Close())

	s, err := ReadMidiFile(path)
	require.NoError(t, err)
	require.Len(t, s.Tracks, 2)

	var tempos []float64
	for _, ev := range s.Tracks[0] {
		var b float64
		if ev.Message.GetMetaTempo(&b) {
			tempos = append(tempos, b)
		}
	}
	assert.Equal(t, []float64{120, 150}, tempos)

	var ticks, keys []uint32
	var abs uint32
	for _, ev := range s.Tracks[1] {
		abs += ev.Delta
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) {
			ticks = append(ticks, abs)
			keys = append(keys, uint32(ch)<<8|uint32(key))
		}
	}
	assert.Equal(t, []uint32{480, 720}, ticks)
	assert.Equal(t, []uint32{36, 1<<8 | 36}, keys)
}

func TestReadMidiFileMissing(t *testing.T) {
	_, err := ReadMidiFile(filepath.Join(t.TempDir(), "nope.mid"))
	assert.Error(t, err)
}
