package song

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2/wav"
	"github.com/jsphweid/chartdex/chart"
	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/document"
	"github.com/jsphweid/chartdex/fixture"
	"github.com/jsphweid/chartdex/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLookup map[uint32]model.SongMetadata

func (l staticLookup) Lookup(_ context.Context, songID uint32) (model.SongMetadata, error) {
	meta, ok := l[songID]
	if !ok {
		return model.SongMetadata{}, &model.ExternalError{Op: "metadata lookup", Err: errors.New("missing")}
	}
	return meta, nil
}

var songMeta = staticLookup{20003: {
	ID:     20003,
	Title:  "Test Song",
	Artist: "Someone",
	Genre:  "TECHNO",
	Levels: map[string]int{"SP-A": 10, "SP-H": 7},
	Volume: 1.5,
}}

type copyTranscoder struct {
	mu      sync.Mutex
	volumes []float64
}

func (c *copyTranscoder) Transcode(_ context.Context, src, dst string, volume float64) error {
	c.mu.Lock()
	c.volumes = append(c.volumes, volume)
	c.mu.Unlock()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// pulses at a constant tempo, computed independently of the tempo package
func pulsesAt(ms, bpm uint64) uint64 {
	return ms * constants.Resolution * bpm / 60000
}

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func tempoAt(ms uint32, bpm uint16) model.ChartEvent {
	return model.ChartEvent{OffsetMs: ms, Kind: model.TempoChange, Param: 1, Value: bpm}
}

// setupSong lays out a contents directory with a two sample container.
func setupSong(t *testing.T, slots map[int][]model.ChartEvent) (contents string) {
	t.Helper()
	contents = t.TempDir()
	sound := filepath.Join(contents, "data", "sound", "20003")
	write(t, filepath.Join(sound, "20003.1"), fixture.ChartFile(slots))
	write(t, filepath.Join(sound, "20003.2dx"), fixture.Container2DX(
		fixture.WAV(44100, 2, 0.1, 440),
		fixture.WAV(22050, 1, 0.2, 220),
	))
	return contents
}

func newConverter(t *testing.T, contents string) *Converter {
	return &Converter{
		ContentsDir: contents,
		CustomDir:   t.TempDir(),
		OutDir:      t.TempDir(),
		Lookup:      songMeta,
	}
}

func TestConvertSingleNote(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		2: {
			tempoAt(0, 120),
			{OffsetMs: 1000, Kind: model.NoteP1, Param: 0, Value: 500},
		},
	})
	c := newConverter(t, contents)

	res, err := c.Convert(context.Background(), 20003)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, filepath.Join(c.OutDir, "20003", "20003 [SP ANOTHER].bmson"), res.Documents[0])

	doc, err := document.Read(res.Documents[0])
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(uint32(120), doc.Info.InitBPM)
	assert.Equal("Test Song", doc.Info.Title)
	assert.Equal("ANOTHER", doc.Info.ChartName)
	assert.Equal(10, doc.Info.Level)
	assert.Equal("beat-7k", doc.Info.ModeHint)
	require.Len(t, doc.SoundChannels, 1)
	assert.Equal("20003/0000.wav", doc.SoundChannels[0].Name)
	assert.Equal([]model.Note{{
		Lane:   1,
		Pulse:  pulsesAt(1000, 120),
		Length: pulsesAt(1500, 120) - pulsesAt(1000, 120),
	}}, doc.SoundChannels[0].Notes)

	assert.FileExists(filepath.Join(c.OutDir, "20003", "20003", "0000.wav"))
	assert.FileExists(filepath.Join(c.OutDir, "20003", "20003", "0001.wav"))
}

func TestConvertMixesBackground(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		6: {
			tempoAt(0, 150),
			{OffsetMs: 0, Kind: model.BackgroundSample, Value: 2},
			{OffsetMs: 250, Kind: model.BackgroundSample, Value: 1},
			{OffsetMs: 400, Kind: model.SampleAssignP2, Param: 3, Value: 2},
			{OffsetMs: 800, Kind: model.NoteP2, Param: 3},
		},
	})
	c := newConverter(t, contents)

	res, err := c.Convert(context.Background(), 20003)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)

	doc, err := document.Read(res.Documents[0])
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("beat-14k", doc.Info.ModeHint)
	require.Len(t, doc.SoundChannels, 2)
	assert.Equal("20003/0001.wav", doc.SoundChannels[0].Name)
	assert.Equal(12, doc.SoundChannels[0].Notes[0].Lane)
	assert.Equal("20003/20003-BGM-DP-H.wav", doc.SoundChannels[1].Name)
	assert.Equal([]model.Note{{}}, doc.SoundChannels[1].Notes)
	assert.FileExists(filepath.Join(c.OutDir, "20003", "20003", "20003-BGM-DP-H.wav"))
}

func TestConvertJoinsChartErrors(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		0: {
			tempoAt(0, 120),
			{OffsetMs: 0, Kind: model.SampleAssignP1, Param: 1, Value: 9},
			{OffsetMs: 500, Kind: model.NoteP1, Param: 1},
		},
		1: {
			tempoAt(0, 120),
			{OffsetMs: 500, Kind: model.NoteP1, Param: 1},
		},
	})
	c := newConverter(t, contents)

	res, err := c.Convert(context.Background(), 20003)

	var consistencyErr *model.ConsistencyError
	require.True(t, errors.As(err, &consistencyErr))
	assert.Equal(t, "SP HYPER", consistencyErr.Chart)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, filepath.Join(c.OutDir, "20003", "20003 [SP NORMAL].bmson"), res.Documents[0])
	assert.NoFileExists(t, filepath.Join(c.OutDir, "20003", "20003 [SP HYPER].bmson"))
}

func TestConvertTranscodesSamplesAndPreview(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		3: {
			tempoAt(0, 120),
			{OffsetMs: 0, Kind: model.NoteP1, Param: 8, Value: 1000},
		},
	})
	write(t, filepath.Join(contents, "data", "sound", "20003", "20003_pre.2dx"),
		fixture.Container2DX(fixture.WAV(44100, 2, 0.05, 330)))
	write(t, filepath.Join(contents, "data", "graphic", "i_20003_ifs", "i_20003.png"), []byte("png"))

	c := newConverter(t, contents)
	transcoder := &copyTranscoder{}
	c.Transcoder = transcoder

	res, err := c.Convert(context.Background(), 20003)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)

	doc, err := document.Read(res.Documents[0])
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("20003/preview.ogg", doc.Info.PreviewMusic)
	assert.Equal("i_20003.png", doc.Info.TitleImage)
	require.Len(t, doc.SoundChannels, 1)
	assert.Equal("20003/0000.ogg", doc.SoundChannels[0].Name)
	// multi-spin scratch: lane 8, two beats minus the trim
	assert.Equal([]model.Note{{Lane: 8, Pulse: 0, Length: 477}}, doc.SoundChannels[0].Notes)

	sampleDir := filepath.Join(c.OutDir, "20003", "20003")
	assert.FileExists(filepath.Join(sampleDir, "0000.ogg"))
	assert.NoFileExists(filepath.Join(sampleDir, "0000.wav"))
	assert.Len(transcoder.volumes, 3)
	for _, v := range transcoder.volumes {
		assert.Equal(1.5, v)
	}
}

func TestConvertSkipsExistingSamples(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		2: {tempoAt(0, 120), {OffsetMs: 0, Kind: model.NoteP1}},
	})
	c := newConverter(t, contents)
	transcoder := &copyTranscoder{}
	c.Transcoder = transcoder

	existing := filepath.Join(c.OutDir, "20003", "20003", "0000.ogg")
	write(t, existing, []byte("already here"))

	_, err := c.Convert(context.Background(), 20003)
	require.NoError(t, err)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "already here", string(data))
	assert.Len(t, transcoder.volumes, 1)
}

func TestConvertUnknownSong(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{2: {tempoAt(0, 120)}})
	c := newConverter(t, contents)
	c.Lookup = staticLookup{}

	_, err := c.Convert(context.Background(), 20003)
	var externalErr *model.ExternalError
	assert.True(t, errors.As(err, &externalErr))
}

func TestDecodeChart(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		2: {tempoAt(0, 120), {OffsetMs: 500, Kind: model.NoteP1, Param: 4}},
	})
	c := newConverter(t, contents)

	d, err := model.ParseDifficulty("SP-A")
	require.NoError(t, err)
	decoded, err := c.DecodeChart(20003, d)
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Notes)
	assert.Equal(t, []model.Note{{Lane: 5, Pulse: 240}}, decoded.Assembler.Channels()[0].Notes)

	missing, err := model.ParseDifficulty("DP-L")
	require.NoError(t, err)
	_, err = c.DecodeChart(20003, missing)
	assert.Error(t, err)
}

func TestPreValidateOption(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		2: {tempoAt(0, 120), {OffsetMs: 500, Kind: model.BackgroundSample, Value: 3}},
	})
	c := newConverter(t, contents)
	c.Options = chart.Options{PreValidate: true}

	res, err := c.Convert(context.Background(), 20003)
	var consistencyErr *model.ConsistencyError
	assert.True(t, errors.As(err, &consistencyErr))
	assert.Empty(t, res.Documents)
}

func TestOverwriteReexportsChangedContainer(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		2: {tempoAt(0, 120), {OffsetMs: 0, Kind: model.NoteP1}},
	})
	c := newConverter(t, contents)
	_, err := c.Convert(context.Background(), 20003)
	require.NoError(t, err)

	updated := fixture.WAV(44100, 2, 0.3, 550)
	write(t, filepath.Join(contents, "data", "sound", "20003", "20003.2dx"),
		fixture.Container2DX(updated, fixture.WAV(22050, 1, 0.2, 220)))
	sample := filepath.Join(c.OutDir, "20003", "20003", "0000.wav")

	_, err = c.Convert(context.Background(), 20003)
	require.NoError(t, err)
	data, err := os.ReadFile(sample)
	require.NoError(t, err)
	assert.NotEqual(t, updated, data, "existing samples are kept by default")

	c.Overwrite = true
	_, err = c.Convert(context.Background(), 20003)
	require.NoError(t, err)
	data, err = os.ReadFile(sample)
	require.NoError(t, err)
	assert.Equal(t, updated, data)
}

type recordingMixer struct {
	placements []model.Placement
}

func (m *recordingMixer) Mix(_ context.Context, placements []model.Placement, outName string) (string, error) {
	m.placements = placements
	return outName + ".wav", nil
}

func TestDelayMixerShiftsPlacements(t *testing.T) {
	rec := &recordingMixer{}
	placements := []model.Placement{
		{OffsetMs: 0, Reference: "a.wav"},
		{OffsetMs: 1000, Reference: "b.wav"},
	}

	_, err := delayMixer{Mixer: rec, delayMs: 250}.Mix(context.Background(), placements, "bgm")
	require.NoError(t, err)
	assert.Equal(t, []uint32{250, 1250}, []uint32{rec.placements[0].OffsetMs, rec.placements[1].OffsetMs})

	_, err = delayMixer{Mixer: rec, delayMs: -500}.Mix(context.Background(), placements, "bgm")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 500}, []uint32{rec.placements[0].OffsetMs, rec.placements[1].OffsetMs})
	assert.Equal(t, uint32(0), placements[0].OffsetMs, "input placements are not modified")
}

func TestConvertAppliesBackgroundDelay(t *testing.T) {
	contents := setupSong(t, map[int][]model.ChartEvent{
		2: {tempoAt(0, 120), {OffsetMs: 0, Kind: model.BackgroundSample, Value: 1}},
	})
	c := newConverter(t, contents)
	c.Lookup = staticLookup{20003: {ID: 20003, Title: "Delayed", Volume: 1, BackgroundDelay: 400}}

	_, err := c.Convert(context.Background(), 20003)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(c.OutDir, "20003", "20003", "20003-BGM-SP-A.wav"))
	require.NoError(t, err)
	defer f.Close()
	streamer, format, err := wav.Decode(f)
	require.NoError(t, err)
	defer streamer.Close()

	// 400ms of lead silence plus the 100ms sample
	assert.InDelta(t, format.SampleRate.N(500*time.Millisecond), streamer.Len(), 64)
}
