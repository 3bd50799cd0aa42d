package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2/wav"
	"github.com/jsphweid/chartdex/fixture"
	"github.com/jsphweid/chartdex/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyTranscoder pretends to convert by copying bytes; fixtures are WAV whatever their name
type copyTranscoder struct {
	calls [][2]string
}

func (c *copyTranscoder) Transcode(_ context.Context, src, dst string, _ float64) error {
	c.calls = append(c.calls, [2]string{filepath.Base(src), filepath.Base(dst)})
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func writeFixture(t *testing.T, path string, data []byte) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func decodedFrames(t *testing.T, path string) int {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	s, format, err := wav.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, mixSampleRate, format.SampleRate)
	return s.Len()
}

func TestMixPlacesSamplesAtOffsets(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "20003", "0000.wav"), fixture.WAV(44100, 1, 0.1, 440))
	writeFixture(t, filepath.Join(dir, "20003", "0001.wav"), fixture.WAV(22050, 2, 0.2, 220))

	mixer := &BeepMixer{Dir: dir}
	ref, err := mixer.Mix(context.Background(), []model.Placement{
		{OffsetMs: 0, Reference: "20003/0000.wav"},
		{OffsetMs: 500, Reference: "20003/0001.wav"},
		{OffsetMs: 50, Reference: "20003/0000.wav"},
	}, "20003/20003-BGM-SP-H")
	require.NoError(t, err)
	assert.Equal(t, "20003/20003-BGM-SP-H.wav", ref)

	// the last sample ends at 500ms + 200ms
	assert.InDelta(t, 44100*0.7, decodedFrames(t, filepath.Join(dir, ref)), 64)
}

func TestMixTranscodesNonWAV(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "30001", "0000.wma"), fixture.WAV(44100, 2, 0.25, 330))

	transcoder := &copyTranscoder{}
	mixer := &BeepMixer{Dir: dir, Ext: "ogg", Transcoder: transcoder}
	ref, err := mixer.Mix(context.Background(), []model.Placement{{OffsetMs: 0, Reference: "30001/0000.wma"}}, "30001/30001-BGM-DP-A")
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("30001/30001-BGM-DP-A.ogg", ref)
	assert.FileExists(filepath.Join(dir, ref))
	require.Len(t, transcoder.calls, 2)
	assert.Equal("0000.wma", transcoder.calls[0][0])
	assert.Equal("30001-BGM-DP-A.ogg", transcoder.calls[1][1])
}

func TestMixWithoutTranscoderRejectsWMA(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "0000.wma"), []byte("not audio"))

	_, err := (&BeepMixer{Dir: dir}).Mix(context.Background(), []model.Placement{{Reference: "0000.wma"}}, "bgm")
	assert.Error(t, err)
}

func TestFFmpegArgs(t *testing.T) {
	tr := NewFFmpegTranscoder("")

	args, err := tr.Args("in.wav", "out.ogg", 1.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"ffmpeg", "-i", "in.wav", "-filter:a", "volume=1.5", "-c:a", "libvorbis", "-q:a", "9", "-vn", "-v", "quiet", "-y", "out.ogg"}, args)

	args, err = tr.Args("in.wma", "out.wav", 0)
	require.NoError(t, err)
	assert.Contains(t, args, "volume=1")
	assert.Contains(t, args, "pcm_s16le")

	_, err = tr.Args("in.wav", "out.flac", 1)
	assert.Error(t, err)
}
