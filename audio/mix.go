package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/jsphweid/chartdex/model"
)

const mixSampleRate = beep.SampleRate(44100)

var mixFormat = beep.Format{SampleRate: mixSampleRate, NumChannels: 2, Precision: 2}

// BeepMixer renders background placements into a single track. Placement
// references are relative to Dir and so is the returned reference.
// Sources that are not WAV, and the final encode when Ext is not "wav", go
// through Transcoder.
type BeepMixer struct {
	Dir        string
	Ext        string
	Transcoder Transcoder
}

func (m *BeepMixer) ext() string {
	if m.Ext == "" {
		return "wav"
	}
	return m.Ext
}

// Mix places every sample at its offset and sums them.
func (m *BeepMixer) Mix(ctx context.Context, placements []model.Placement, outName string) (string, error) {
	if len(placements) == 0 {
		return "", fmt.Errorf("nothing to mix for %s", outName)
	}

	buffers := make(map[string]*beep.Buffer)
	streams := make([]beep.Streamer, 0, len(placements))
	for _, p := range placements {
		buf, ok := buffers[p.Reference]
		if !ok {
			var err error
			buf, err = m.load(ctx, p.Reference)
			if err != nil {
				return "", err
			}
			buffers[p.Reference] = buf
		}
		slog.Debug("placing background sample", "sample", p.Reference, "offset_ms", p.OffsetMs)
		lead := beep.Silence(mixSampleRate.N(time.Duration(p.OffsetMs) * time.Millisecond))
		streams = append(streams, beep.Seq(lead, buf.Streamer(0, buf.Len())))
	}

	wavRef := outName + ".wav"
	wavPath := filepath.Join(m.Dir, wavRef)
	if m.ext() != "wav" {
		wavPath = filepath.Join(os.TempDir(), "chartdex-"+uuid.New().String()+".wav")
	}
	if err := writeWAV(wavPath, beep.Mix(streams...)); err != nil {
		return "", err
	}
	if m.ext() == "wav" {
		return wavRef, nil
	}
	defer os.Remove(wavPath)

	ref := outName + "." + m.ext()
	if m.Transcoder == nil {
		return "", fmt.Errorf("no transcoder to encode %s", ref)
	}
	dst := filepath.Join(m.Dir, ref)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := m.Transcoder.Transcode(ctx, wavPath, dst, 1); err != nil {
		return "", err
	}
	return ref, nil
}

func writeWAV(path string, s beep.Streamer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wav.Encode(f, s, mixFormat); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// load decodes one sample into memory at the mix sample rate.
func (m *BeepMixer) load(ctx context.Context, ref string) (*beep.Buffer, error) {
	path := filepath.Join(m.Dir, ref)
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		if m.Transcoder == nil {
			return nil, fmt.Errorf("cannot decode %s without a transcoder", ref)
		}
		tmp := filepath.Join(os.TempDir(), "chartdex-"+uuid.New().String()+".wav")
		if err := m.Transcoder.Transcode(ctx, path, tmp, 1); err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		path = tmp
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ref, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != mixSampleRate {
		s = beep.Resample(4, format.SampleRate, mixSampleRate, streamer)
	}
	buf := beep.NewBuffer(mixFormat)
	buf.Append(s)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}
	return buf, nil
}
