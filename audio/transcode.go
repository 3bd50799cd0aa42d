// Package audio holds the collaborators that touch audio data: an ffmpeg backed
// transcoder and a background track mixer.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GiGurra/cmder"
)

type Transcoder interface {
	Transcode(ctx context.Context, src, dst string, volume float64) error
}

// FFmpegTranscoder shells out to ffmpeg; the codec follows dst's extension.
type FFmpegTranscoder struct {
	Path    string
	Timeout time.Duration
}

func NewFFmpegTranscoder(path string) *FFmpegTranscoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegTranscoder{Path: path, Timeout: 2 * time.Minute}
}

func codecArgs(dst string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(dst)) {
	case ".ogg":
		return []string{"-c:a", "libvorbis", "-q:a", "9"}, nil
	case ".wav":
		return []string{"-c:a", "pcm_s16le"}, nil
	}
	return nil, fmt.Errorf("no codec for %s", dst)
}

// Args builds the ffmpeg command line for one conversion.
func (t *FFmpegTranscoder) Args(src, dst string, volume float64) ([]string, error) {
	codec, err := codecArgs(dst)
	if err != nil {
		return nil, err
	}
	if volume <= 0 {
		volume = 1
	}
	args := []string{t.Path, "-i", src, "-filter:a", "volume=" + strconv.FormatFloat(volume, 'f', -1, 64)}
	args = append(args, codec...)
	args = append(args, "-vn", "-v", "quiet", "-y", dst)
	return args, nil
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, src, dst string, volume float64) error {
	args, err := t.Args(src, dst, volume)
	if err != nil {
		return err
	}

	slog.Debug("transcoding", "src", filepath.Base(src), "dst", filepath.Base(dst))
	result := cmder.New(args...).
		WithAttemptTimeout(t.Timeout).
		Run(ctx)
	if result.Err != nil {
		if result.Combined != "" {
			return fmt.Errorf("ffmpeg %s: %w\n%s", filepath.Base(src), result.Err, result.Combined)
		}
		return fmt.Errorf("ffmpeg %s: %w", filepath.Base(src), result.Err)
	}
	return nil
}
