// Package file finds a song's game files on disk and packages converted output.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/chartdex/model"
	"github.com/mholt/archives"
)

// SongFiles are the inputs for one song. Only Chart and Container are required.
type SongFiles struct {
	SongID    uint32
	Chart     string
	Container string
	Preview   string

	TitleImage string
	Eyecatch   string
	Video      string
}

// SongKey is the directory and file name form of a song id.
func SongKey(songID uint32) string {
	return fmt.Sprintf("%05d", songID)
}

// sound directories are either loose or unpacked from an ifs archive
func soundDirs(contentsDir, key string) []string {
	return []string{
		filepath.Join(contentsDir, "data", "sound", key),
		filepath.Join(contentsDir, "data", "sound", key+"_ifs", key),
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if exists(p) {
			return p
		}
	}
	return ""
}

func inSoundDirs(dirs []string, names ...string) string {
	var candidates []string
	for _, dir := range dirs {
		for _, name := range names {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	return firstExisting(candidates...)
}

func Locate(contentsDir, customDir string, songID uint32) (*SongFiles, error) {
	key := SongKey(songID)
	dirs := soundDirs(contentsDir, key)

	files := &SongFiles{
		SongID:    songID,
		Chart:     inSoundDirs(dirs, key+".1"),
		Container: inSoundDirs(dirs, key+".2dx", key+".s3p"),
		Preview:   inSoundDirs(dirs, key+"_pre.2dx"),
		TitleImage: firstExisting(
			filepath.Join(contentsDir, "data", "graphic", "i_"+key+"_ifs", "i_"+key+".png"),
		),
		Eyecatch: firstExisting(filepath.Join(customDir, "eyecatches", key+".jpg")),
		Video: firstExisting(
			filepath.Join(customDir, "videos", key+".mp4"),
			filepath.Join(contentsDir, "data", "movie", key+".mp4"),
		),
	}

	if files.Chart == "" {
		return nil, &model.ExternalError{Op: "locating chart file", Err: fmt.Errorf("%s.1: %w", key, os.ErrNotExist)}
	}
	if files.Container == "" {
		return nil, &model.ExternalError{Op: "locating sample container", Err: fmt.Errorf("%s.2dx/.s3p: %w", key, os.ErrNotExist)}
	}
	return files, nil
}

// CopyAsset copies src into dir and returns the copied file's base name.
// An empty src is a no-op.
func CopyAsset(src, dir string) (string, error) {
	if src == "" {
		return "", nil
	}
	name := filepath.Base(src)
	dst := filepath.Join(dir, name)
	if exists(dst) {
		return name, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copying %s: %w", name, err)
	}
	return name, out.Close()
}

func archiveFormat(dst string) (archives.Archiver, error) {
	lower := strings.ToLower(dst)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return archives.Zip{}, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return archives.CompressedArchive{Archival: archives.Tar{}, Compression: archives.Gz{}}, nil
	case strings.HasSuffix(lower, ".tar.zst"):
		return archives.CompressedArchive{Archival: archives.Tar{}, Compression: archives.Zstd{}}, nil
	case strings.HasSuffix(lower, ".tar"):
		return archives.Tar{}, nil
	}
	return nil, fmt.Errorf("unsupported archive type: %s", filepath.Base(dst))
}

// Archive packs songDir into dst, with the directory name as the top level entry.
func Archive(ctx context.Context, songDir, dst string) error {
	archiver, err := archiveFormat(dst)
	if err != nil {
		return err
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		songDir: filepath.Base(songDir),
	})
	if err != nil {
		return fmt.Errorf("collecting %s: %w", songDir, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := archiver.Archive(ctx, out, files); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("archiving %s: %w", songDir, err)
	}
	return out.Close()
}
