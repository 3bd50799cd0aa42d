package container

import (
	"path/filepath"
	"strings"

	"github.com/jsphweid/chartdex/model"
)

// Dialect is one of the two container layouts. The set is closed.
type Dialect uint8

const (
	Dialect2DX Dialect = iota + 1
	DialectS3P
)

type layout struct {
	countOffset int64
	tableBase   int64
	tableStride int64
	magic       [4]byte
	kind        model.PayloadKind
}

var layouts = map[Dialect]layout{
	Dialect2DX: {countOffset: 0x14, tableBase: 0x48, tableStride: 4, magic: [4]byte{'2', 'D', 'X', '9'}, kind: model.PayloadWAV},
	DialectS3P: {countOffset: 0x04, tableBase: 0x08, tableStride: 8, magic: [4]byte{'S', '3', 'V', '0'}, kind: model.PayloadWMA},
}

func (d Dialect) String() string {
	switch d {
	case Dialect2DX:
		return "2dx"
	case DialectS3P:
		return "s3p"
	}
	return "unknown"
}

// DialectForPath picks the dialect from the file extension and reports whether
// the file is a one-entry preview container ("<id>_pre.2dx").
func DialectForPath(path string) (Dialect, bool, error) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	preview := strings.HasSuffix(stem, "_pre")

	switch ext {
	case ".2dx":
		return Dialect2DX, preview, nil
	case ".s3p":
		return DialectS3P, preview, nil
	}
	return 0, false, &model.FormatError{Msg: "unsupported container kind"}
}

// ContainerID is the song id part of a container file name, without "_pre".
func ContainerID(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(stem, "_pre")
}
