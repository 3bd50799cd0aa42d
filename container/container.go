package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
)

var errTruncated = &model.FormatError{Msg: "unexpected end of container"}

func readAt(r io.ReaderAt, off int64, buf []byte) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return errTruncated
	}
	return fmt.Errorf("reading container at 0x%X: %w", off, err)
}

func readUint32(r io.ReaderAt, off int64) (uint32, error) {
	var buf [4]byte
	if err := readAt(r, off, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// sizeOf reports the source length when the reader knows it.
func sizeOf(r io.ReaderAt) (int64, bool) {
	switch src := r.(type) {
	case interface{ Size() int64 }:
		return src.Size(), true
	case *os.File:
		info, err := src.Stat()
		if err != nil {
			return 0, false
		}
		return info.Size(), true
	}
	return 0, false
}

// readPayload never allocates more than the source actually holds.
func readPayload(r io.ReaderAt, off int64, size uint32) ([]byte, error) {
	if total, ok := sizeOf(r); ok && off+int64(size) > total {
		return nil, errTruncated
	}
	payload, err := io.ReadAll(io.NewSectionReader(r, off, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("reading container at 0x%X: %w", off, err)
	}
	if len(payload) != int(size) {
		return nil, errTruncated
	}
	return payload, nil
}

// Extract reads every entry of a container. Any bad entry fails the whole
// container; there is no partial result.
func Extract(r io.ReaderAt, dialect Dialect, preview bool) ([]model.ContainerEntry, error) {
	l, ok := layouts[dialect]
	if !ok {
		return nil, &model.FormatError{Msg: "unsupported container kind"}
	}

	count, err := readUint32(r, l.countOffset)
	if err != nil {
		return nil, err
	}
	slog.Debug("reading container", "dialect", dialect, "entries", count)

	if total, ok := sizeOf(r); ok && l.tableBase+int64(count)*l.tableStride > total {
		return nil, errTruncated
	}

	var entries []model.ContainerEntry
	for i := uint32(0); i < count; i++ {
		entry, err := readEntry(r, l, i)
		if err != nil {
			return nil, err
		}
		entry.Preview = preview
		entries = append(entries, entry)
	}
	return entries, nil
}

func readEntry(r io.ReaderAt, l layout, i uint32) (model.ContainerEntry, error) {
	var entry model.ContainerEntry

	offset, err := readUint32(r, l.tableBase+int64(i)*l.tableStride)
	if err != nil {
		return entry, err
	}
	entryOffset := int64(offset)

	var magic [4]byte
	if err := readAt(r, entryOffset, magic[:]); err != nil {
		return entry, err
	}
	if magic != l.magic {
		return entry, &model.FormatError{Msg: fmt.Sprintf("entry %d invalid magic", i)}
	}

	rawDataOffset, err := readUint32(r, entryOffset+4)
	if err != nil {
		return entry, err
	}
	if rawDataOffset < constants.EntryHeaderSize {
		return entry, &model.FormatError{Msg: fmt.Sprintf("entry %d invalid data offset %d", i, rawDataOffset)}
	}
	dataOffset := int64(rawDataOffset) - constants.EntryHeaderSize

	dataSize, err := readUint32(r, entryOffset+8)
	if err != nil {
		return entry, err
	}

	payload, err := readPayload(r, entryOffset+4+4+dataOffset, dataSize)
	if err != nil {
		return entry, err
	}

	entry.Index = i
	entry.Payload = payload
	entry.Kind = l.kind
	return entry, nil
}

// ExtractFile opens a container, choosing the dialect from its name.
func ExtractFile(path string) ([]model.ContainerEntry, error) {
	dialect, preview, err := DialectForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}
	defer f.Close()

	entries, err := Extract(f, dialect, preview)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
