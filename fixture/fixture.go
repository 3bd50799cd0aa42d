// Package fixture builds synthetic containers, chart files and audio for tests.
package fixture

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/jsphweid/chartdex/constants"
	"github.com/jsphweid/chartdex/model"
)

const entryHeaderLen = 24

func putUint32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}

func appendEntry(out []byte, magic string, payload []byte) []byte {
	hdr := make([]byte, entryHeaderLen)
	copy(hdr, magic)
	putUint32(hdr, 4, entryHeaderLen)
	putUint32(hdr, 8, uint32(len(payload)))
	out = append(out, hdr...)
	return append(out, payload...)
}

// Container2DX lays payloads out the way a .2dx file does.
func Container2DX(payloads ...[]byte) []byte {
	tableEnd := 0x48 + 4*len(payloads)
	out := make([]byte, tableEnd)
	copy(out, "synthetic")
	putUint32(out, 0x14, uint32(len(payloads)))
	for i, p := range payloads {
		putUint32(out, 0x48+4*i, uint32(len(out)))
		out = appendEntry(out, "2DX9", p)
	}
	return out
}

// ContainerS3P lays payloads out the way a .s3p file does.
func ContainerS3P(payloads ...[]byte) []byte {
	tableEnd := 8 + 8*len(payloads)
	out := make([]byte, tableEnd)
	copy(out, "S3P0")
	putUint32(out, 0x04, uint32(len(payloads)))
	for i, p := range payloads {
		putUint32(out, 8+8*i, uint32(len(out)))
		putUint32(out, 8+8*i+4, uint32(entryHeaderLen+len(p)))
		out = appendEntry(out, "S3V0", p)
	}
	return out
}

// Records encodes events followed by the end of chart sentinel.
func Records(events ...model.ChartEvent) []byte {
	var buf bytes.Buffer
	for _, e := range events {
		var rec [constants.RecordSize]byte
		binary.LittleEndian.PutUint32(rec[0:4], e.OffsetMs)
		rec[4] = byte(e.Kind)
		rec[5] = e.Param
		binary.LittleEndian.PutUint16(rec[6:8], e.Value)
		buf.Write(rec[:])
	}
	buf.Write(constants.EndOfChart[:])
	return buf.Bytes()
}

// ChartFile builds a chart file with a directory pointing at each slot's stream.
func ChartFile(slots map[int][]model.ChartEvent) []byte {
	dirLen := constants.DirectorySlots * constants.DirectoryStride
	out := make([]byte, dirLen)
	for slot := 0; slot < constants.DirectorySlots; slot++ {
		events, ok := slots[slot]
		if !ok {
			continue
		}
		stream := Records(events...)
		putUint32(out, slot*constants.DirectoryStride, uint32(len(out)))
		putUint32(out, slot*constants.DirectoryStride+4, uint32(len(stream)))
		out = append(out, stream...)
	}
	return out
}

// WAV renders a 16 bit PCM sine wave.
func WAV(sampleRate, channels int, seconds float64, freq float64) []byte {
	frames := int(float64(sampleRate) * seconds)
	dataLen := frames * channels * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for i := 0; i < frames; i++ {
		v := int16(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 8000)
		for c := 0; c < channels; c++ {
			binary.Write(&buf, binary.LittleEndian, v)
		}
	}
	return buf.Bytes()
}
