package constants

// pulses per beat in the output document
const Resolution = 240

// chart stream records are offset(4) type(1) param(1) value(2)
const RecordSize = 8

// the chart directory at the start of a chart file: 12 (offset, size) pairs
const DirectorySlots = 12
const DirectoryStride = 8

var EndOfChart = [RecordSize]byte{0xFF, 0xFF, 0xFF, 0x7F, 0x00, 0x00, 0x00, 0x00}

// keys 0-6 are buttons, 7 is the turntable
const KeysPerPlayer = 8
const ScratchKey = 7

// a note on this key is a multi-spin scratch; in an assignment event it is malformed
const MultiSpinScratchKey = 8

// pulses trimmed from multi-spin scratch holds so the next scratch does not
// land inside the previous hold's timing window
const MultiSpinTrim = 3

// the container's relative data offset counts from the 8 byte entry header
const EntryHeaderSize = 8

const BmsonVersion = "1.0.0"
