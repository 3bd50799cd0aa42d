package model

type PayloadKind uint8

const (
	PayloadWAV PayloadKind = iota
	PayloadWMA
)

func (k PayloadKind) Extension() string {
	if k == PayloadWMA {
		return "wma"
	}
	return "wav"
}

// ContainerEntry is one raw audio payload pulled out of a sample container.
// Entries are shared read-only between every chart of a song.
type ContainerEntry struct {
	Index   uint32
	Payload []byte
	Kind    PayloadKind

	// set for the single entry of a "_pre" container
	Preview bool
}

// Filename is the name the raw payload is extracted under.
func (e ContainerEntry) Filename() string {
	if e.Preview {
		return "preview." + e.Kind.Extension()
	}
	return FormatSampleName(e.Index, e.Kind.Extension())
}
