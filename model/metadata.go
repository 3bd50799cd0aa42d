package model

// SongMetadata is the read-only record returned by a metadata lookup.
type SongMetadata struct {
	ID       uint32
	Title    string
	Subtitle string
	Artist   string
	Genre    string

	// keyed by Difficulty.Short()
	Levels map[string]int

	// ffmpeg volume multiplier for extracted samples
	Volume float64

	// shifts every background placement, in ms; may be negative
	BackgroundDelay int
}

func (m SongMetadata) Level(d Difficulty) int {
	return m.Levels[d.Short()]
}
