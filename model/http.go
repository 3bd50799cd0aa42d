package model

type SongSummary struct {
	SongID uint32   `json:"song_id"`
	Charts []string `json:"charts"`
}

type ChartSummary struct {
	Chart         string `json:"chart"`
	Title         string `json:"title"`
	Level         int    `json:"level"`
	InitBPM       uint32 `json:"init_bpm"`
	NumNotes      int    `json:"num_notes"`
	NumChannels   int    `json:"num_channels"`
	NumBPMChanges int    `json:"num_bpm_changes"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
