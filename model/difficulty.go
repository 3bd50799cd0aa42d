package model

import (
	"fmt"
	"strings"
)

// Difficulty identifies a chart slot inside a chart file's directory.
type Difficulty struct {
	Slot      int
	Style     string // "SP" or "DP"
	ChartName string
}

// the chart directory has 12 slots; 5 and 11 are never populated
var difficultiesBySlot = map[int]Difficulty{
	0:  {Slot: 0, Style: "SP", ChartName: "HYPER"},
	1:  {Slot: 1, Style: "SP", ChartName: "NORMAL"},
	2:  {Slot: 2, Style: "SP", ChartName: "ANOTHER"},
	3:  {Slot: 3, Style: "SP", ChartName: "BEGINNER"},
	4:  {Slot: 4, Style: "SP", ChartName: "LEGGENDARIA"},
	6:  {Slot: 6, Style: "DP", ChartName: "HYPER"},
	7:  {Slot: 7, Style: "DP", ChartName: "NORMAL"},
	8:  {Slot: 8, Style: "DP", ChartName: "ANOTHER"},
	9:  {Slot: 9, Style: "DP", ChartName: "BEGINNER"},
	10: {Slot: 10, Style: "DP", ChartName: "LEGGENDARIA"},
}

func DifficultyForSlot(slot int) (Difficulty, error) {
	d, ok := difficultiesBySlot[slot]
	if !ok {
		return Difficulty{}, &FormatError{Msg: fmt.Sprintf("chart directory slot %d is not a known difficulty", slot)}
	}
	return d, nil
}

// ParseDifficulty accepts the short form used on the command line, e.g. "SP-A",
// as well as the long form used in file names, e.g. "SP ANOTHER".
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, d := range difficultiesBySlot {
		if d.Short() == s || d.String() == s {
			return d, nil
		}
	}
	return Difficulty{}, fmt.Errorf("unknown difficulty %q", s)
}

// Short is the column / file name form, e.g. "SP-H".
func (d Difficulty) Short() string {
	return d.Style + "-" + d.ChartName[:1]
}

func (d Difficulty) ModeHint() string {
	if d.Style == "DP" {
		return "beat-14k"
	}
	return "beat-7k"
}

func (d Difficulty) String() string {
	return d.Style + " " + d.ChartName
}
