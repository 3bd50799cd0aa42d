package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifficultyForSlot(t *testing.T) {
	assert := assert.New(t)

	d, err := DifficultyForSlot(2)
	require.NoError(t, err)
	assert.Equal("SP-A", d.Short())
	assert.Equal("SP ANOTHER", d.String())
	assert.Equal("beat-7k", d.ModeHint())

	d, err = DifficultyForSlot(10)
	require.NoError(t, err)
	assert.Equal("DP-L", d.Short())
	assert.Equal("beat-14k", d.ModeHint())

	for _, slot := range []int{5, 11, 12} {
		_, err := DifficultyForSlot(slot)
		var formatErr *FormatError
		assert.True(errors.As(err, &formatErr), "slot %d", slot)
	}
}

func TestParseDifficulty(t *testing.T) {
	assert := assert.New(t)

	short, err := ParseDifficulty("dp-n")
	require.NoError(t, err)
	long, err := ParseDifficulty("DP NORMAL")
	require.NoError(t, err)
	assert.Equal(short, long)
	assert.Equal(7, short.Slot)

	_, err = ParseDifficulty("SP-X")
	assert.Error(err)
}

func TestEntryFilename(t *testing.T) {
	assert.Equal(t, "0012.wma", ContainerEntry{Index: 12, Kind: PayloadWMA}.Filename())
	assert.Equal(t, "preview.wav", ContainerEntry{Kind: PayloadWAV, Preview: true}.Filename())
}
