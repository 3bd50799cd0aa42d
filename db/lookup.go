// Package db looks up song metadata from a CSV export or a DynamoDB table.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jsphweid/chartdex/model"
)

type Lookup interface {
	Lookup(ctx context.Context, songID uint32) (model.SongMetadata, error)
}

// level columns, one per difficulty short name
var levelColumns = []string{"SP-B", "SP-N", "SP-H", "SP-A", "SP-L", "DP-B", "DP-N", "DP-H", "DP-A", "DP-L"}

func notFound(songID uint32) error {
	return &model.ExternalError{Op: "metadata lookup", Err: fmt.Errorf("song %05d not found", songID)}
}

// Sanitize blanks missing cells and replaces non-breaking spaces.
func Sanitize(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "nan") {
		return ""
	}
	return strings.ReplaceAll(s, "\u00a0", " ")
}
