package model

import "fmt"

// FormatError reports a malformed container or chart.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "format error: " + e.Msg
}

// ConsistencyError reports a chart referencing samples its container does not have,
// which almost always means the wrong container was paired with the chart.
type ConsistencyError struct {
	Chart string
	Msg   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("chart %s: %s", e.Chart, e.Msg)
}

// ExternalError wraps a failure of a collaborator (metadata lookup, transcoder, mixer).
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}
