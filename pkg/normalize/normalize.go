// Package normalize maps heterogeneous upstream payloads into the one
// canonical record shape the rest of the pipeline consumes. Each source
// gets its own payload struct and mapping function; nothing outside this
// package ever inspects a source-specific field.
//
// Normalization is pure: a payload either yields one canonical record or
// fails with ErrMalformedRecord. Batch helpers skip malformed payloads
// and report how many were dropped; a bad record is never fatal to its
// batch.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ErrMalformedRecord marks an upstream payload that lacks the fields
// needed to establish record identity.
var ErrMalformedRecord = errors.New("malformed upstream record")

// flexID absorbs upstream ids that arrive as either JSON strings or
// numbers (intervals.icu uses both across API versions).
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// parseStartTime accepts the timestamp shapes seen upstream: RFC 3339
// with or without zone offset, and the bare local form intervals.icu
// emits for start_date_local.
func parseStartTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable start time %q", ErrMalformedRecord, s)
}

// cleanText normalizes free-text fields to NFC so names copied between
// platforms (emoji, accents) compare stably.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// paceSecPerKM derives average pace from duration and distance. Returns
// nil when the activity has no distance.
func paceSecPerKM(durationSec, distanceM float64) *float64 {
	if distanceM <= 0 || durationSec <= 0 {
		return nil
	}
	p := durationSec / (distanceM / 1000)
	return &p
}

func round(v float64) float64 {
	return math.Round(v)
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func logDropped(logger *slog.Logger, source string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("dropping malformed record", "source", source, "error", err)
}
