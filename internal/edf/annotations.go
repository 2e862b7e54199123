package edf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/simonhull/eegview/internal/types"
)

// TAL (time-stamped annotation list) separators.
const (
	talDuration = 0x15
	talText     = 0x14
	talEnd      = 0x00
)

// parseTALs decodes the annotation signal bytes of one data record.
//
// Each TAL is "+onset[\x15duration]\x14text\x14[text\x14...]\x00". The first
// TAL of every record only keeps time and has no text; it yields no
// annotation. Parsing continues past a malformed TAL and returns the first
// error alongside whatever was decoded.
func parseTALs(b []byte) ([]types.Annotation, error) {
	var (
		out      []types.Annotation
		firstErr error
	)

	for _, tal := range bytes.Split(b, []byte{talEnd}) {
		if len(tal) == 0 {
			continue
		}
		parts := bytes.Split(tal, []byte{talText})
		onset, duration, err := parseTiming(parts[0])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, text := range parts[1:] {
			if len(text) == 0 {
				continue
			}
			out = append(out, types.Annotation{
				Onset:       onset,
				Duration:    duration,
				Description: string(text),
			})
		}
	}

	return out, firstErr
}

func parseTiming(b []byte) (onset, duration float64, err error) {
	onsetField, durationField, hasDuration := bytes.Cut(b, []byte{talDuration})
	if len(onsetField) == 0 || (onsetField[0] != '+' && onsetField[0] != '-') {
		return 0, 0, fmt.Errorf("TAL onset %q must start with a sign", onsetField)
	}
	onset, err = strconv.ParseFloat(string(onsetField), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("TAL onset %q: %w", onsetField, err)
	}
	if hasDuration && len(durationField) > 0 {
		duration, err = strconv.ParseFloat(string(durationField), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("TAL duration %q: %w", durationField, err)
		}
	}
	return onset, duration, nil
}
