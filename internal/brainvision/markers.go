package brainvision

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/eegview/internal/types"
)

type marker struct {
	date        time.Time
	kind        string
	description string
	position    int // 1-based sample index
	points      int
}

// readMarkers parses a .vmrk file.
func readMarkers(path string) ([]marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := parseINI(f, markerMagic, altMagic)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sec, err := s.GetSection("Marker Infos")
	if err != nil {
		return nil, nil
	}

	var out []marker
	for _, key := range sec.Keys() {
		if !strings.HasPrefix(key.Name(), "Mk") {
			continue
		}
		m, err := parseMarker(key.Value())
		if err != nil {
			return out, fmt.Errorf("%s %s: %w", path, key.Name(), err)
		}
		out = append(out, m)
	}
	return out, nil
}

// parseMarker decodes "Type,Description,Position,Points,Channel[,Date]".
func parseMarker(raw string) (marker, error) {
	fields := strings.Split(raw, ",")
	if len(fields) < 4 {
		return marker{}, fmt.Errorf("expected at least 4 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.ReplaceAll(fields[i], `\1`, ",")
	}

	pos, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return marker{}, fmt.Errorf("invalid position %q", fields[2])
	}
	points, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return marker{}, fmt.Errorf("invalid size %q", fields[3])
	}

	m := marker{
		kind:        fields[0],
		description: fields[1],
		position:    pos,
		points:      points,
	}
	if len(fields) > 5 {
		m.date = parseMarkerDate(strings.TrimSpace(fields[5]))
	}
	return m, nil
}

// parseMarkerDate decodes "YYYYMMDDhhmmssuuuuuu".
func parseMarkerDate(s string) time.Time {
	if len(s) != 20 {
		return time.Time{}
	}
	t, err := time.Parse("20060102150405", s[:14])
	if err != nil {
		return time.Time{}
	}
	us, err := strconv.Atoi(s[14:])
	if err != nil {
		return t
	}
	return t.Add(time.Duration(us) * time.Microsecond)
}

// annotation converts m to a recording annotation at sfreq. Stimulus
// markers read "Stimulus/S  1"; markers without a description keep only
// their type.
func (m marker) annotation(sfreq float64) types.Annotation {
	desc := m.kind
	if m.description != "" {
		desc += "/" + m.description
	}
	var dur float64
	if m.points > 1 {
		dur = float64(m.points) / sfreq
	}
	return types.Annotation{
		Onset:       float64(m.position-1) / sfreq,
		Duration:    dur,
		Description: desc,
	}
}
