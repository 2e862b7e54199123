package gdf

import (
	"fmt"
	"math"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/types"
)

// Event table modes.
const (
	eventModePositions = 1 // positions and types only
	eventModeDurations = 3 // adds channel and duration
)

// parseEvents decodes the event table at off. Positions are 1-based sample
// indices at the table's own sampling rate, falling back to sfreq when the
// table does not declare one.
func parseEvents(sr *binary.SafeReader, off int64, major int, sfreq float64) ([]types.Annotation, error) {
	head, err := sr.Bytes(off, 8, "event table header")
	if err != nil {
		return nil, err
	}

	mode := head[0]
	var (
		n    int
		rate float64
	)
	if major == 1 {
		rate = float64(uint32(head[1]) | uint32(head[2])<<8 | uint32(head[3])<<16)
		n = int(binary.LittleEndian.ByteOrder().Uint32(head[4:8]))
	} else {
		n = int(uint32(head[1]) | uint32(head[2])<<8 | uint32(head[3])<<16)
		rate = float64(math.Float32frombits(binary.LittleEndian.ByteOrder().Uint32(head[4:8])))
	}
	if rate <= 0 {
		rate = sfreq
	}
	if mode != eventModePositions && mode != eventModeDurations {
		return nil, fmt.Errorf("unsupported event table mode %d", mode)
	}
	if n == 0 {
		return nil, nil
	}

	r := binary.NewReaderLE(sr, off+8)
	positions := make([]uint32, n)
	codes := make([]uint16, n)
	durations := make([]uint32, n)
	cr := binary.NewChainReader(r)
	for i := range positions {
		positions[i] = binary.ReadChained[uint32](cr, "event position")
	}
	for i := range codes {
		codes[i] = binary.ReadChained[uint16](cr, "event type")
	}
	if mode == eventModeDurations {
		cr.Skip(int64(2 * n)) // channel
		for i := range durations {
			durations[i] = binary.ReadChained[uint32](cr, "event duration")
		}
	}
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read event table: %w", err)
	}

	events := make([]types.Annotation, n)
	for i := range events {
		events[i] = types.Annotation{
			Onset:       float64(int64(positions[i])-1) / rate,
			Duration:    float64(durations[i]) / rate,
			Description: fmt.Sprintf("0x%04X", codes[i]),
		}
	}
	return events, nil
}
