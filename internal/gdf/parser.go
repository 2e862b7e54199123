// Package gdf loads General Data Format for biomedical signals files,
// versions 1.x and 2.x.
package gdf

import (
	"fmt"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// Module registers the GDF loader for ".gdf".
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.Register(".gdf", registry.NewStrategy("gdf", Load), nil)
}

// Load reads a GDF file.
func Load(path string, _ bool) (types.Recording, error) {
	f, err := binary.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := Parse(f.SafeReader)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Parse decodes a complete GDF file from sr, including the event table
// that follows the data records.
func Parse(sr *binary.SafeReader) (*types.Continuous, error) {
	h, err := parseHeader(sr)
	if err != nil {
		return nil, err
	}

	rec := &types.Continuous{
		Header: types.Header{
			Path:     sr.Path(),
			Format:   h.formatName(),
			MeasDate: h.start,
		},
	}

	maxSamp := 0
	for _, s := range h.signals {
		maxSamp = max(maxSamp, s.nsamp)
		rec.Chs = append(rec.Chs, types.Channel{
			Name: s.label,
			Unit: s.unit,
			Type: channelType(s),
		})
	}
	if h.recordDuration > 0 {
		rec.Sfreq = float64(maxSamp) / h.recordDuration
	} else {
		rec.Sfreq = float64(maxSamp)
		rec.Warnings = append(rec.Warnings, types.Warning{
			Stage:   "header",
			Message: "data record duration is 0, assuming 1 second",
		})
	}

	rec.Data = make([][]float64, len(h.signals))
	for i := range rec.Data {
		rec.Data[i] = make([]float64, int(h.numRecords)*maxSamp)
	}

	recSize := h.recordSize()
	raw := make([]float64, maxSamp)
	for r := int64(0); r < h.numRecords; r++ {
		off := h.headerBytes + r*recSize
		buf, err := sr.Bytes(off, int(recSize), fmt.Sprintf("data record %d", r))
		if err != nil {
			return nil, err
		}

		pos := 0
		for i, s := range h.signals {
			n := s.nsamp
			size := n * s.format.Size()
			if err := binary.DecodeSamples(raw[:n], buf[pos:pos+size], s.format, binary.LittleEndian); err != nil {
				return nil, fmt.Errorf("decode record %d: %w", r, err)
			}
			pos += size

			gain, offset := s.calibration()
			out := rec.Data[i][int(r)*maxSamp : int(r+1)*maxSamp]
			for j := range out {
				out[j] = raw[j*n/maxSamp]*gain + offset
			}
		}
	}

	if h.truncated > 0 {
		rec.Warnings = append(rec.Warnings, types.Warning{
			Stage:   "data",
			Message: fmt.Sprintf("header claims %d data records but the file holds %d", h.truncated, h.numRecords),
		})
	}

	eventsAt := h.headerBytes + h.numRecords*recSize
	if h.truncated == 0 && eventsAt < sr.Size() {
		events, err := parseEvents(sr, eventsAt, h.major(), rec.Sfreq)
		if err != nil {
			rec.Warnings = append(rec.Warnings, types.Warning{
				Stage:   "annotations",
				Message: err.Error(),
				Offset:  eventsAt,
			})
		}
		rec.Events = events
	}

	return rec, nil
}

func channelType(s signal) types.ChannelType {
	if t := types.ParseChannelType(s.transducer); t != types.ChannelUnknown {
		return t
	}
	return types.InferChannelType(s.label)
}
