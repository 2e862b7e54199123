// Package brainvision loads BrainVision Core Data Format recordings: a
// .vhdr text header, a binary data file and an optional .vmrk marker file.
package brainvision

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// Module registers the BrainVision loader for ".vhdr".
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.Register(".vhdr", registry.NewStrategy("brainvision", Load), nil)
}

// Load reads the recording described by the .vhdr file at path. The data
// and marker files are resolved relative to the header's directory.
func Load(path string, _ bool) (types.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open header: %w", err)
	}
	s, err := parseINI(f, headerMagic, altMagic)
	f.Close()
	if err != nil {
		return nil, &types.CorruptedFileError{Path: path, Reason: err.Error()}
	}

	h, err := parseHeader(s)
	if err != nil {
		return nil, &types.CorruptedFileError{Path: path, Reason: err.Error()}
	}

	dir := filepath.Dir(path)
	data, err := binary.Open(filepath.Join(dir, h.dataFile))
	if err != nil {
		return nil, fmt.Errorf("data file for %s: %w", path, err)
	}
	defer data.Close()

	rec := &types.Continuous{
		Header: types.Header{
			Path:   path,
			Format: "BrainVision",
			Sfreq:  1e6 / h.interval,
		},
	}
	for _, ch := range h.channels {
		rec.Chs = append(rec.Chs, types.Channel{
			Name: ch.name,
			Unit: ch.unit,
			Type: types.InferChannelType(ch.name),
		})
	}

	rec.Data, err = readData(data.SafeReader, h)
	if err != nil {
		return nil, err
	}

	if h.markerFile != "" {
		markers, err := readMarkers(filepath.Join(dir, h.markerFile))
		if err != nil {
			rec.Warnings = append(rec.Warnings, types.Warning{
				Stage:   "annotations",
				Message: fmt.Sprintf("markers: %v", err),
			})
		}
		for _, m := range markers {
			if m.kind == "New Segment" && rec.MeasDate.IsZero() && !m.date.IsZero() {
				rec.MeasDate = m.date
			}
			rec.Events = append(rec.Events, m.annotation(rec.Sfreq))
		}
	}

	return rec, nil
}

// readData decodes the whole binary data file into calibrated rows.
func readData(sr *binary.SafeReader, h *header) ([][]float64, error) {
	nch := len(h.channels)
	size := h.format.Size()
	frame := int64(nch * size)
	n := int(sr.Size() / frame)

	buf, err := sr.Bytes(0, n*nch*size, "binary data")
	if err != nil {
		return nil, err
	}

	data := make([][]float64, nch)
	for c := range data {
		data[c] = make([]float64, n)
	}

	switch h.orientation {
	case multiplexed:
		for i := 0; i < n; i++ {
			for c := 0; c < nch; c++ {
				off := (i*nch + c) * size
				data[c][i] = h.format.Decode(buf[off:], binary.LittleEndian) * h.channels[c].resolution
			}
		}
	case vectorized:
		for c := 0; c < nch; c++ {
			row := buf[c*n*size : (c+1)*n*size]
			if err := binary.DecodeSamples(data[c], row, h.format, binary.LittleEndian); err != nil {
				return nil, fmt.Errorf("decode channel %s: %w", h.channels[c].name, err)
			}
			for i := range data[c] {
				data[c][i] *= h.channels[c].resolution
			}
		}
	}

	return data, nil
}
