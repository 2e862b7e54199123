// Package edf loads European Data Format recordings (EDF, EDF+) and their
// 24-bit BioSemi variant (BDF, BDF+).
package edf

import (
	"fmt"
	"slices"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// Module registers the EDF loader for ".edf".
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.Register(".edf", registry.NewStrategy("edf", Load), nil)
}

// BDFModule registers the BDF loader for ".bdf".
type BDFModule struct{}

// Register implements registry.Module.
func (BDFModule) Register(r *registry.Registry) {
	r.Register(".bdf", registry.NewStrategy("bdf", Load), nil)
}

// Load reads an EDF or BDF file. The variant is taken from the version
// field, not the extension. The whole signal is always read into memory.
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

// Parse decodes a complete EDF/BDF file from sr.
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

	// Data signals run at the highest per-record sample count; slower
	// signals are held (each sample repeated) up to that rate.
	maxSamp := 0
	var dataIdx []int
	for i, s := range h.signals {
		if s.annotations {
			continue
		}
		dataIdx = append(dataIdx, i)
		maxSamp = max(maxSamp, s.nsamp)
		rec.Chs = append(rec.Chs, types.Channel{
			Name: s.label,
			Unit: s.unit,
			Type: channelType(h, s),
		})
	}
	if len(dataIdx) == 0 {
		return nil, corrupt(sr.Path(), fixedHeaderSize, "file contains only annotation signals")
	}
	if h.recordDuration > 0 {
		rec.Sfreq = float64(maxSamp) / h.recordDuration
	} else {
		// Annotation-only timing; treat each record as one second.
		rec.Sfreq = float64(maxSamp)
		rec.Warnings = append(rec.Warnings, types.Warning{
			Stage:   "header",
			Message: "data record duration is 0, assuming 1 second",
		})
	}
	for _, i := range dataIdx {
		if s := h.signals[i]; s.nsamp != maxSamp {
			rec.Warnings = append(rec.Warnings, types.Warning{
				Stage:   "data",
				Message: fmt.Sprintf("signal %q sampled at %d/record, upsampled to %d", s.label, s.nsamp, maxSamp),
			})
		}
	}

	rec.Data = make([][]float64, len(dataIdx))
	for i := range rec.Data {
		rec.Data[i] = make([]float64, h.numRecords*maxSamp)
	}

	format := h.variant.sampleFormat()
	recSize := h.recordSize()
	raw := make([]float64, slices.Max(signalSamples(h)))

	for r := 0; r < h.numRecords; r++ {
		off := h.headerBytes + int64(r)*recSize
		buf, err := sr.Bytes(off, int(recSize), fmt.Sprintf("data record %d", r))
		if err != nil {
			return nil, err
		}

		pos := 0
		row := 0
		for _, s := range h.signals {
			n := s.nsamp
			chunk := buf[pos : pos+n*format.Size()]
			pos += n * format.Size()

			if s.annotations {
				events, err := parseTALs(chunk)
				if err != nil {
					rec.Warnings = append(rec.Warnings, types.Warning{
						Stage:   "annotations",
						Message: fmt.Sprintf("record %d: %v", r, err),
						Offset:  off,
					})
				}
				rec.Events = append(rec.Events, events...)
				continue
			}

			if err := binary.DecodeSamples(raw[:n], chunk, format, binary.LittleEndian); err != nil {
				return nil, fmt.Errorf("decode record %d: %w", r, err)
			}
			gain, offset := s.calibration()
			out := rec.Data[row][r*maxSamp : (r+1)*maxSamp]
			for j := range out {
				out[j] = raw[j*n/maxSamp]*gain + offset
			}
			row++
		}
	}

	return rec, nil
}

func signalSamples(h *header) []int {
	out := make([]int, len(h.signals))
	for i, s := range h.signals {
		out[i] = s.nsamp
	}
	return out
}

func channelType(h *header, s signal) types.ChannelType {
	if h.variant == variantBDF && s.label == "Status" {
		return types.ChannelStim
	}
	if t := types.ParseChannelType(s.transducer); t != types.ChannelUnknown {
		return t
	}
	return types.InferChannelType(s.label)
}
