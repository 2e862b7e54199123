// Package egi loads EGI (Electrical Geodesics) simple binary files (.raw).
package egi

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// Module registers the EGI loader for ".raw".
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.Register(".raw", registry.NewStrategy("egi", Load), nil)
}

// header is the simple binary header. Versions 2, 4 and 6 are continuous
// with int16, float32 and float64 samples; odd versions are segmented.
type header struct {
	start      time.Time
	eventCodes []string
	version    int32
	sampRate   int16
	nChannels  int16
	bits       int16
	valueRange int16
	nSamples   int32
	dataOffset int64
}

func (h *header) format() binary.SampleFormat {
	switch h.version &^ 1 {
	case 4:
		return binary.Float32
	case 6:
		return binary.Float64
	default:
		return binary.Int16
	}
}

// calibration converts raw integer counts to microvolts. Float files
// are already calibrated.
func (h *header) calibration() float64 {
	if h.format() == binary.Int16 && h.bits > 0 && h.valueRange > 0 {
		return float64(h.valueRange) / float64(int(1)<<h.bits)
	}
	return 1
}

func parseHeader(sr *binary.SafeReader) (*header, error) {
	cr := binary.NewChainReader(binary.NewReader(sr, 0))
	i16 := func(what string) int16 { return int16(binary.ReadChained[uint16](cr, what)) }

	h := &header{version: int32(binary.ReadChained[uint32](cr, "version"))}
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read EGI version: %w", err)
	}
	if h.version < 2 || h.version > 7 {
		return nil, corrupt(sr.Path(), 0, "unsupported EGI simple binary version %d", h.version)
	}
	if h.version&1 == 1 {
		return nil, corrupt(sr.Path(), 0, "segmented EGI files (version %d) are not supported", h.version)
	}

	year, month, day := i16("year"), i16("month"), i16("day")
	hour, minute, sec := i16("hour"), i16("minute"), i16("second")
	ms := int32(binary.ReadChained[uint32](cr, "millisecond"))
	h.sampRate = i16("sample rate")
	h.nChannels = i16("number of channels")
	i16("board gain")
	h.bits = i16("conversion bits")
	h.valueRange = i16("amplifier range")
	h.nSamples = int32(binary.ReadChained[uint32](cr, "number of samples"))
	nEvents := i16("number of events")
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read EGI header: %w", err)
	}
	if h.sampRate <= 0 || h.nChannels <= 0 || h.nSamples < 0 || nEvents < 0 {
		return nil, corrupt(sr.Path(), 4, "invalid header: rate=%d channels=%d samples=%d events=%d",
			h.sampRate, h.nChannels, h.nSamples, nEvents)
	}

	for i := 0; i < int(nEvents); i++ {
		h.eventCodes = append(h.eventCodes, strings.TrimRight(cr.String(4, "event code"), "\x00 "))
	}
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read EGI event codes: %w", err)
	}
	h.dataOffset = cr.Offset()

	if year > 0 {
		h.start = time.Date(int(year), time.Month(month), int(day), int(hour), int(minute), int(sec),
			int(ms)*int(time.Millisecond), time.UTC)
	}
	return h, nil
}

// Load reads an unsegmented EGI simple binary file.
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

// Parse decodes sr. Samples are stored frame by frame: every EEG channel
// followed by every event channel.
func Parse(sr *binary.SafeReader) (*types.Continuous, error) {
	h, err := parseHeader(sr)
	if err != nil {
		return nil, err
	}

	nch := int(h.nChannels)
	width := nch + len(h.eventCodes)
	n := int(h.nSamples)
	format := h.format()
	size := format.Size()

	buf, err := sr.Bytes(h.dataOffset, n*width*size, "sample data")
	if err != nil {
		return nil, err
	}

	rec := &types.Continuous{
		Header: types.Header{
			Path:     sr.Path(),
			Format:   fmt.Sprintf("EGI simple binary v%d", h.version),
			MeasDate: h.start,
			Sfreq:    float64(h.sampRate),
		},
		Data: make([][]float64, width),
	}
	for c := 0; c < nch; c++ {
		rec.Chs = append(rec.Chs, types.Channel{Name: fmt.Sprintf("E%d", c+1), Unit: "uV", Type: types.ChannelEEG})
	}
	for _, code := range h.eventCodes {
		rec.Chs = append(rec.Chs, types.Channel{Name: code, Type: types.ChannelStim})
	}

	cal := h.calibration()
	for c := range rec.Data {
		rec.Data[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < width; c++ {
			v := format.Decode(buf[(i*width+c)*size:], binary.BigEndian)
			if c < nch {
				v *= cal
			}
			rec.Data[c][i] = v
		}
	}

	rec.Events = eventOnsets(rec.Data[nch:], h.eventCodes, rec.Sfreq)
	return rec, nil
}

// eventOnsets turns each rising edge of an event channel into an
// annotation lasting until the channel drops back to zero.
func eventOnsets(rows [][]float64, codes []string, sfreq float64) []types.Annotation {
	var out []types.Annotation
	for e, row := range rows {
		start := -1
		for i := 0; i <= len(row); i++ {
			on := i < len(row) && row[i] != 0
			switch {
			case on && start < 0:
				start = i
			case !on && start >= 0:
				out = append(out, types.Annotation{
					Onset:       float64(start) / sfreq,
					Duration:    float64(i-start) / sfreq,
					Description: codes[e],
				})
				start = -1
			}
		}
	}
	slices.SortStableFunc(out, func(a, b types.Annotation) int {
		return cmp.Compare(a.Onset, b.Onset)
	})
	return out
}

func corrupt(path string, offset int64, format string, args ...any) error {
	return &types.CorruptedFileError{
		Path:   path,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}
