package edf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/types"
)

const (
	fixedHeaderSize  = 256
	signalHeaderSize = 256
)

// variant distinguishes 16-bit EDF from 24-bit BDF.
type variant int

const (
	variantEDF variant = iota
	variantBDF
)

func (v variant) sampleFormat() binary.SampleFormat {
	if v == variantBDF {
		return binary.Int24
	}
	return binary.Int16
}

func (v variant) annotationLabel() string {
	if v == variantBDF {
		return "BDF Annotations"
	}
	return "EDF Annotations"
}

// signal is one entry of the per-signal header.
type signal struct {
	label       string
	transducer  string
	unit        string
	prefilter   string
	physMin     float64
	physMax     float64
	digMin      float64
	digMax      float64
	nsamp       int // samples per data record
	annotations bool
}

// gain and offset convert a digital sample d to physical units: d*gain + offset.
func (s signal) calibration() (gain, offset float64) {
	if s.digMax == s.digMin {
		return 1, 0
	}
	gain = (s.physMax - s.physMin) / (s.digMax - s.digMin)
	offset = s.physMin - s.digMin*gain
	return gain, offset
}

type header struct {
	start          time.Time
	version        string
	patient        string
	recording      string
	reserved       string
	signals        []signal
	headerBytes    int64
	numRecords     int
	recordDuration float64 // seconds
	variant        variant
}

// recordSize returns the number of bytes in one data record.
func (h *header) recordSize() int64 {
	size := int64(0)
	for _, s := range h.signals {
		size += int64(s.nsamp)
	}
	return size * int64(h.variant.sampleFormat().Size())
}

// formatName returns "EDF", "EDF+", "BDF" or "BDF+".
func (h *header) formatName() string {
	name := "EDF"
	if h.variant == variantBDF {
		name = "BDF"
	}
	if strings.HasPrefix(h.reserved, "EDF+") || strings.HasPrefix(h.reserved, "BDF+") {
		name += "+"
	}
	return name
}

// parseHeader reads the fixed and per-signal headers.
func parseHeader(sr *binary.SafeReader) (*header, error) {
	path := sr.Path()
	cr := binary.NewChainReader(binary.NewReader(sr, 0))

	h := &header{}
	magic := cr.String(8, "version")
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read EDF version: %w", err)
	}
	switch {
	case magic[0] == 0xFF && magic[1:] == "BIOSEMI":
		h.variant = variantBDF
		h.version = "BIOSEMI"
	case strings.TrimSpace(magic) == "0":
		h.variant = variantEDF
		h.version = "0"
	default:
		return nil, &types.CorruptedFileError{
			Path:   path,
			Offset: 0,
			Reason: fmt.Sprintf("invalid EDF/BDF version field %q", magic),
		}
	}

	h.patient = cr.ASCII(80, "patient identification")
	h.recording = cr.ASCII(80, "recording identification")
	date := cr.ASCII(8, "start date")
	clock := cr.ASCII(8, "start time")
	headerBytes := cr.ASCII(8, "header size")
	h.reserved = cr.ASCII(44, "reserved")
	numRecords := cr.ASCII(8, "number of data records")
	duration := cr.ASCII(8, "data record duration")
	numSignals := cr.ASCII(4, "number of signals")
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read EDF header: %w", err)
	}

	var err error
	if h.headerBytes, err = strconv.ParseInt(headerBytes, 10, 64); err != nil {
		return nil, corrupt(path, 184, "header size %q is not a number", headerBytes)
	}
	if h.numRecords, err = strconv.Atoi(numRecords); err != nil {
		return nil, corrupt(path, 236, "record count %q is not a number", numRecords)
	}
	if h.recordDuration, err = parseFloat(duration); err != nil {
		return nil, corrupt(path, 244, "record duration %q is not a number", duration)
	}
	ns, err := strconv.Atoi(numSignals)
	if err != nil || ns < 1 {
		return nil, corrupt(path, 252, "invalid signal count %q", numSignals)
	}
	if want := int64(fixedHeaderSize + ns*signalHeaderSize); h.headerBytes != want {
		return nil, corrupt(path, 184, "header size %d does not match %d signals (want %d)", h.headerBytes, ns, want)
	}
	h.start = parseStart(date, clock)

	// Per-signal fields are stored field-major: all labels, then all
	// transducers, and so on.
	h.signals = make([]signal, ns)
	readField := func(width int, what string, set func(*signal, string)) {
		for i := range h.signals {
			set(&h.signals[i], cr.ASCII(width, what))
		}
	}
	var parseErr error
	number := func(dst *float64, v string) {
		f, err := parseFloat(v)
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("invalid number %q in signal header", v)
		}
		*dst = f
	}

	readField(16, "signal label", func(s *signal, v string) { s.label = v })
	readField(80, "transducer type", func(s *signal, v string) { s.transducer = v })
	readField(8, "physical dimension", func(s *signal, v string) { s.unit = v })
	readField(8, "physical minimum", func(s *signal, v string) { number(&s.physMin, v) })
	readField(8, "physical maximum", func(s *signal, v string) { number(&s.physMax, v) })
	readField(8, "digital minimum", func(s *signal, v string) { number(&s.digMin, v) })
	readField(8, "digital maximum", func(s *signal, v string) { number(&s.digMax, v) })
	readField(80, "prefiltering", func(s *signal, v string) { s.prefilter = v })
	readField(8, "samples per record", func(s *signal, v string) {
		var n float64
		number(&n, v)
		s.nsamp = int(n)
	})
	readField(32, "signal reserved", func(*signal, string) {})

	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read EDF signal headers: %w", err)
	}
	if parseErr != nil {
		return nil, corrupt(path, fixedHeaderSize, "%v", parseErr)
	}

	for i := range h.signals {
		s := &h.signals[i]
		s.annotations = s.label == h.variant.annotationLabel()
		if s.nsamp < 1 {
			return nil, corrupt(path, fixedHeaderSize, "signal %q has %d samples per record", s.label, s.nsamp)
		}
	}

	// A record count of -1 means the writer did not finish the header;
	// derive it from the file size.
	recSize := h.recordSize()
	available := (sr.Size() - h.headerBytes) / recSize
	if h.numRecords < 0 || int64(h.numRecords) > available {
		h.numRecords = int(available)
	}

	return h, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseStart decodes "dd.mm.yy" and "hh.mm.ss". Years 85-99 are 19xx,
// 00-84 are 20xx, per the EDF clipping-date convention.
func parseStart(date, clock string) time.Time {
	var d, mo, y, hh, mm, ss int
	if _, err := fmt.Sscanf(date, "%d.%d.%d", &d, &mo, &y); err != nil {
		return time.Time{}
	}
	if _, err := fmt.Sscanf(clock, "%d.%d.%d", &hh, &mm, &ss); err != nil {
		return time.Time{}
	}
	if y >= 85 {
		y += 1900
	} else {
		y += 2000
	}
	return time.Date(y, time.Month(mo), d, hh, mm, ss, 0, time.UTC)
}

func corrupt(path string, offset int64, format string, args ...any) error {
	return &types.CorruptedFileError{
		Path:   path,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}
