package gdf

import (
	"fmt"
	"math"
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

// gdftyp codes for sample encodings.
var sampleTypes = map[uint32]binary.SampleFormat{
	1:  binary.Int8,
	2:  binary.Uint8,
	3:  binary.Int16,
	4:  binary.Uint16,
	5:  binary.Int32,
	6:  binary.Uint32,
	7:  binary.Int64,
	8:  binary.Uint64,
	16: binary.Float32,
	17: binary.Float64,
}

// physical dimension codes (ISO/IEEE 11073-10101) seen in practice.
var dimensionCodes = map[uint16]string{
	4256: "V",
	4274: "mV",
	4275: "uV",
	4276: "nV",
	512:  "",
}

type signal struct {
	label      string
	transducer string
	unit       string
	physMin    float64
	physMax    float64
	digMin     float64
	digMax     float64
	nsamp      int
	format     binary.SampleFormat
}

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
	version        float64
	signals        []signal
	headerBytes    int64
	numRecords     int64
	recordDuration float64
	// truncated is the record count claimed by a header whose file holds
	// fewer records, or 0.
	truncated int64
}

func (h *header) major() int { return int(h.version) }

func (h *header) recordSize() int64 {
	var size int64
	for _, s := range h.signals {
		size += int64(s.nsamp * s.format.Size())
	}
	return size
}

func (h *header) formatName() string {
	return fmt.Sprintf("GDF %.2f", h.version)
}

// parseHeader reads the fixed header and the per-signal header of a GDF
// 1.x or 2.x file. All numbers are little-endian.
func parseHeader(sr *binary.SafeReader) (*header, error) {
	path := sr.Path()
	cr := binary.NewChainReader(binary.NewReaderLE(sr, 0))

	magic := cr.String(8, "version")
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read GDF version: %w", err)
	}
	if !strings.HasPrefix(magic, "GDF ") {
		return nil, corrupt(path, 0, "invalid GDF version field %q", magic)
	}
	version, err := strconv.ParseFloat(strings.TrimSpace(magic[4:]), 64)
	if err != nil {
		return nil, corrupt(path, 4, "invalid GDF version number %q", magic[4:])
	}

	h := &header{version: version}
	var ns int
	switch h.major() {
	case 1:
		ns, err = h.readFixedV1(cr)
	case 2:
		ns, err = h.readFixedV2(cr)
	default:
		return nil, corrupt(path, 0, "unsupported GDF version %s", magic[4:])
	}
	if err != nil {
		return nil, err
	}
	if ns < 1 {
		return nil, corrupt(path, 252, "invalid signal count %d", ns)
	}
	if want := int64(fixedHeaderSize + ns*signalHeaderSize); h.headerBytes < want {
		return nil, corrupt(path, 184, "header length %d too small for %d signals (want at least %d)", h.headerBytes, ns, want)
	}

	h.signals = make([]signal, ns)
	if h.major() == 1 {
		h.readSignalsV1(cr)
	} else {
		h.readSignalsV2(cr)
	}
	if err := cr.Error(); err != nil {
		return nil, fmt.Errorf("read GDF signal headers: %w", err)
	}

	for _, s := range h.signals {
		if s.nsamp < 1 {
			return nil, corrupt(path, fixedHeaderSize, "signal %q has %d samples per record", s.label, s.nsamp)
		}
		if s.format.Size() == 0 {
			return nil, corrupt(path, fixedHeaderSize, "signal %q has unsupported data type", s.label)
		}
	}

	if h.headerBytes > sr.Size() {
		return nil, corrupt(path, 184, "header length %d exceeds file size %d", h.headerBytes, sr.Size())
	}
	// A record count of -1 means the writer did not finish the header;
	// derive it from the file size. Counts beyond the data present are
	// clamped the same way.
	available := (sr.Size() - h.headerBytes) / h.recordSize()
	switch {
	case available == 0 && h.numRecords != 0:
		return nil, corrupt(path, h.headerBytes, "no complete data record (record size %d, %d bytes after header)",
			h.recordSize(), sr.Size()-h.headerBytes)
	case h.numRecords < 0:
		h.numRecords = available
	case h.numRecords > available:
		h.truncated = h.numRecords
		h.numRecords = available
	}

	return h, nil
}

func (h *header) readFixedV1(cr *binary.ChainReader) (int, error) {
	cr.Skip(80 + 80) // patient, recording
	h.start = parseStartV1(cr.ASCII(16, "start date"))
	h.headerBytes = int64(binary.ReadChained[uint64](cr, "header length"))
	cr.Skip(8 + 8 + 8 + 20) // equipment, lab, technician, reserved
	h.numRecords = int64(binary.ReadChained[uint64](cr, "number of data records"))
	h.recordDuration = readDuration(cr)
	ns := binary.ReadChained[uint32](cr, "number of signals")
	if err := cr.Error(); err != nil {
		return 0, fmt.Errorf("read GDF header: %w", err)
	}
	return int(ns), nil
}

func (h *header) readFixedV2(cr *binary.ChainReader) (int, error) {
	cr.Skip(66 + 10 + 4 + 64 + 16) // patient, reserved, patient info, recording, location
	h.start = parseStartV2(binary.ReadChained[uint64](cr, "start date"))
	cr.Skip(8) // birthday
	blocks := binary.ReadChained[uint16](cr, "header length")
	h.headerBytes = int64(blocks) * 256
	cr.Skip(6 + 8 + 6 + 6 + 12 + 12) // classification, equipment, reserved, head size, ref, ground
	h.numRecords = int64(binary.ReadChained[uint64](cr, "number of data records"))
	h.recordDuration = readDuration(cr)
	ns := binary.ReadChained[uint16](cr, "number of signals")
	cr.Skip(2)
	if err := cr.Error(); err != nil {
		return 0, fmt.Errorf("read GDF header: %w", err)
	}
	return int(ns), nil
}

// readDuration decodes the record duration stored as a rational
// numerator/denominator pair of uint32.
func readDuration(cr *binary.ChainReader) float64 {
	num := binary.ReadChained[uint32](cr, "record duration numerator")
	den := binary.ReadChained[uint32](cr, "record duration denominator")
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (h *header) eachSignal(fn func(*signal)) {
	for i := range h.signals {
		fn(&h.signals[i])
	}
}

func readFloat64(cr *binary.ChainReader, what string) float64 {
	return math.Float64frombits(binary.ReadChained[uint64](cr, what))
}

func (h *header) readSignalsV1(cr *binary.ChainReader) {
	h.eachSignal(func(s *signal) { s.label = cr.ASCII(16, "label") })
	h.eachSignal(func(s *signal) { s.transducer = cr.ASCII(80, "transducer") })
	h.eachSignal(func(s *signal) { s.unit = cr.ASCII(8, "physical dimension") })
	h.eachSignal(func(s *signal) { s.physMin = readFloat64(cr, "physical minimum") })
	h.eachSignal(func(s *signal) { s.physMax = readFloat64(cr, "physical maximum") })
	h.eachSignal(func(s *signal) {
		s.digMin = float64(int64(binary.ReadChained[uint64](cr, "digital minimum")))
	})
	h.eachSignal(func(s *signal) {
		s.digMax = float64(int64(binary.ReadChained[uint64](cr, "digital maximum")))
	})
	cr.Skip(int64(80 * len(h.signals))) // prefiltering
	h.eachSignal(func(s *signal) { s.nsamp = int(binary.ReadChained[uint32](cr, "samples per record")) })
	h.eachSignal(func(s *signal) { s.format = sampleFormat(binary.ReadChained[uint32](cr, "data type")) })
	cr.Skip(int64(32 * len(h.signals)))
}

func (h *header) readSignalsV2(cr *binary.ChainReader) {
	h.eachSignal(func(s *signal) { s.label = cr.ASCII(16, "label") })
	h.eachSignal(func(s *signal) { s.transducer = cr.ASCII(80, "transducer") })
	h.eachSignal(func(s *signal) { s.unit = cr.ASCII(6, "physical dimension") })
	h.eachSignal(func(s *signal) {
		code := binary.ReadChained[uint16](cr, "physical dimension code")
		if s.unit == "" {
			s.unit = dimensionCodes[code]
		}
	})
	h.eachSignal(func(s *signal) { s.physMin = readFloat64(cr, "physical minimum") })
	h.eachSignal(func(s *signal) { s.physMax = readFloat64(cr, "physical maximum") })
	h.eachSignal(func(s *signal) { s.digMin = readFloat64(cr, "digital minimum") })
	h.eachSignal(func(s *signal) { s.digMax = readFloat64(cr, "digital maximum") })
	cr.Skip(int64((68 + 4 + 4 + 4) * len(h.signals))) // prefiltering, lowpass, highpass, notch
	h.eachSignal(func(s *signal) { s.nsamp = int(binary.ReadChained[uint32](cr, "samples per record")) })
	h.eachSignal(func(s *signal) { s.format = sampleFormat(binary.ReadChained[uint32](cr, "data type")) })
	cr.Skip(int64((12 + 20) * len(h.signals))) // sensor position, sensor info
}

func sampleFormat(code uint32) binary.SampleFormat {
	if f, ok := sampleTypes[code]; ok {
		return f
	}
	return binary.SampleFormat(-1)
}

// parseStartV1 decodes "YYYYMMDDhhmmsscc".
func parseStartV1(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) > 14 {
		s = s[:14]
	}
	t, err := time.Parse("20060102150405", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseStartV2 decodes the fixed-point day count: the high 32 bits count
// days since 0000-01-01, the low 32 bits are the fraction of a day.
func parseStartV2(v uint64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	days := int(v >> 32)
	frac := float64(uint32(v)) / math.Exp2(32)
	t := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days-367)
	return t.Add(time.Duration(frac * 24 * float64(time.Hour))).Round(time.Second)
}

func corrupt(path string, offset int64, format string, args ...any) error {
	return &types.CorruptedFileError{
		Path:   path,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}
