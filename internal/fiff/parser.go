// Package fiff loads raw recordings stored in the Neuromag/Elekta FIFF
// format (.fif).
package fiff

import (
	"fmt"
	"strings"
	"time"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// Module registers the FIFF loader for ".fif".
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.Register(".fif", registry.NewStrategy("fiff", Load), nil)
}

// Channel kinds.
var channelKinds = map[int32]types.ChannelType{
	1:   types.ChannelMEG,
	2:   types.ChannelEEG,
	3:   types.ChannelStim,
	102: types.ChannelBio,
	202: types.ChannelEOG,
	301: types.ChannelMEG, // reference magnetometer
	302: types.ChannelEMG,
	402: types.ChannelECG,
	502: types.ChannelMisc,
	602: types.ChannelResp,
}

var units = map[int32]string{
	107: "V",
	112: "T",
	201: "T/m",
}

const chInfoSize = 96

type chInfo struct {
	name  string
	unit  string
	kind  types.ChannelType
	scale float64 // range * cal
}

// buffer is a raw data buffer located but not yet read.
type buffer struct {
	pos    int64 // data offset
	size   int32
	format binary.SampleFormat
	skip   int  // number of zero-filled buffers a FIFF_DATA_SKIP stands for
}

// samples returns the number of samples per channel b covers.
func (b buffer) samples(nchan int) int {
	n := int(b.size) / b.format.Size() / nchan
	if b.skip > 0 {
		n *= b.skip
	}
	return n
}

type measurement struct {
	start   time.Time
	chs     []chInfo
	buffers []buffer
	sfreq   float64
	nchan   int
	first   int
}

// Load reads a raw FIFF file.
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

// Parse walks the tag stream of a FIFF file and assembles the raw data.
func Parse(sr *binary.SafeReader) (*types.Continuous, error) {
	path := sr.Path()
	first, err := readTag(sr, 0)
	if err != nil {
		return nil, fmt.Errorf("read FIFF file id: %w", err)
	}
	if first.kind != kindFileID {
		return nil, corrupt(path, 0, "not a FIFF file: first tag kind is %d", first.kind)
	}

	m, err := scan(sr)
	if err != nil {
		return nil, err
	}

	switch {
	case m.nchan < 1 || m.sfreq <= 0:
		return nil, corrupt(path, 0, "measurement info missing or invalid (nchan=%d, sfreq=%g)", m.nchan, m.sfreq)
	case len(m.chs) != m.nchan:
		return nil, corrupt(path, 0, "found %d channel descriptions for %d channels", len(m.chs), m.nchan)
	case len(m.buffers) == 0:
		return nil, corrupt(path, 0, "no raw data buffers; only raw recordings are supported")
	}

	rec := &types.Continuous{
		Header: types.Header{
			Path:     path,
			Format:   "FIFF",
			MeasDate: m.start,
			Sfreq:    m.sfreq,
		},
	}
	for _, ch := range m.chs {
		rec.Chs = append(rec.Chs, types.Channel{Name: ch.name, Unit: ch.unit, Type: ch.kind})
	}
	if m.first != 0 {
		rec.Warnings = append(rec.Warnings, types.Warning{
			Stage:   "data",
			Message: fmt.Sprintf("first sample is %d; times are relative to the first stored sample", m.first),
		})
	}

	rec.Data, err = m.readBuffers(sr)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// scan follows the tag chain, collecting measurement info and locating
// raw data buffers.
func scan(sr *binary.SafeReader) (*measurement, error) {
	m := &measurement{}
	var lastSize int32
	var lastFormat binary.SampleFormat

	err := walk(sr, func(t *tag, blocks []int32) error {
		var top int32
		if len(blocks) > 0 {
			top = blocks[len(blocks)-1]
		}
		inRaw := top == blockRawData || top == blockContinuousData

		switch t.kind {
		case kindNChan:
			if top == blockMeasInfo {
				m.nchan = int(t.intAt(0))
			}
		case kindSFreq:
			if top == blockMeasInfo {
				m.sfreq = t.floatAt(0)
			}
		case kindMeasDate:
			if top == blockMeasInfo && len(t.data) >= 8 {
				m.start = time.Unix(int64(t.intAt(0)), int64(t.intAt(1))*1000).UTC()
			}
		case kindChInfo:
			if top == blockMeasInfo {
				ch, err := parseChInfo(t)
				if err != nil {
					return corrupt(sr.Path(), t.pos, "%v", err)
				}
				m.chs = append(m.chs, ch)
			}
		case kindFirstSample:
			if inRaw {
				m.first = int(t.intAt(0))
			}
		case kindDataBuffer:
			if !inRaw {
				return nil
			}
			format, ok := dataFormats[t.typ]
			if !ok {
				return corrupt(sr.Path(), t.pos, "unsupported data buffer type %d", t.typ)
			}
			if end := t.pos + tagHeaderSize + int64(t.size); end > sr.Size() {
				return corrupt(sr.Path(), t.pos, "data buffer of %d bytes extends past end of file", t.size)
			}
			m.buffers = append(m.buffers, buffer{pos: t.pos + tagHeaderSize, size: t.size, format: format})
			lastSize, lastFormat = t.size, format
		case kindDataSkip:
			if !inRaw || lastSize == 0 {
				return nil
			}
			// Skipped buffers are not stored, so the file size is the only
			// bound on how much zero fill a skip may ask for.
			n := int64(t.intAt(0))
			if n < 0 || n*int64(lastSize) > sr.Size() {
				return corrupt(sr.Path(), t.pos, "data skip of %d buffers of %d bytes exceeds file size %d", n, lastSize, sr.Size())
			}
			if n > 0 {
				m.buffers = append(m.buffers, buffer{size: lastSize, format: lastFormat, skip: int(n)})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func parseChInfo(t *tag) (chInfo, error) {
	if len(t.data) < chInfoSize {
		return chInfo{}, fmt.Errorf("channel info is %d bytes, want %d", len(t.data), chInfoSize)
	}
	kind := t.intAt(2)
	ch := chInfo{
		kind:  types.ChannelMisc,
		scale: t.floatAt(3) * t.floatAt(4),
		unit:  units[t.intAt(18)],
		name:  strings.TrimRight(string(t.data[80:96]), "\x00 "),
	}
	if k, ok := channelKinds[kind]; ok {
		ch.kind = k
	}
	return ch, nil
}

// readBuffers decodes every buffer into calibrated channel rows. Samples
// are interleaved: sample-major, channel-minor.
func (m *measurement) readBuffers(sr *binary.SafeReader) ([][]float64, error) {
	total := 0
	for _, b := range m.buffers {
		total += b.samples(m.nchan)
	}

	data := make([][]float64, m.nchan)
	for c := range data {
		data[c] = make([]float64, total)
	}

	at := 0
	for i, b := range m.buffers {
		n := b.samples(m.nchan)
		if b.skip > 0 {
			at += n
			continue
		}
		raw, err := sr.Bytes(b.pos, int(b.size), fmt.Sprintf("data buffer %d", i))
		if err != nil {
			return nil, err
		}
		size := b.format.Size()
		for s := 0; s < n; s++ {
			for c := 0; c < m.nchan; c++ {
				v := b.format.Decode(raw[(s*m.nchan+c)*size:], binary.BigEndian)
				data[c][at+s] = v * m.chs[c].scale
			}
		}
		at += n
	}
	return data, nil
}

func corrupt(path string, offset int64, format string, args ...any) error {
	return &types.CorruptedFileError{
		Path:   path,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}
