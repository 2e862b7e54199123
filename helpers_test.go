package eegview_test

import (
	"bytes"
	encbin "encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// writeEDF writes a one-record EDF file whose signals carry the given
// labels. Digital and physical ranges are identical, so signal i holds the
// samples {i, i+1, i+2, i+3} after calibration.
func writeEDF(t testing.TB, dir, name string, labels ...string) string {
	t.Helper()

	buf := &bytes.Buffer{}
	sw := binary.NewSafeWriter(buf)
	ascii := func(s string, width int) { require.NoError(t, sw.WriteASCII(s, width)) }

	ns := len(labels)
	ascii("0", 8)
	ascii("X X X X", 80)
	ascii("Startdate 01-JAN-2024 X X X", 80)
	ascii("01.01.24", 8)
	ascii("10.30.00", 8)
	ascii(strconv.Itoa(256+256*ns), 8)
	ascii("", 44)
	ascii("1", 8)
	ascii("1", 8)
	ascii(strconv.Itoa(ns), 4)

	field := func(width int, v func(label string) string) {
		for _, l := range labels {
			ascii(v(l), width)
		}
	}
	field(16, func(l string) string { return l })
	field(80, func(string) string { return "" })
	field(8, func(string) string { return "uV" })
	field(8, func(string) string { return "-32768" })
	field(8, func(string) string { return "32767" })
	field(8, func(string) string { return "-32768" })
	field(8, func(string) string { return "32767" })
	field(80, func(string) string { return "" })
	field(8, func(string) string { return "4" })
	field(32, func(string) string { return "" })

	for i := range labels {
		for s := 0; s < 4; s++ {
			require.NoError(t, sw.WriteSample(float64(i+s), binary.Int16, binary.LittleEndian))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// writeEpochedSET writes an EEGLAB dataset with trials epochs of pnts
// samples for nbchan channels, stored as top-level MAT variables with
// inline double data. Sample (c, i) of the concatenated data is c*10+i.
func writeEpochedSET(t testing.TB, dir, name string, nbchan, pnts, trials int) string {
	t.Helper()

	le := encbin.LittleEndian
	element := func(typ uint32, data []byte) []byte {
		out := make([]byte, 8, 8+len(data)+7)
		le.PutUint32(out, typ)
		le.PutUint32(out[4:], uint32(len(data)))
		out = append(out, data...)
		for len(out)%8 != 0 {
			out = append(out, 0)
		}
		return out
	}
	double := func(name string, rows, cols int, vals ...float64) []byte {
		flags := make([]byte, 8)
		le.PutUint32(flags, 6) // mxDOUBLE_CLASS
		dims := make([]byte, 8)
		le.PutUint32(dims, uint32(rows))
		le.PutUint32(dims[4:], uint32(cols))
		data := make([]byte, 8*len(vals))
		for i, v := range vals {
			le.PutUint64(data[i*8:], math.Float64bits(v))
		}

		var b []byte
		b = append(b, element(6, flags)...)        // miUINT32
		b = append(b, element(5, dims)...)         // miINT32
		b = append(b, element(1, []byte(name))...) // miINT8
		b = append(b, element(9, data)...)         // miDOUBLE
		return element(14, b)                      // miMATRIX
	}

	n := pnts * trials
	flat := make([]float64, nbchan*n)
	for i := 0; i < n; i++ {
		for c := 0; c < nbchan; c++ {
			flat[c+nbchan*i] = float64(c*10 + i)
		}
	}

	header := "MATLAB 5.0 MAT-file, Platform: GLNXA64"
	out := append([]byte(header), bytes.Repeat([]byte(" "), 116-len(header))...)
	out = append(out, make([]byte, 8)...)
	out = append(out, 0x00, 0x01, 'I', 'M')
	out = append(out, double("nbchan", 1, 1, float64(nbchan))...)
	out = append(out, double("pnts", 1, 1, float64(pnts))...)
	out = append(out, double("trials", 1, 1, float64(trials))...)
	out = append(out, double("srate", 1, 1, 100)...)
	out = append(out, double("xmin", 1, 1, -0.1)...)
	out = append(out, double("data", nbchan, n, flat...)...)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, out, 0o600))
	return path
}

// touch creates an empty file.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

// moduleFunc adapts a function to registry.Module.
type moduleFunc func(r *registry.Registry)

func (f moduleFunc) Register(r *registry.Registry) { f(r) }

// stubLoader records calls and returns a fixed result.
type stubLoader struct {
	rec      types.Recording
	err      error
	calls    int
	preloads []bool
}

func (s *stubLoader) load(_ string, preload bool) (types.Recording, error) {
	s.calls++
	s.preloads = append(s.preloads, preload)
	if s.err != nil {
		return nil, s.err
	}
	return s.rec, nil
}

func continuous(chs ...types.Channel) *types.Continuous {
	c := &types.Continuous{
		Header: types.Header{Format: "stub", Sfreq: 100, Chs: chs},
		Data:   make([][]float64, len(chs)),
	}
	for i := range c.Data {
		c.Data[i] = []float64{float64(i), float64(i) + 0.5}
	}
	return c
}

func segmented(chs ...types.Channel) *types.Segmented {
	s := &types.Segmented{
		Header: types.Header{Format: "stub", Sfreq: 100, Chs: chs},
		Tmin:   -0.2,
	}
	for e := 0; e < 3; e++ {
		epoch := make([][]float64, len(chs))
		for c := range epoch {
			epoch[c] = []float64{float64(e), float64(c)}
		}
		s.Epochs = append(s.Epochs, epoch)
	}
	return s
}

func ch(name string, kind types.ChannelType) types.Channel {
	return types.Channel{Name: name, Type: kind, Unit: "uV"}
}
