package eeglab

import (
	"bytes"
	"compress/zlib"
	encbin "encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// Minimal little-endian MAT-file level 5 writer for fixtures.

var le = encbin.LittleEndian

func matElement(typ uint32, data []byte) []byte {
	out := make([]byte, 8, 8+len(data)+7)
	le.PutUint32(out, typ)
	le.PutUint32(out[4:], uint32(len(data)))
	out = append(out, data...)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	return out
}

func int32s(vals ...int) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		le.PutUint32(b[i*4:], uint32(int32(v)))
	}
	return b
}

func matMatrix(name string, class uint32, dims []int, body []byte) []byte {
	flags := make([]byte, 8)
	le.PutUint32(flags, class)

	var b []byte
	b = append(b, matElement(miUINT32, flags)...)
	b = append(b, matElement(miINT32, int32s(dims...))...)
	b = append(b, matElement(miINT8, []byte(name))...)
	b = append(b, body...)
	return matElement(miMATRIX, b)
}

func matDouble(name string, dims []int, vals ...float64) []byte {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		le.PutUint64(data[i*8:], math.Float64bits(v))
	}
	return matMatrix(name, mxDOUBLE, dims, matElement(miDOUBLE, data))
}

func matScalar(name string, v float64) []byte {
	return matDouble(name, []int{1, 1}, v)
}

func matChar(name, s string) []byte {
	units := utf16.Encode([]rune(s))
	data := make([]byte, 2*len(units))
	for i, u := range units {
		le.PutUint16(data[i*2:], u)
	}
	return matMatrix(name, mxCHAR, []int{1, len(units)}, matElement(miUINT16, data))
}

func matEmpty() []byte { return matElement(miMATRIX, nil) }

// matStruct builds a 1xN struct array. elems[i][j] is the encoded value
// of field j in element i.
func matStruct(name string, fields []string, elems [][][]byte) []byte {
	return matStructDims(name, fields, []int{1, len(elems)}, elems)
}

// matStructDims is matStruct with explicit, possibly inconsistent, dims.
func matStructDims(name string, fields []string, dims []int, elems [][][]byte) []byte {
	width := 0
	for _, f := range fields {
		width = max(width, len(f)+1)
	}
	names := make([]byte, width*len(fields))
	for i, f := range fields {
		copy(names[i*width:], f)
	}

	var body []byte
	body = append(body, matElement(miINT32, int32s(width))...)
	body = append(body, matElement(miINT8, names)...)
	for _, e := range elems {
		for _, v := range e {
			body = append(body, v...)
		}
	}
	return matMatrix(name, mxSTRUCT, dims, body)
}

func matCompressed(t *testing.T, elem []byte) []byte {
	t.Helper()
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(elem); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 8)
	le.PutUint32(out, miCOMPRESSED)
	le.PutUint32(out[4:], uint32(z.Len()))
	return append(out, z.Bytes()...)
}

func matFileBytes(header string, vars ...[]byte) []byte {
	h := []byte(header + strings.Repeat(" ", 116-len(header)))
	h = append(h, make([]byte, 8)...)
	h = append(h, 0x00, 0x01, 'I', 'M')
	for _, v := range vars {
		h = append(h, v...)
	}
	return h
}

const matHeader = "MATLAB 5.0 MAT-file, Platform: GLNXA64, Created on: Mon Jan  1 00:00:00 2024"

// columnMajor returns nbchan*n values where element (c, i) is c*10+i.
func columnMajor(nbchan, n int) []float64 {
	out := make([]float64, nbchan*n)
	for i := 0; i < n; i++ {
		for c := 0; c < nbchan; c++ {
			out[c+nbchan*i] = float64(c*10 + i)
		}
	}
	return out
}

func chanlocs() []byte {
	return matStruct("", []string{"labels", "type"}, [][][]byte{
		{matChar("", "Fz"), matChar("", "EEG")},
		{matChar("", "VEOG"), matEmpty()},
		{matChar("", "ECG"), matChar("", "")},
	})
}

func events() []byte {
	return matStruct("", []string{"type", "latency", "duration"}, [][][]byte{
		{matChar("", "stim"), matScalar("", 1), matScalar("", 0)},
		{matScalar("", 5), matScalar("", 3), matScalar("", 2)},
	})
}

func eegStruct(trials, pnts int, xmin float64, data []byte) []byte {
	fields := []string{"nbchan", "pnts", "trials", "srate", "xmin", "data", "chanlocs", "event"}
	return matStruct("EEG", fields, [][][]byte{{
		matScalar("", 3),
		matScalar("", float64(pnts)),
		matScalar("", float64(trials)),
		matScalar("", 100),
		matScalar("", xmin),
		data,
		chanlocs(),
		events(),
	}})
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadContinuous_InlineData(t *testing.T) {
	data := matDouble("", []int{3, 4}, columnMajor(3, 4)...)
	path := writeFile(t, t.TempDir(), "rest.set", matFileBytes(matHeader, eegStruct(1, 4, 0, data)))

	rec, err := LoadContinuous(path, true)
	if err != nil {
		t.Fatalf("LoadContinuous() error = %v", err)
	}
	c := rec.(*types.Continuous)

	if got := strings.Join(c.ChannelNames(), ","); got != "Fz,VEOG,ECG" {
		t.Errorf("ChannelNames() = %s", got)
	}
	wantTypes := []types.ChannelType{types.ChannelEEG, types.ChannelEOG, types.ChannelECG}
	for i, want := range wantTypes {
		if c.Chs[i].Type != want {
			t.Errorf("channel %d type = %v, want %v", i, c.Chs[i].Type, want)
		}
	}
	if c.SampleRate() != 100 || c.NumSamples() != 4 {
		t.Errorf("SampleRate() = %v, NumSamples() = %d", c.SampleRate(), c.NumSamples())
	}
	for ch := 0; ch < 3; ch++ {
		for i := 0; i < 4; i++ {
			if want := float64(ch*10 + i); c.Data[ch][i] != want {
				t.Errorf("Data[%d][%d] = %v, want %v", ch, i, c.Data[ch][i], want)
			}
		}
	}

	want := []types.Annotation{
		{Onset: 0, Description: "stim"},
		{Onset: 0.02, Duration: 0.02, Description: "5"},
	}
	if len(c.Events) != len(want) {
		t.Fatalf("got %d events, want %d", len(c.Events), len(want))
	}
	for i := range want {
		if c.Events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, c.Events[i], want[i])
		}
	}
}

func TestLoad_EpochedWithFDT(t *testing.T) {
	dir := t.TempDir()

	const trials, pnts = 2, 3
	flat := columnMajor(3, trials*pnts)
	fdt := make([]byte, 4*len(flat))
	for i, v := range flat {
		le.PutUint32(fdt[i*4:], math.Float32bits(float32(v)))
	}
	writeFile(t, dir, "erp.fdt", fdt)
	path := writeFile(t, dir, "erp.set", matFileBytes(matHeader, eegStruct(trials, pnts, -0.5, matChar("", "erp.fdt"))))

	_, err := LoadContinuous(path, true)
	if err == nil || !strings.Contains(err.Error(), "number of trials is 2") {
		t.Fatalf("LoadContinuous() error = %v, want trials error", err)
	}

	rec, err := LoadEpochs(path, true)
	if err != nil {
		t.Fatalf("LoadEpochs() error = %v", err)
	}
	s := rec.(*types.Segmented)

	if s.NumEpochs() != 2 || s.NumSamples() != 3 {
		t.Fatalf("NumEpochs() = %d, NumSamples() = %d", s.NumEpochs(), s.NumSamples())
	}
	if s.Tmin != -0.5 {
		t.Errorf("Tmin = %v, want -0.5", s.Tmin)
	}
	// epoch 1, channel 2, sample 0 is concatenated sample 3
	if got := s.Epochs[1][2][0]; got != 23 {
		t.Errorf("Epochs[1][2][0] = %v, want 23", got)
	}
}

func TestLoad_CompressedTopLevelFields(t *testing.T) {
	vars := [][]byte{
		matScalar("nbchan", 3),
		matScalar("pnts", 2),
		matScalar("trials", 1),
		matScalar("srate", 250),
		matDouble("data", []int{3, 2}, columnMajor(3, 2)...),
	}
	for i := range vars {
		vars[i] = matCompressed(t, vars[i])
	}
	path := writeFile(t, t.TempDir(), "flat.set", matFileBytes(matHeader, vars...))

	rec, err := LoadContinuous(path, true)
	if err != nil {
		t.Fatalf("LoadContinuous() error = %v", err)
	}
	c := rec.(*types.Continuous)
	if got := strings.Join(c.ChannelNames(), ","); got != "EEG001,EEG002,EEG003" {
		t.Errorf("ChannelNames() = %s", got)
	}
	if c.SampleRate() != 250 || c.Data[2][1] != 21 {
		t.Errorf("SampleRate() = %v, Data[2][1] = %v", c.SampleRate(), c.Data[2][1])
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"hdf5", matFileBytes("MATLAB 7.3 MAT-file, Platform: GLNXA64, Created on: Mon Jan  1 00:00:00 2024 HDF5 schema 1.00 ."), "v7.3"},
		{"not a MAT-file", []byte(strings.Repeat("x", 200)), "not a MAT-file"},
		{"missing fields", matFileBytes(matHeader, matScalar("srate", 100)), "nbchan"},
		{"negative dimension", matFileBytes(matHeader,
			matStructDims("EEG", []string{"nbchan"}, []int{-1, 1}, [][][]byte{{matScalar("", 3)}})), "negative dimension"},
		{"struct larger than its data", matFileBytes(matHeader,
			matStructDims("EEG", []string{"nbchan"}, []int{1, 1 << 20}, [][][]byte{{matScalar("", 3)}})), "does not fit"},
		{"dimension product overflows", matFileBytes(matHeader,
			matStructDims("EEG", []string{"nbchan"}, []int{1 << 30, 1 << 30, 1 << 30}, [][][]byte{{matScalar("", 3)}})), "does not fit"},
		{"cell larger than its data", matFileBytes(matHeader,
			matMatrix("names", mxCELL, []int{1, 1 << 24}, matChar("", "Fz"))), "does not fit"},
		{"wrong data size", matFileBytes(matHeader, eegStruct(1, 4, 0, matDouble("", []int{3, 1}, 1, 2, 3))), "data has 3 values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.set", tt.data)
			_, err := LoadContinuous(path, true)
			var ce *types.CorruptedFileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CorruptedFileError, got %v", err)
			}
			if !strings.Contains(ce.Reason, tt.want) {
				t.Errorf("Reason = %q, want it to mention %q", ce.Reason, tt.want)
			}
		})
	}
}

func TestModule(t *testing.T) {
	r := registry.New().Install(Module{})

	primary, ok := r.Resolve(".set")
	if !ok || primary.Name() != "eeglab" {
		t.Fatalf("Resolve(.set) = %v, %v", primary, ok)
	}
	fallback, ok := r.Fallback(".SET")
	if !ok || fallback.Name() != "epochs" {
		t.Fatalf("Fallback(.SET) = %v, %v", fallback, ok)
	}
}
