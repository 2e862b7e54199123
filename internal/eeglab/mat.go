package eeglab

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/simonhull/eegview/internal/binary"
)

// MAT-file level 5 data types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
	miUTF16      = 17
)

// MATLAB array classes.
const (
	mxCELL   = 1
	mxSTRUCT = 2
	mxOBJECT = 3
	mxCHAR   = 4
	mxSPARSE = 5
	mxDOUBLE = 6
	mxUINT64 = 15
)

const matHeaderSize = 128

var miFormats = map[uint32]binary.SampleFormat{
	miINT8:   binary.Int8,
	miUINT8:  binary.Uint8,
	miINT16:  binary.Int16,
	miUINT16: binary.Uint16,
	miINT32:  binary.Int32,
	miUINT32: binary.Uint32,
	miSINGLE: binary.Float32,
	miDOUBLE: binary.Float64,
	miINT64:  binary.Int64,
	miUINT64: binary.Uint64,
}

// Value is a decoded MATLAB array. It is one of *Numeric, *Char, *Cell or
// *Struct. Empty arrays and unsupported classes decode to nil.
type Value interface {
	Dims() []int
}

type dims []int

func (d dims) Dims() []int { return d }

// count returns the number of elements, or false if the product
// overflows. Dimensions are non-negative once decoded by matrix.
func (d dims) count() (int, bool) {
	if len(d) == 0 {
		return 0, true
	}
	n := 1
	for _, v := range d {
		if v != 0 && n > math.MaxInt32/v {
			return 0, false
		}
		n *= v
	}
	return n, true
}

// Numeric is a real numeric or logical array, widened to float64 and
// stored column-major.
type Numeric struct {
	dims
	Data []float64
}

// Scalar returns the first element.
func (n *Numeric) Scalar() (float64, bool) {
	if n == nil || len(n.Data) == 0 {
		return 0, false
	}
	return n.Data[0], true
}

// Char is a character array.
type Char struct {
	dims
	runes []rune
}

// String returns the array as text. Multi-row arrays are read column-major,
// as MATLAB stores them, so only single-row strings round-trip cleanly.
func (c *Char) String() string {
	if c == nil {
		return ""
	}
	return strings.TrimRight(string(c.runes), "\x00 ")
}

// Cell is a cell array.
type Cell struct {
	dims
	Elems []Value
}

// Struct is a struct array. Elems holds one field map per element.
type Struct struct {
	dims
	Fields []string
	Elems  []map[string]Value
}

// Len returns the number of struct elements.
func (s *Struct) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Elems)
}

// Field returns field name of element i, or nil.
func (s *Struct) Field(i int, name string) Value {
	if s == nil || i >= len(s.Elems) {
		return nil
	}
	return s.Elems[i][name]
}

// matFile decodes the level 5 element stream of a MAT-file.
type matFile struct {
	order binary.Endianness
}

// readMAT decodes all top-level variables of a level 5 MAT-file.
func readMAT(b []byte) (map[string]Value, error) {
	if len(b) < matHeaderSize {
		return nil, fmt.Errorf("file too short for a MAT-file header (%d bytes)", len(b))
	}
	text := string(b[:116])
	if strings.HasPrefix(text, "MATLAB 7.3") {
		return nil, fmt.Errorf("MAT-file v7.3 (HDF5) is not supported; re-save the dataset with the '-v7' option")
	}
	if !strings.HasPrefix(text, "MATLAB 5.0") {
		return nil, fmt.Errorf("not a MAT-file level 5: header %q", strings.TrimRight(text[:min(len(text), 20)], "\x00 "))
	}

	m := &matFile{}
	switch string(b[126:128]) {
	case "IM":
		m.order = binary.LittleEndian
	case "MI":
		m.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("invalid MAT-file endian indicator %q", b[126:128])
	}

	vars := make(map[string]Value)
	rest := b[matHeaderSize:]
	for len(rest) > 0 {
		typ, data, next, err := m.element(rest)
		if err != nil {
			return nil, err
		}
		rest = next

		if typ == miCOMPRESSED {
			data, err = inflate(data)
			if err != nil {
				return nil, fmt.Errorf("decompress variable: %w", err)
			}
			typ, data, _, err = m.element(data)
			if err != nil {
				return nil, err
			}
		}
		if typ != miMATRIX {
			continue
		}
		name, v, err := m.matrix(data)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		vars[name] = v
	}
	return vars, nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func (m *matFile) u32(b []byte) uint32 {
	return m.order.ByteOrder().Uint32(b)
}

// element splits the next data element off b. Small elements pack the
// byte count into the upper half of the type word and their data into the
// following four bytes.
func (m *matFile) element(b []byte) (typ uint32, data, rest []byte, err error) {
	if len(b) < 8 {
		return 0, nil, nil, fmt.Errorf("truncated element tag (%d bytes left)", len(b))
	}
	first := m.u32(b)
	if n := first >> 16; n != 0 {
		if n > 4 {
			return 0, nil, nil, fmt.Errorf("small element claims %d bytes", n)
		}
		return first & 0xFFFF, b[4 : 4+n], b[8:], nil
	}

	n := int(m.u32(b[4:]))
	if n < 0 || 8+n > len(b) {
		return 0, nil, nil, fmt.Errorf("element of type %d claims %d bytes, %d available", first, n, len(b)-8)
	}
	end := 8 + n
	if first != miCOMPRESSED {
		end = 8 + (n+7)&^7
	}
	return first, b[8 : 8+n], b[min(end, len(b)):], nil
}

// matrix decodes the body of a miMATRIX element.
func (m *matFile) matrix(b []byte) (string, Value, error) {
	if len(b) == 0 {
		return "", nil, nil
	}

	_, flagsData, rest, err := m.element(b)
	if err != nil {
		return "", nil, fmt.Errorf("array flags: %w", err)
	}
	if len(flagsData) < 4 {
		return "", nil, fmt.Errorf("array flags too short")
	}
	flags := m.u32(flagsData)
	class := flags & 0xFF

	_, dimData, rest, err := m.element(rest)
	if err != nil {
		return "", nil, fmt.Errorf("dimensions: %w", err)
	}
	d := make(dims, len(dimData)/4)
	for i := range d {
		d[i] = int(int32(m.u32(dimData[i*4:])))
		if d[i] < 0 {
			return "", nil, fmt.Errorf("negative dimension %d in %v", d[i], []int(d))
		}
	}

	_, nameData, rest, err := m.element(rest)
	if err != nil {
		return "", nil, fmt.Errorf("array name: %w", err)
	}
	name := string(nameData)

	var v Value
	switch {
	case class >= mxDOUBLE && class <= mxUINT64:
		v, err = m.numeric(d, rest)
	case class == mxCHAR:
		v, err = m.char(d, rest)
	case class == mxCELL:
		v, err = m.cell(d, rest)
	case class == mxSTRUCT:
		v, err = m.structure(d, rest)
	case class == mxOBJECT, class == mxSPARSE:
		// not used by EEGLAB datasets
	default:
		err = fmt.Errorf("unknown array class %d", class)
	}
	return name, v, err
}

// numeric decodes the real part of a numeric array. The imaginary part of
// complex arrays is ignored.
func (m *matFile) numeric(d dims, b []byte) (Value, error) {
	typ, data, _, err := m.element(b)
	if err != nil {
		return nil, fmt.Errorf("real part: %w", err)
	}
	format, ok := miFormats[typ]
	if !ok {
		return nil, fmt.Errorf("unsupported numeric element type %d", typ)
	}
	out := make([]float64, len(data)/format.Size())
	if err := binary.DecodeSamples(out, data, format, m.order); err != nil {
		return nil, err
	}
	return &Numeric{dims: d, Data: out}, nil
}

func (m *matFile) char(d dims, b []byte) (Value, error) {
	typ, data, _, err := m.element(b)
	if err != nil {
		return nil, fmt.Errorf("char data: %w", err)
	}
	c := &Char{dims: d}
	switch typ {
	case miUINT16, miUTF16:
		units := make([]uint16, len(data)/2)
		for i := range units {
			units[i] = m.order.ByteOrder().Uint16(data[i*2:])
		}
		c.runes = utf16.Decode(units)
	case miUTF8:
		c.runes = []rune(string(data))
	case miINT8, miUINT8:
		c.runes = make([]rune, len(data))
		for i, ch := range data {
			c.runes[i] = rune(ch)
		}
	default:
		return nil, fmt.Errorf("unsupported char element type %d", typ)
	}
	return c, nil
}

func (m *matFile) cell(d dims, b []byte) (Value, error) {
	// Every cell holds at least an 8-byte element tag.
	n, ok := d.count()
	if !ok || n > len(b)/8 {
		return nil, fmt.Errorf("cell array %v does not fit in %d bytes", []int(d), len(b))
	}
	c := &Cell{dims: d, Elems: make([]Value, n)}
	for i := range c.Elems {
		typ, data, rest, err := m.element(b)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		b = rest
		if typ != miMATRIX {
			return nil, fmt.Errorf("cell %d: element type %d, want matrix", i, typ)
		}
		if _, c.Elems[i], err = m.matrix(data); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
	}
	return c, nil
}

func (m *matFile) structure(d dims, b []byte) (Value, error) {
	_, lenData, rest, err := m.element(b)
	if err != nil || len(lenData) < 4 {
		return nil, fmt.Errorf("field name length: %v", err)
	}
	width := int(m.u32(lenData))

	_, namesData, rest, err := m.element(rest)
	if err != nil {
		return nil, fmt.Errorf("field names: %w", err)
	}
	if width <= 0 {
		return &Struct{dims: d}, nil
	}
	s := &Struct{dims: d}
	for off := 0; off+width <= len(namesData); off += width {
		s.Fields = append(s.Fields, strings.TrimRight(string(namesData[off:off+width]), "\x00"))
	}

	if len(s.Fields) == 0 {
		return s, nil
	}
	n, ok := d.count()
	if !ok || n > len(rest)/(8*len(s.Fields)) {
		return nil, fmt.Errorf("struct array %v with %d fields does not fit in %d bytes", []int(d), len(s.Fields), len(rest))
	}
	s.Elems = make([]map[string]Value, n)
	for i := range s.Elems {
		s.Elems[i] = make(map[string]Value, len(s.Fields))
		for _, field := range s.Fields {
			typ, data, next, err := m.element(rest)
			if err != nil {
				return nil, fmt.Errorf("field %s(%d): %w", field, i+1, err)
			}
			rest = next
			if typ != miMATRIX {
				return nil, fmt.Errorf("field %s(%d): element type %d, want matrix", field, i+1, typ)
			}
			if _, s.Elems[i][field], err = m.matrix(data); err != nil {
				return nil, fmt.Errorf("field %s(%d): %w", field, i+1, err)
			}
		}
	}
	return s, nil
}
