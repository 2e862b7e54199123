package binary

import (
	"fmt"
	"math"
)

// SampleFormat is the on-disk encoding of one signal sample.
type SampleFormat int

const (
	Int8 SampleFormat = iota
	Uint8
	Int16
	Uint16
	Int24
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var sampleFormatNames = map[SampleFormat]string{
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int24:   "int24",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (f SampleFormat) String() string {
	if name, ok := sampleFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("SampleFormat(%d)", int(f))
}

// Size returns the number of bytes one sample occupies.
func (f SampleFormat) Size() int {
	switch f {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int24:
		return 3
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// Decode converts one encoded sample to float64.
// b must hold at least f.Size() bytes.
func (f SampleFormat) Decode(b []byte, e Endianness) float64 {
	order := e.ByteOrder()
	switch f {
	case Int8:
		return float64(int8(b[0]))
	case Uint8:
		return float64(b[0])
	case Int16:
		return float64(int16(order.Uint16(b)))
	case Uint16:
		return float64(order.Uint16(b))
	case Int24:
		var v int32
		if e == LittleEndian {
			v = int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		} else {
			v = int32(b[2]) | int32(b[1])<<8 | int32(b[0])<<16
		}
		// sign-extend from bit 23
		v = v << 8 >> 8
		return float64(v)
	case Int32:
		return float64(int32(order.Uint32(b)))
	case Uint32:
		return float64(order.Uint32(b))
	case Int64:
		return float64(int64(order.Uint64(b)))
	case Uint64:
		return float64(order.Uint64(b))
	case Float32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case Float64:
		return math.Float64frombits(order.Uint64(b))
	default:
		return 0
	}
}

// DecodeSamples decodes len(dst) consecutive samples from b into dst.
// It returns an error if b is too short.
func DecodeSamples(dst []float64, b []byte, f SampleFormat, e Endianness) error {
	size := f.Size()
	if size == 0 {
		return fmt.Errorf("unsupported sample format %v", f)
	}
	if len(b) < len(dst)*size {
		return fmt.Errorf("need %d bytes for %d %v samples, have %d", len(dst)*size, len(dst), f, len(b))
	}
	for i := range dst {
		dst[i] = f.Decode(b[i*size:], e)
	}
	return nil
}
