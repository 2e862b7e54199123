package binary

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// SafeWriter wraps io.Writer with position tracking.
type SafeWriter struct {
	w      io.Writer
	offset int64
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{
		w:      w,
		offset: 0,
	}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// WriteASCII writes s left-justified in a space-padded field of width bytes,
// the layout EDF and GDF use for text header fields.
func (sw *SafeWriter) WriteASCII(s string, width int) error {
	if len(s) > width {
		return fmt.Errorf("field %q longer than %d bytes", s, width)
	}
	return sw.WriteString(s + strings.Repeat(" ", width-len(s)))
}

// Write writes a value of type T in big-endian byte order.
// T must be uint8, uint16, uint32, or uint64.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return writeEndian(sw, val, BigEndian)
}

// WriteLE writes a value of type T in little-endian byte order.
// T must be uint8, uint16, uint32, or uint64.
func WriteLE[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return writeEndian(sw, val, LittleEndian)
}

func writeEndian[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T, e Endianness) error {
	order := e.ByteOrder()
	buf := make([]byte, sizeOf[T]())

	var zero T
	switch any(zero).(type) {
	case uint8:
		buf[0] = byte(val)
	case uint16:
		order.PutUint16(buf, uint16(val))
	case uint32:
		order.PutUint32(buf, uint32(val))
	case uint64:
		order.PutUint64(buf, uint64(val))
	}

	return sw.WriteBytes(buf)
}

// WriteSample encodes v in format f. Integer formats truncate toward zero.
func (sw *SafeWriter) WriteSample(v float64, f SampleFormat, e Endianness) error {
	order := e.ByteOrder()
	buf := make([]byte, f.Size())

	switch f {
	case Int8:
		buf[0] = byte(int8(v))
	case Uint8:
		buf[0] = byte(v)
	case Int16:
		order.PutUint16(buf, uint16(int16(v)))
	case Uint16:
		order.PutUint16(buf, uint16(v))
	case Int24:
		u := uint32(int32(v)) & 0xFFFFFF
		if e == LittleEndian {
			buf[0], buf[1], buf[2] = byte(u), byte(u>>8), byte(u>>16)
		} else {
			buf[0], buf[1], buf[2] = byte(u>>16), byte(u>>8), byte(u)
		}
	case Int32:
		order.PutUint32(buf, uint32(int32(v)))
	case Uint32:
		order.PutUint32(buf, uint32(v))
	case Int64:
		order.PutUint64(buf, uint64(int64(v)))
	case Uint64:
		order.PutUint64(buf, uint64(v))
	case Float32:
		order.PutUint32(buf, math.Float32bits(float32(v)))
	case Float64:
		order.PutUint64(buf, math.Float64bits(v))
	default:
		return fmt.Errorf("unsupported sample format %v", f)
	}

	return sw.WriteBytes(buf)
}
