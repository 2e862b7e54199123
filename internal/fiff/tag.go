package fiff

import (
	"fmt"

	"github.com/simonhull/eegview/internal/binary"
)

// Tag kinds.
const (
	kindFileID      = 100
	kindDirPointer  = 101
	kindBlockStart  = 104
	kindBlockEnd    = 105
	kindNChan       = 200
	kindSFreq       = 201
	kindChInfo      = 203
	kindMeasDate    = 204
	kindFirstSample = 208
	kindDataBuffer  = 300
	kindDataSkip    = 301
)

// Block kinds.
const (
	blockMeas           = 100
	blockMeasInfo       = 101
	blockRawData        = 102
	blockContinuousData = 112
)

// Data types.
const (
	typeShort  = 2
	typeInt    = 3
	typeFloat  = 4
	typeDouble = 5
)

// next pointer values.
const (
	nextSeq  = 0
	nextNone = -1
)

const tagHeaderSize = 16

var dataFormats = map[int32]binary.SampleFormat{
	typeShort:  binary.Int16,
	typeInt:    binary.Int32,
	typeFloat:  binary.Float32,
	typeDouble: binary.Float64,
}

// tag is one FIFF tag: a 16-byte big-endian header followed by size
// bytes of data.
type tag struct {
	data []byte
	pos  int64
	kind int32
	typ  int32
	size int32
	next int32
}

// intAt returns the i-th 32-bit integer of the tag data, or 0 if the data
// is too short.
func (t *tag) intAt(i int) int32 {
	if len(t.data) < (i+1)*4 {
		return 0
	}
	return int32(binary.BigEndian.ByteOrder().Uint32(t.data[i*4:]))
}

func (t *tag) floatAt(i int) float64 {
	if len(t.data) < (i+1)*4 {
		return 0
	}
	return binary.Float32.Decode(t.data[i*4:], binary.BigEndian)
}

// readTag reads the tag at pos. Data is loaded for every tag but data
// buffers; those are read lazily by the caller.
func readTag(sr *binary.SafeReader, pos int64) (*tag, error) {
	cr := binary.NewChainReader(binary.NewReader(sr, pos))
	t := &tag{
		pos:  pos,
		kind: int32(binary.ReadChained[uint32](cr, "tag kind")),
		typ:  int32(binary.ReadChained[uint32](cr, "tag type")),
		size: int32(binary.ReadChained[uint32](cr, "tag size")),
		next: int32(binary.ReadChained[uint32](cr, "tag next")),
	}
	if err := cr.Error(); err != nil {
		return nil, err
	}
	if t.size < 0 {
		return nil, fmt.Errorf("tag %d at %d has negative size %d", t.kind, pos, t.size)
	}
	if t.kind != kindDataBuffer {
		data, err := sr.Bytes(pos+tagHeaderSize, int(t.size), fmt.Sprintf("tag %d data", t.kind))
		if err != nil {
			return nil, err
		}
		t.data = data
	}
	return t, nil
}

// nextPos returns the position of the tag following t, or -1 at the end
// of the stream.
func (t *tag) nextPos() int64 {
	switch {
	case t.next == nextSeq:
		return t.pos + tagHeaderSize + int64(t.size)
	case t.next == nextNone:
		return -1
	default:
		return int64(t.next)
	}
}

// walk visits every tag in chain order, starting at offset 0. blocks is
// the stack of enclosing block kinds, innermost last. A block's start and
// end tags are both visited at the block's own depth.
func walk(sr *binary.SafeReader, fn func(t *tag, blocks []int32) error) error {
	var blocks []int32
	seen := make(map[int64]bool)
	for pos := int64(0); pos >= 0 && pos < sr.Size(); {
		if seen[pos] {
			return corrupt(sr.Path(), pos, "tag chain loops back to offset %d", pos)
		}
		seen[pos] = true

		t, err := readTag(sr, pos)
		if err != nil {
			return err
		}
		if t.kind == kindBlockEnd && len(blocks) > 0 {
			blocks = blocks[:len(blocks)-1]
		}
		if err := fn(t, blocks); err != nil {
			return err
		}
		if t.kind == kindBlockStart {
			blocks = append(blocks, t.intAt(0))
		}
		pos = t.nextPos()
	}
	return nil
}

// TagInfo describes one tag of a FIFF file.
type TagInfo struct {
	Pos  int64
	Kind int32
	Type int32
	Size int32
	// Block is the block kind opened or closed by a block start or end
	// tag, and 0 for other tags.
	Block int32
}

// Name returns the tag kind's name, or its number if unknown.
func (t TagInfo) Name() string {
	if n, ok := kindNames[t.Kind]; ok {
		return n
	}
	return fmt.Sprintf("tag %d", t.Kind)
}

// BlockName returns the name of t.Block, or its number if unknown.
func (t TagInfo) BlockName() string {
	if n, ok := blockNames[t.Block]; ok {
		return n
	}
	return fmt.Sprintf("block %d", t.Block)
}

// IsBlockStart reports whether t opens a block.
func (t TagInfo) IsBlockStart() bool { return t.Kind == kindBlockStart }

// IsBlockEnd reports whether t closes a block.
func (t TagInfo) IsBlockEnd() bool { return t.Kind == kindBlockEnd }

// Walk calls fn for every tag of the FIFF file in sr, in chain order, with
// the tag's block nesting depth. Iteration stops at the first error.
func Walk(sr *binary.SafeReader, fn func(t TagInfo, depth int) error) error {
	return walk(sr, func(t *tag, blocks []int32) error {
		info := TagInfo{Pos: t.pos, Kind: t.kind, Type: t.typ, Size: t.size}
		if t.kind == kindBlockStart || t.kind == kindBlockEnd {
			info.Block = t.intAt(0)
		}
		return fn(info, len(blocks))
	})
}

var kindNames = map[int32]string{
	kindFileID:      "file_id",
	kindDirPointer:  "dir_pointer",
	kindBlockStart:  "block_start",
	kindBlockEnd:    "block_end",
	kindNChan:       "nchan",
	kindSFreq:       "sfreq",
	kindChInfo:      "ch_info",
	kindMeasDate:    "meas_date",
	kindFirstSample: "first_sample",
	kindDataBuffer:  "data_buffer",
	kindDataSkip:    "data_skip",
}

var blockNames = map[int32]string{
	blockMeas:           "meas",
	blockMeasInfo:       "meas_info",
	blockRawData:        "raw_data",
	blockContinuousData: "continuous_data",
}
