package brainvision

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/ini.v1"

	"github.com/simonhull/eegview/internal/binary"
)

// headerMagic prefixes every header and marker file; the version suffix
// varies between recorder releases.
const (
	headerMagic = "Brain Vision Data Exchange Header File"
	markerMagic = "Brain Vision Data Exchange Marker File"
	altMagic    = "BrainVision Data Exchange" // newer recorders drop the space
)

// parseINI reads the INI layout shared by .vhdr and .vmrk files. The first
// line must start with one of the given magics. Lines starting with ';'
// are comments; free text such as the [Comment] section is skipped.
func parseINI(r io.Reader, magics ...string) (*ini.File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(toUTF8(string(raw)), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty file")
	}

	first, rest, _ := strings.Cut(text, "\n")
	first = strings.TrimRight(first, "\r")
	ok := false
	for _, m := range magics {
		if strings.HasPrefix(first, m) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("unrecognized first line %q", first)
	}

	f, err := ini.LoadSources(ini.LoadOptions{
		SkipUnrecognizableLines: true,
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		KeyValueDelimiters:      "=",
	}, []byte(rest))
	if err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	return f, nil
}

// get returns the value of key in section sec, or "" if either is absent.
func get(f *ini.File, sec, key string) string {
	v, _ := lookup(f, sec, key)
	return v
}

func lookup(f *ini.File, sec, key string) (string, bool) {
	s, err := f.GetSection(sec)
	if err != nil {
		return "", false
	}
	k, err := s.GetKey(key)
	if err != nil {
		return "", false
	}
	return k.Value(), true
}

// toUTF8 decodes Latin-1 text. Older recorders write the header in the
// Windows codepage, where 'µ' is the single byte 0xB5.
func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		b.WriteRune(rune(s[i]))
	}
	return b.String()
}

// orientation is the sample layout of the binary data file.
type orientation int

const (
	multiplexed orientation = iota // sample-major: ch1 ch2 ... ch1 ch2 ...
	vectorized                     // channel-major: all of ch1, then all of ch2
)

var binaryFormats = map[string]binary.SampleFormat{
	"INT_16":        binary.Int16,
	"UINT_16":       binary.Uint16,
	"INT_32":        binary.Int32,
	"IEEE_FLOAT_32": binary.Float32,
}

type channelInfo struct {
	name       string
	ref        string
	unit       string
	resolution float64
}

type header struct {
	dataFile    string
	markerFile  string
	channels    []channelInfo
	interval    float64 // sampling interval, microseconds
	format      binary.SampleFormat
	orientation orientation
}

func parseHeader(s *ini.File) (*header, error) {
	h := &header{
		dataFile:   strings.TrimSpace(get(s, "Common Infos", "DataFile")),
		markerFile: strings.TrimSpace(get(s, "Common Infos", "MarkerFile")),
	}
	if h.dataFile == "" {
		return nil, fmt.Errorf("[Common Infos] has no DataFile")
	}

	if f := strings.TrimSpace(get(s, "Common Infos", "DataFormat")); f != "" && !strings.EqualFold(f, "BINARY") {
		return nil, fmt.Errorf("data format %q not supported, only BINARY", f)
	}

	switch o := strings.ToUpper(strings.TrimSpace(get(s, "Common Infos", "DataOrientation"))); o {
	case "", "MULTIPLEXED":
		h.orientation = multiplexed
	case "VECTORIZED":
		h.orientation = vectorized
	default:
		return nil, fmt.Errorf("unknown data orientation %q", o)
	}

	bf := strings.ToUpper(strings.TrimSpace(get(s, "Binary Infos", "BinaryFormat")))
	format, ok := binaryFormats[bf]
	if !ok {
		return nil, fmt.Errorf("unsupported binary format %q", bf)
	}
	h.format = format

	interval, err := strconv.ParseFloat(strings.TrimSpace(get(s, "Common Infos", "SamplingInterval")), 64)
	if err != nil || interval <= 0 {
		return nil, fmt.Errorf("invalid SamplingInterval %q", get(s, "Common Infos", "SamplingInterval"))
	}
	h.interval = interval

	n, err := strconv.Atoi(strings.TrimSpace(get(s, "Common Infos", "NumberOfChannels")))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("invalid NumberOfChannels %q", get(s, "Common Infos", "NumberOfChannels"))
	}

	h.channels = make([]channelInfo, n)
	for i := range h.channels {
		key := "Ch" + strconv.Itoa(i+1)
		raw, ok := lookup(s, "Channel Infos", key)
		if !ok {
			return nil, fmt.Errorf("[Channel Infos] is missing %s", key)
		}
		ch, err := parseChannel(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		h.channels[i] = ch
	}

	return h, nil
}

// parseChannel decodes "Name,Reference,Resolution,Unit". Commas inside
// names are written as "\1".
func parseChannel(raw string) (channelInfo, error) {
	fields := strings.Split(raw, ",")
	for i := range fields {
		fields[i] = strings.ReplaceAll(fields[i], `\1`, ",")
	}

	ch := channelInfo{name: fields[0], resolution: 1, unit: "uV"}
	if len(fields) > 1 {
		ch.ref = fields[1]
	}
	if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
		res, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return ch, fmt.Errorf("invalid resolution %q", fields[2])
		}
		ch.resolution = res
	}
	if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
		ch.unit = normalizeUnit(strings.TrimSpace(fields[3]))
	}
	return ch, nil
}

func normalizeUnit(u string) string {
	return strings.NewReplacer("µ", "u", "μ", "u").Replace(u)
}
