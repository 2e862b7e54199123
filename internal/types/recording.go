// Package types provides the in-memory representation of a loaded
// electrophysiology recording.
//
// Every format package produces one of two variants: a Continuous recording
// (one multichannel time series) or a Segmented recording (fixed-length
// epochs that share channel metadata). Both satisfy Recording.
package types

import (
	"slices"
	"time"
)

// Kind distinguishes the two Recording variants.
type Kind int

const (
	// KindContinuous is a single continuous multichannel time series.
	KindContinuous Kind = iota
	// KindSegmented is a set of epochs sharing channel metadata.
	KindSegmented
)

// String returns "continuous" or "segmented".
func (k Kind) String() string {
	if k == KindSegmented {
		return "segmented"
	}
	return "continuous"
}

// Recording is the capability set shared by both recording variants.
type Recording interface {
	// Kind reports which variant this is.
	Kind() Kind
	// Info returns the shared header. Callers must not modify it.
	Info() *Header
	// Channels returns the current channel list, in file order.
	Channels() []Channel
	// ChannelNames returns the names of Channels().
	ChannelNames() []string
	// ChannelTypes returns the types of Channels().
	ChannelTypes() []ChannelType
	// SampleRate returns the sampling rate in Hz.
	SampleRate() float64
	// NumSamples is the number of samples per channel (per epoch when segmented).
	NumSamples() int
	// Duration is the total amount of signal time held in memory.
	Duration() time.Duration
	// Annotations returns event annotations, possibly empty.
	Annotations() []Annotation
	// PickTypes restricts the channel set, in place, to the given types.
	// Sample data of retained channels is not modified.
	PickTypes(keep ...ChannelType)
}

// Header is the metadata shared by both recording variants.
type Header struct {
	MeasDate time.Time
	Path     string
	Format   string // human-readable format name, e.g. "EDF+" or "BrainVision"
	Chs      []Channel
	Events   []Annotation
	Warnings []Warning
	Sfreq    float64
}

// Info returns h.
func (h *Header) Info() *Header { return h }

// Channels returns a copy of the channel list.
func (h *Header) Channels() []Channel { return slices.Clone(h.Chs) }

// ChannelNames returns the channel names in order.
func (h *Header) ChannelNames() []string {
	names := make([]string, len(h.Chs))
	for i, ch := range h.Chs {
		names[i] = ch.Name
	}
	return names
}

// ChannelTypes returns the channel types in order.
func (h *Header) ChannelTypes() []ChannelType {
	kinds := make([]ChannelType, len(h.Chs))
	for i, ch := range h.Chs {
		kinds[i] = ch.Type
	}
	return kinds
}

// SampleRate returns the sampling rate in Hz.
func (h *Header) SampleRate() float64 { return h.Sfreq }

// Annotations returns the event annotations.
func (h *Header) Annotations() []Annotation { return h.Events }

// pick returns the indices of channels whose type is in keep and shrinks
// h.Chs to those channels.
func (h *Header) pick(keep []ChannelType) []int {
	idx := make([]int, 0, len(h.Chs))
	chs := make([]Channel, 0, len(h.Chs))
	for i, ch := range h.Chs {
		if slices.Contains(keep, ch.Type) {
			idx = append(idx, i)
			chs = append(chs, ch)
		}
	}
	h.Chs = chs
	return idx
}

func samplesToDuration(n int, sfreq float64) time.Duration {
	if sfreq <= 0 {
		return 0
	}
	return time.Duration(float64(n) / sfreq * float64(time.Second))
}

// Continuous is a single continuous multichannel time series.
type Continuous struct {
	Header
	// Data holds one row per channel, calibrated to physical units.
	Data [][]float64
}

// Kind returns KindContinuous.
func (c *Continuous) Kind() Kind { return KindContinuous }

// NumSamples returns the number of samples per channel.
func (c *Continuous) NumSamples() int {
	if len(c.Data) == 0 {
		return 0
	}
	return len(c.Data[0])
}

// Duration returns NumSamples / SampleRate.
func (c *Continuous) Duration() time.Duration {
	return samplesToDuration(c.NumSamples(), c.Sfreq)
}

// PickTypes drops channels whose type is not in keep.
func (c *Continuous) PickTypes(keep ...ChannelType) {
	idx := c.pick(keep)
	if len(c.Data) == 0 {
		return
	}
	data := make([][]float64, 0, len(idx))
	for _, i := range idx {
		data = append(data, c.Data[i])
	}
	c.Data = data
}

// Segmented is a collection of fixed-length epochs sharing channel metadata.
type Segmented struct {
	Header
	// Epochs is indexed [epoch][channel][sample].
	Epochs [][][]float64
	// Tmin is the time of the first sample of each epoch relative to its
	// time-locking event, in seconds.
	Tmin float64
}

// Kind returns KindSegmented.
func (s *Segmented) Kind() Kind { return KindSegmented }

// NumEpochs returns the number of epochs.
func (s *Segmented) NumEpochs() int { return len(s.Epochs) }

// NumSamples returns the number of samples per channel in one epoch.
func (s *Segmented) NumSamples() int {
	if len(s.Epochs) == 0 || len(s.Epochs[0]) == 0 {
		return 0
	}
	return len(s.Epochs[0][0])
}

// Duration returns the summed length of all epochs.
func (s *Segmented) Duration() time.Duration {
	return samplesToDuration(s.NumSamples()*len(s.Epochs), s.Sfreq)
}

// PickTypes drops channels whose type is not in keep, in every epoch.
func (s *Segmented) PickTypes(keep ...ChannelType) {
	idx := s.pick(keep)
	for e, epoch := range s.Epochs {
		if len(epoch) == 0 {
			continue
		}
		rows := make([][]float64, 0, len(idx))
		for _, i := range idx {
			rows = append(rows, epoch[i])
		}
		s.Epochs[e] = rows
	}
}
