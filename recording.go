package eegview

import (
	"github.com/simonhull/eegview/internal/types"
)

// Recording is a loaded recording, continuous or segmented.
type Recording = types.Recording

// Continuous is a single continuous multichannel time series.
type Continuous = types.Continuous

// Segmented is a set of fixed-length epochs sharing channel metadata.
type Segmented = types.Segmented

// Header is the metadata shared by both recording variants.
type Header = types.Header

// Kind distinguishes continuous from segmented recordings.
type Kind = types.Kind

// Recording kinds.
const (
	KindContinuous = types.KindContinuous
	KindSegmented  = types.KindSegmented
)

// Channel describes one signal in a recording.
type Channel = types.Channel

// ChannelType is the category of signal a channel carries.
type ChannelType = types.ChannelType

// Channel types.
const (
	ChannelUnknown = types.ChannelUnknown
	ChannelEEG     = types.ChannelEEG
	ChannelEOG     = types.ChannelEOG
	ChannelECG     = types.ChannelECG
	ChannelEMG     = types.ChannelEMG
	ChannelMisc    = types.ChannelMisc
	ChannelStim    = types.ChannelStim
	ChannelResp    = types.ChannelResp
	ChannelMEG     = types.ChannelMEG
	ChannelBio     = types.ChannelBio
)

// Annotation is a labelled time span relative to the start of a recording.
type Annotation = types.Annotation
