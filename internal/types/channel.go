package types

import "strings"

// ChannelType is the category of signal a channel carries.
type ChannelType int

const (
	// ChannelUnknown is a channel whose category could not be determined.
	ChannelUnknown ChannelType = iota
	// ChannelEEG is a primary bioelectric (scalp EEG) signal.
	ChannelEEG
	// ChannelEOG is an eye-movement reference.
	ChannelEOG
	// ChannelECG is a cardiac reference.
	ChannelECG
	// ChannelEMG is a muscle-activity reference.
	ChannelEMG
	// ChannelMisc is the uncategorized miscellaneous bucket.
	ChannelMisc
	// ChannelStim is a trigger or status channel.
	ChannelStim
	// ChannelResp is a respiration sensor.
	ChannelResp
	// ChannelMEG is a magnetometer or gradiometer.
	ChannelMEG
	// ChannelBio is any other physiological sensor (GSR, temperature, ...).
	ChannelBio
)

// String returns the lowercase short name used by most EEG tooling.
func (t ChannelType) String() string {
	switch t {
	case ChannelEEG:
		return "eeg"
	case ChannelEOG:
		return "eog"
	case ChannelECG:
		return "ecg"
	case ChannelEMG:
		return "emg"
	case ChannelMisc:
		return "misc"
	case ChannelStim:
		return "stim"
	case ChannelResp:
		return "resp"
	case ChannelMEG:
		return "meg"
	case ChannelBio:
		return "bio"
	default:
		return "unknown"
	}
}

// ParseChannelType maps a type name as written in vendor headers ("EEG",
// "eog", "Trigger", ...) to a ChannelType. Empty names map to ChannelUnknown.
func ParseChannelType(name string) ChannelType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return ChannelUnknown
	case "eeg", "seeg", "ecog", "dbs":
		return ChannelEEG
	case "eog", "heog", "veog":
		return ChannelEOG
	case "ecg", "ekg":
		return ChannelECG
	case "emg":
		return ChannelEMG
	case "misc", "other":
		return ChannelMisc
	case "stim", "trigger", "trig", "status", "event":
		return ChannelStim
	case "resp", "respiration":
		return ChannelResp
	case "meg", "mag", "grad":
		return ChannelMEG
	case "bio", "gsr", "temp", "temperature":
		return ChannelBio
	default:
		return ChannelUnknown
	}
}

// InferChannelType guesses the category of a channel from its label.
//
// EDF-style labels carry the type as a prefix ("EEG Fp1", "EOG left");
// other formats use bare names ("HEOG", "EKG", "Status"). Labels that match
// nothing are assumed to be EEG, which is what every supported vendor
// defaults to.
func InferChannelType(label string) ChannelType {
	l := strings.ToUpper(strings.TrimSpace(label))
	if l == "" {
		return ChannelEEG
	}

	// Explicit "TYPE name" prefix wins.
	if prefix, _, ok := strings.Cut(l, " "); ok {
		if t := ParseChannelType(prefix); t != ChannelUnknown {
			return t
		}
	}

	switch {
	case strings.Contains(l, "EOG"):
		return ChannelEOG
	case strings.Contains(l, "ECG"), strings.Contains(l, "EKG"):
		return ChannelECG
	case strings.Contains(l, "EMG"):
		return ChannelEMG
	case l == "STATUS", strings.HasPrefix(l, "TRIG"), strings.HasPrefix(l, "STI"), l == "MARKER":
		return ChannelStim
	case strings.HasPrefix(l, "RESP"):
		return ChannelResp
	case strings.HasPrefix(l, "MISC"):
		return ChannelMisc
	}
	return ChannelEEG
}

// Channel describes one signal in a recording.
type Channel struct {
	Name string
	Unit string // physical unit after calibration, e.g. "uV"
	Type ChannelType
}

// Annotation is a labelled time span, relative to the start of the recording.
type Annotation struct {
	Description string
	Onset       float64 // seconds
	Duration    float64 // seconds, 0 for instantaneous events
}
