package eegview

// NormalizedTypes are the channel types kept by Normalize, in no
// particular order.
var NormalizedTypes = []ChannelType{
	ChannelEEG,
	ChannelEOG,
	ChannelECG,
	ChannelEMG,
	ChannelMisc,
}

// Normalize restricts rec, in place, to EEG, EOG, ECG, EMG and Misc
// channels and returns it.
//
// Channel order is preserved and sample data of kept channels is not
// touched. Normalize never fails and is idempotent.
func Normalize(rec Recording) Recording {
	rec.PickTypes(NormalizedTypes...)
	return rec
}
