package eegview

import (
	"os"

	"github.com/charmbracelet/log"
)

// Option configures a Loader.
//
// Options use the functional options pattern:
//
//	loader := eegview.NewLoader(eegview.DefaultRegistry(),
//	    eegview.WithLogger(logger.NewStyledLogger("loader")),
//	    eegview.WithoutNormalize(),
//	)
type Option func(*loadOptions)

// loadOptions holds configuration for loading files.
type loadOptions struct {
	logger        *log.Logger
	stat          func(string) (os.FileInfo, error)
	skipNormalize bool // keep every channel, including Stim and Resp
}

// defaultOptions returns the default configuration.
func defaultOptions() *loadOptions {
	return &loadOptions{
		logger: discardLogger(),
		stat:   os.Stat,
	}
}

// WithLogger sets the logger used for resolution, fallback and timing
// messages. Messages are logged at debug level, except load warnings.
//
// By default the loader does not log.
func WithLogger(l *log.Logger) Option {
	return func(o *loadOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithoutNormalize keeps every channel the format loader produced.
//
// By default, loaded recordings are restricted to EEG, EOG, ECG, EMG and
// Misc channels. This option is meant for diagnostics, for example to look
// at a trigger channel.
func WithoutNormalize() Option {
	return func(o *loadOptions) {
		o.skipNormalize = true
	}
}

// WithStat replaces the function used to check that a file exists.
//
// Default is os.Stat.
func WithStat(stat func(string) (os.FileInfo, error)) Option {
	return func(o *loadOptions) {
		if stat != nil {
			o.stat = stat
		}
	}
}
