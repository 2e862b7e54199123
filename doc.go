// Package eegview loads electrophysiology recordings from the common vendor
// formats into one in-memory representation.
//
// # Quick Start
//
// Loading a recording:
//
//	rec, err := eegview.Load("sub-01_task-rest_eeg.edf")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("%d channels at %g Hz, %s\n",
//		len(rec.Channels()), rec.SampleRate(), rec.Duration())
//
// # Supported Formats
//
//   - .set: EEGLAB datasets (MAT level 5), continuous or epoched
//   - .edf: European Data Format, including EDF+ annotations
//   - .bdf: BioSemi 24-bit EDF variant
//   - .gdf: General Data Format 1.x and 2.x, with the event table
//   - .vhdr: BrainVision header, data and marker files
//   - .fif: Neuromag/Elekta FIFF raw recordings
//   - .raw: EGI simple binary
//
// The format is chosen by file extension alone, compared case-insensitively.
//
// # Loading
//
// A Loader is built from a format registry. DefaultRegistry installs every
// built-in format and freezes the registry, after which it is read-only:
//
//	loader := eegview.NewLoader(eegview.DefaultRegistry())
//	rec, err := loader.Load(path)
//
// Loading checks, in order: that the extension is supported, that the file
// exists, and then runs the format's loader. EEGLAB files may hold either
// continuous data or epochs; if the continuous loader fails, the epochs
// loader is tried before giving up.
//
// Loaded recordings are normalized: only EEG, EOG, ECG, EMG and Misc
// channels are kept. Use WithoutNormalize to keep every channel.
//
// Several files can be loaded concurrently:
//
//	recs, err := loader.LoadMany(ctx, paths...)
//
// # Recordings
//
// A Recording is either *Continuous (one channel × sample matrix) or
// *Segmented (epoch × channel × sample). Both expose channel metadata,
// sampling rate, duration and annotations through the Recording interface.
//
//	switch r := rec.(type) {
//	case *eegview.Continuous:
//		fmt.Println(len(r.Data[0]), "samples")
//	case *eegview.Segmented:
//		fmt.Println(r.NumEpochs(), "epochs")
//	}
//
// # Error Handling
//
// Every failure is one of four typed errors, each matching a sentinel with
// errors.Is:
//
//   - *UnsupportedFormatError (ErrUnsupportedFormat): unknown extension
//   - *FileNotFoundError (ErrFileNotFound): extension known, file missing
//   - *LoadFailedError (ErrLoadFailed): the format loader failed
//   - *ViewerFailedError (ErrViewerFailed): the viewer could not run
//
// LoadFailedError wraps the loader's own error, usually a
// *CorruptedFileError or *OutOfBoundsError. When a fallback loader was
// tried, both causes are wrapped:
//
//	var lf *eegview.LoadFailedError
//	if errors.As(err, &lf) && lf.Fallback != nil {
//		log.Printf("continuous: %v; epochs: %v", lf.Primary, lf.Fallback)
//	}
//
// Non-fatal problems, such as an unreadable marker file, are collected in
// the recording's Info().Warnings.
package eegview
