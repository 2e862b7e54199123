package eegview

import (
	"github.com/simonhull/eegview/internal/types"
)

// UnsupportedFormatError is returned when no loader is registered for a
// file's extension.
type UnsupportedFormatError = types.UnsupportedFormatError

// FileNotFoundError is returned when the extension is supported but the
// file does not exist.
type FileNotFoundError = types.FileNotFoundError

// LoadFailedError is returned when a format loader fails.
type LoadFailedError = types.LoadFailedError

// ViewerFailedError is returned when the viewer cannot display a recording.
type ViewerFailedError = types.ViewerFailedError

// CorruptedFileError is returned by format loaders when file structure is
// invalid. It reaches callers wrapped in a LoadFailedError.
type CorruptedFileError = types.CorruptedFileError

// OutOfBoundsError is returned by format loaders when a read would go past
// the end of the file. It reaches callers wrapped in a LoadFailedError.
type OutOfBoundsError = types.OutOfBoundsError

// Warning is a non-fatal issue found while loading.
type Warning = types.Warning

// Sentinels for errors.Is.
var (
	ErrUnsupportedFormat = types.ErrUnsupportedFormat
	ErrFileNotFound      = types.ErrFileNotFound
	ErrLoadFailed        = types.ErrLoadFailed
	ErrViewerFailed      = types.ErrViewerFailed
)
