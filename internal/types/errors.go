package types

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Sentinels for errors.Is. Each typed error below matches exactly one.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrFileNotFound      = errors.New("file not found")
	ErrLoadFailed        = errors.New("load failed")
	ErrViewerFailed      = errors.New("viewer failed")
)

// UnsupportedFormatError is returned when a file's extension has no
// registered loader.
type UnsupportedFormatError struct {
	Path      string
	Ext       string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("file must have one of %s extensions, got: %s",
		strings.Join(e.Supported, ", "), e.Path)
}

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// FileNotFoundError is returned when the extension is recognized but the
// path does not resolve to a file.
type FileNotFoundError struct {
	Path string
	Ext  string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Is reports whether target is ErrFileNotFound or fs.ErrNotExist.
func (e *FileNotFoundError) Is(target error) bool {
	return target == ErrFileNotFound || target == fs.ErrNotExist
}

// LoadFailedError is returned when the loader for a recognized extension
// fails. Fallback is set only when a fallback loader was attempted.
type LoadFailedError struct {
	Primary      error
	Fallback     error
	Path         string
	Ext          string
	PrimaryName  string
	FallbackName string
}

func (e *LoadFailedError) Error() string {
	msg := fmt.Sprintf("error loading %s file %s: %v", e.Ext, e.Path, e.Primary)
	if e.Fallback != nil {
		name := e.FallbackName
		if name == "" {
			name = "fallback"
		}
		msg += fmt.Sprintf("; also tried %s loader: %v", name, e.Fallback)
	}
	return msg
}

// Is reports whether target is ErrLoadFailed.
func (e *LoadFailedError) Is(target error) bool {
	return target == ErrLoadFailed
}

// Unwrap returns the primary cause and, when present, the fallback cause.
func (e *LoadFailedError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// ViewerFailedError is returned when the viewer itself fails, for example
// because no terminal or display is available.
type ViewerFailedError struct {
	Err  error
	Path string
}

func (e *ViewerFailedError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("viewer failed for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("viewer failed: %v", e.Err)
}

// Is reports whether target is ErrViewerFailed.
func (e *ViewerFailedError) Is(target error) bool {
	return target == ErrViewerFailed
}

func (e *ViewerFailedError) Unwrap() error { return e.Err }

// OutOfBoundsError is returned when attempting to read beyond file bounds.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (file size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// CorruptedFileError is returned when file structure is invalid.
type CorruptedFileError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *CorruptedFileError) Error() string {
	return fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent the signal from being
// loaded, such as an unreadable marker file or a malformed annotation.
// They are collected in Header.Warnings.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "header", "data", "annotations"

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
