package binary

import (
	"fmt"
	"os"
)

// File is a SafeReader over an open file on disk.
type File struct {
	*SafeReader
	f *os.File
}

// Open opens path for bounds-checked reading.
//
// Always call Close() when done:
//
//	f, err := binary.Open("subject01.edf")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if stat.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open file: %s is a directory", path)
	}

	return &File{
		SafeReader: NewSafeReader(f, stat.Size(), path),
		f:          f,
	}, nil
}

// Close releases the file handle.
func (f *File) Close() error {
	return f.f.Close()
}
