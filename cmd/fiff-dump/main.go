package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/fiff"
)

// Prints the tag tree of a FIFF file, to check what the loader will see.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: fiff-dump <file.fif>")
		os.Exit(1)
	}

	f, err := binary.Open(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	err = fiff.Walk(f.SafeReader, func(t fiff.TagInfo, depth int) error {
		indent := strings.Repeat("  ", depth)
		switch {
		case t.IsBlockStart():
			fmt.Printf("%s{ %s (offset: %d)\n", indent, t.BlockName(), t.Pos)
		case t.IsBlockEnd():
			fmt.Printf("%s} %s\n", indent, t.BlockName())
		default:
			fmt.Printf("%s%s (type: %d, size: %d, offset: %d)\n", indent, t.Name(), t.Type, t.Size, t.Pos)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
