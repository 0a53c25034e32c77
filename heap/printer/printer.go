// Package printer renders a snapshot of an allocator block chain for humans
// (text) or tools (JSON).
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs the HEAD -> [...] <=> [...] <- TAIL trace.
	FormatText Format = "text"

	// FormatJSON outputs a JSON document with one entry per block.
	FormatJSON Format = "json"
)

// Block is one entry of a chain snapshot.
type Block struct {
	Offset int  `json:"offset"` // header offset within the arena
	Size   int  `json:"size"`   // payload bytes
	Free   bool `json:"free"`
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// Base is the address of arena offset 0. When non-zero, text output shows
	// real addresses instead of arena offsets.
	// Default: 0
	Base uintptr

	// OnePerLine puts each block on its own line in text output instead of
	// chaining them with " <=> ".
	// Default: false
	OnePerLine bool
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:     FormatText,
		Base:       0,
		OnePerLine: false,
	}
}

// Fprint writes blocks to w in the format selected by opts.
func Fprint(w io.Writer, blocks []Block, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return printJSON(w, blocks)
	case FormatText, "":
		return printText(w, blocks, opts)
	default:
		return fmt.Errorf("printer: unknown format %q", opts.Format)
	}
}

func printText(w io.Writer, blocks []Block, opts Options) error {
	if len(blocks) == 0 {
		_, err := io.WriteString(w, "Heap is empty.\n")
		return err
	}

	sep := " <=> "
	if opts.OnePerLine {
		sep = "\n    "
	}

	var sb strings.Builder
	sb.WriteString("--- Heap State ---\n")
	sb.WriteString("HEAD -> ")
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString(sep)
		}
		state := "USED"
		if b.Free {
			state = "FREE"
		}
		addr := uint64(b.Offset)
		if opts.Base != 0 {
			addr += uint64(opts.Base)
		}
		fmt.Fprintf(&sb, "[%s: %d bytes @ 0x%x]", state, b.Size, addr)
	}
	sb.WriteString(" <- TAIL\n------------------\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

type jsonDump struct {
	Count      int     `json:"count"`
	FreeBlocks int     `json:"free_blocks"`
	Blocks     []Block `json:"blocks"`
}

func printJSON(w io.Writer, blocks []Block) error {
	doc := jsonDump{Count: len(blocks), Blocks: blocks}
	if doc.Blocks == nil {
		doc.Blocks = []Block{}
	}
	for _, b := range blocks {
		if b.Free {
			doc.FreeBlocks++
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
