//go:build !moldebug

package heap

import (
	"io"

	"github.com/joshuapare/mallocule/heap/printer"
)

// DebugBuild reports whether the package was built with the moldebug tag.
const DebugBuild = false

// DumpHeap writes the block chain to w. Without the moldebug build tag it
// writes nothing.
func (h *Heap) DumpHeap(w io.Writer) error { return nil }

// DumpHeapOptions is DumpHeap with explicit printer options. Without the
// moldebug build tag it writes nothing.
func (h *Heap) DumpHeapOptions(w io.Writer, opts printer.Options) error { return nil }

func (h *Heap) debugValidate(op string) {}
