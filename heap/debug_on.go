//go:build moldebug

package heap

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/joshuapare/mallocule/heap/printer"
	"github.com/joshuapare/mallocule/internal/format"
)

// In debug builds every mutating operation re-validates the whole chain.

// DebugBuild reports whether the package was built with the moldebug tag.
const DebugBuild = true

// DumpHeap writes the block chain from head to tail to w, one entry per block
// with its state, payload size and header address.
func (h *Heap) DumpHeap(w io.Writer) error {
	return h.DumpHeapOptions(w, printer.DefaultOptions())
}

// DumpHeapOptions is DumpHeap with explicit printer options. A zero
// opts.Base is replaced with the arena's base address.
func (h *Heap) DumpHeapOptions(w io.Writer, opts printer.Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := h.src.Bytes()
	if opts.Base == 0 && len(data) > 0 {
		opts.Base = uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	}

	var blocks []printer.Block
	h.walk(func(b format.Block) bool {
		blocks = append(blocks, printer.Block{
			Offset: b.Off,
			Size:   b.Size(),
			Free:   b.Free(),
		})
		return true
	})
	return printer.Fprint(w, blocks, opts)
}

func (h *Heap) debugValidate(op string) {
	if h.closed {
		return
	}
	if err := h.checkLocked(); err != nil {
		panic(fmt.Sprintf("heap: chain corrupted after %s: %v", op, err))
	}
}
