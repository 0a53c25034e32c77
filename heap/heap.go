package heap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/joshuapare/mallocule/arena"
	"github.com/joshuapare/mallocule/internal/format"
)

// LogEnv enables debug logging to stderr when set and Options.Logger is nil.
const LogEnv = "MOL_LOG_ALLOC"

// Ptr is the arena offset of a block's payload. The zero value is Nil: a
// header always precedes the first payload, so no payload starts at 0.
type Ptr uint64

// Nil is the null Ptr.
const Nil Ptr = 0

// Options configures a Heap.
type Options struct {
	// Source backs the heap. It must not have handed out any memory yet.
	// Default: a Mapped arena built from Arena, owned and closed by the heap.
	Source arena.Source

	// Arena configures the default Mapped source when Source is nil.
	// Default: arena.DefaultConfig()
	Arena arena.Config

	// Logger receives arena growth and relocation events.
	// Default: discard, or stderr at debug level when MOL_LOG_ALLOC is set.
	Logger *slog.Logger
}

// Heap is the allocator state: the block chain boundaries, the arena that
// holds it, and the lock that serializes every operation.
//
// A Heap must not be copied after first use.
type Heap struct {
	mu sync.Mutex

	src   arena.Source
	owned io.Closer // non-nil when the heap built its own source

	// head and tail are header offsets of the lowest and highest blocks.
	head int
	tail int

	log    *slog.Logger
	stats  Stats
	closed bool
}

// New creates a heap over opts.Source, or over a fresh Mapped arena.
func New(opts Options) (*Heap, error) {
	h := &Heap{
		src:  opts.Source,
		head: format.NoBlock,
		tail: format.NoBlock,
		log:  resolveLogger(opts.Logger),
	}
	if h.src == nil {
		cfg := opts.Arena
		if cfg.Reserve == 0 {
			cfg.Reserve = arena.DefaultReserve
		}
		m, err := arena.NewMapped(cfg)
		if err != nil {
			return nil, fmt.Errorf("heap: %w", err)
		}
		h.src = m
		h.owned = m
	}
	if n := h.src.Len(); n != 0 {
		return nil, fmt.Errorf("%w: %d bytes already extended", ErrSourceInUse, n)
	}
	return h, nil
}

// Close releases the arena when the heap created it. Every Ptr and every slice
// obtained from Bytes is invalid afterwards. Sources passed in through Options
// are left to the caller. After Close, Allocate and Resize fail with
// arena.ErrClosed, Free is a no-op and the heap reports no blocks.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.head, h.tail = format.NoBlock, format.NoBlock
	if h.owned == nil {
		return nil
	}
	err := h.owned.Close()
	h.owned = nil
	return err
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	if os.Getenv(LogEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
