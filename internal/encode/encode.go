package encode

import (
	"fmt"

	"evcam-stream-go/internal/types"
)

// Meta is the per-message header fixed at allocation time.
type Meta struct {
	FrameID string
	Seq     uint64
	Width   uint16
	Height  uint16
	// Reserve is the number of event records to preallocate so appends do
	// not reallocate at steady state.
	Reserve int
	// Epoch is the wall-clock time in nanoseconds corresponding to SDK
	// tick zero; absolute event time is Epoch + 1000*tick.
	Epoch uint64
}

// Message is one wire message under construction. It is owned by a single
// accumulator until marshaled and is not safe for concurrent use.
type Message interface {
	Append(burst []types.RawEvent)
	// FirstNs and LastNs are the absolute timestamps of the first and the
	// most recently appended event.
	FirstNs() uint64
	LastNs() uint64
	Len() int
	Marshal() ([]byte, error)
}

// Encoder is the per-event transform strategy, selected once at startup
// and fixed for the process lifetime.
type Encoder interface {
	Name() string
	NewMessage(meta Meta, first types.RawEvent) Message
}

func ByName(name string) (Encoder, error) {
	switch name {
	case "verbose":
		return VerboseEncoder{}, nil
	case "compact":
		return CompactEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

func absNs(epoch uint64, tick int64) uint64 {
	return epoch + uint64(tick)*1000
}
