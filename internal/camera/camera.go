package camera

import (
	"context"
	"errors"
	"time"

	"evcam-stream-go/internal/types"
)

// BurstHandler receives one contiguous group of events. It is invoked
// synchronously on the producer goroutine; bursts from one producer are
// strictly time-ordered. The burst slice may be reused after the call
// returns, so handlers must copy what they keep.
type BurstHandler func(burst []types.RawEvent)

type Options struct {
	UseMultithreading bool
	StatsInterval     time.Duration
	BiasFile          string
}

type Driver interface {
	Initialize(opts Options) error
	Start(ctx context.Context, handler BurstHandler)
	Stop() bool
	Width() int
	Height() int
	SerialNumber() string
}

// BiasAccess relays named bias reads and writes straight to the device.
// It is a pass-through, not a cache: the device may clamp a written value,
// so callers must re-read after a write.
type BiasAccess interface {
	GetBias(name string) (int, error)
	SetBias(name string, value int) error
	SaveBiases() bool
}

// Camera is the full session handle shared by the event-delivery path and
// the bias control plane.
type Camera interface {
	Driver
	BiasAccess
}

var (
	ErrUnknownBias = errors.New("unknown bias parameter")
	ErrBiasRange   = errors.New("bias value out of range")
)

// BiasNames lists the recognized sensor biases in reconfiguration order.
var BiasNames = []string{
	"bias_diff",
	"bias_diff_off",
	"bias_diff_on",
	"bias_fo",
	"bias_hpf",
	"bias_pr",
	"bias_refr",
}
