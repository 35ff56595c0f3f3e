package batch

import (
	"log"
	"sync/atomic"
	"time"

	"evcam-stream-go/internal/encode"
	"evcam-stream-go/internal/stats"
	"evcam-stream-go/internal/types"
)

// Sink receives completed batch payloads. Publish is fire-and-forget: the
// transport's delivery guarantees are its own business.
type Sink interface {
	Publish(payload []byte)
	SubscriberCount() int
}

// Accumulator owns the in-progress output message and decides when it is
// complete. It runs synchronously on whatever goroutine delivers bursts
// (single-producer contract) and holds no locks: bias reconfiguration
// shares only the hardware session, never batch state.
type Accumulator struct {
	enc      encode.Encoder
	sink     Sink
	counters *stats.Counters

	frameID     string
	width       uint16
	height      uint16
	reserve     int
	thresholdNs uint64

	epoch uint64
	seq   atomic.Uint64 // read by the status page, written by the producer
	cur   encode.Message
}

func NewAccumulator(enc encode.Encoder, sink Sink, counters *stats.Counters, frameID string, width, height int, threshold time.Duration, reserve int) *Accumulator {
	return &Accumulator{
		enc:         enc,
		sink:        sink,
		counters:    counters,
		frameID:     frameID,
		width:       uint16(width),
		height:      uint16(height),
		reserve:     reserve,
		thresholdNs: uint64(threshold.Nanoseconds()),
	}
}

// OnEvents appends one delivery burst and flushes the message once the
// event-time span between its first and last event exceeds the threshold.
// The check runs only after the full burst has been appended, so a single
// oversized burst lands in one message and is never split.
func (a *Accumulator) OnEvents(burst []types.RawEvent) {
	if len(burst) == 0 {
		return
	}
	if a.epoch == 0 {
		a.epoch = uint64(time.Now().UnixNano())
	}
	if a.sink.SubscriberCount() == 0 {
		// nobody downstream: skip accumulation and encoding entirely
		a.counters.AddSkippedBurst()
		return
	}

	if a.cur == nil {
		a.cur = a.enc.NewMessage(encode.Meta{
			FrameID: a.frameID,
			Seq:     a.seq.Load(),
			Width:   a.width,
			Height:  a.height,
			Reserve: a.reserve,
			Epoch:   a.epoch,
		}, burst[0])
		a.seq.Add(1)
	}

	a.cur.Append(burst)

	var tally [2]uint64
	for _, e := range burst {
		tally[e.Polarity&1]++
	}
	a.counters.AddEvents(tally[0], tally[1])

	if a.cur.LastNs() > a.cur.FirstNs()+a.thresholdNs {
		a.flush()
	}
}

func (a *Accumulator) flush() {
	payload, err := a.cur.Marshal()
	if err != nil {
		log.Printf("batch encode failed: %v", err)
	} else {
		a.sink.Publish(payload)
		a.counters.AddPublished(1, uint64(a.cur.Len()))
	}
	a.cur = nil
}

// NextSeq is the sequence number the next allocated message will carry.
func (a *Accumulator) NextSeq() uint64 {
	return a.seq.Load()
}
