package stats

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Counters are process-wide running totals mutated from the event path.
// Monotonic, never reset for the process lifetime.
type Counters struct {
	eventsOff     atomic.Uint64
	eventsOn      atomic.Uint64
	eventsSent    atomic.Uint64
	msgsSent      atomic.Uint64
	burstsSkipped atomic.Uint64
}

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) AddEvents(off, on uint64) {
	c.eventsOff.Add(off)
	c.eventsOn.Add(on)
}

func (c *Counters) AddPublished(msgs, events uint64) {
	c.msgsSent.Add(msgs)
	c.eventsSent.Add(events)
}

func (c *Counters) AddSkippedBurst() {
	c.burstsSkipped.Add(1)
}

func (c *Counters) Snapshot() map[string]any {
	return map[string]any{
		"events_off_total":     c.eventsOff.Load(),
		"events_on_total":      c.eventsOn.Load(),
		"events_sent_total":    c.eventsSent.Load(),
		"msgs_sent_total":      c.msgsSent.Load(),
		"bursts_skipped_total": c.burstsSkipped.Load(),
	}
}

// RunPrinter logs per-interval rates until the context is cancelled.
func (c *Counters) RunPrinter(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prevOff, prevOn, prevSentEvents, prevSentMsgs uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			off := c.eventsOff.Load()
			on := c.eventsOn.Load()
			sentEvents := c.eventsSent.Load()
			sentMsgs := c.msgsSent.Load()
			secs := interval.Seconds()
			log.Printf("events: %.4g Mev/s off, %.4g Mev/s on, out: %.4g Mev/s, %.4g msgs/s",
				float64(off-prevOff)/secs/1e6,
				float64(on-prevOn)/secs/1e6,
				float64(sentEvents-prevSentEvents)/secs/1e6,
				float64(sentMsgs-prevSentMsgs)/secs)
			prevOff, prevOn, prevSentEvents, prevSentMsgs = off, on, sentEvents, sentMsgs
		}
	}
}
