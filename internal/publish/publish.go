package publish

import (
	"log"

	"evcam-stream-go/internal/batch"
	"evcam-stream-go/internal/output"
)

// Tee fans each payload out to every sink; its subscriber count is the sum
// across sinks, so the accumulator keeps running while anyone listens
// anywhere.
type Tee struct {
	sinks []batch.Sink
}

func NewTee(sinks ...batch.Sink) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Publish(payload []byte) {
	for _, s := range t.sinks {
		s.Publish(payload)
	}
}

func (t *Tee) SubscriberCount() int {
	total := 0
	for _, s := range t.sinks {
		total += s.SubscriberCount()
	}
	return total
}

// Recorder tees every published payload into a raw log. It contributes no
// subscribers of its own, so with recording enabled but nobody listening
// the pipeline still short-circuits.
type Recorder struct {
	next batch.Sink
	raw  *output.RawLogWriter
}

func NewRecorder(next batch.Sink, raw *output.RawLogWriter) *Recorder {
	return &Recorder{next: next, raw: raw}
}

func (r *Recorder) Publish(payload []byte) {
	if err := r.raw.Record(payload); err != nil {
		log.Printf("raw log record failed: %v", err)
	}
	r.next.Publish(payload)
}

func (r *Recorder) SubscriberCount() int {
	return r.next.SubscriberCount()
}
