package encode

import (
	"github.com/fxamacker/cbor/v2"

	"evcam-stream-go/internal/types"
)

// EventRecord is the verbose per-event wire record, encoded as a CBOR
// 4-tuple [x, y, polarity, t] with t in absolute nanoseconds.
type EventRecord struct {
	_        struct{} `cbor:",toarray"`
	X        uint16
	Y        uint16
	Polarity uint8
	TimeNs   uint64
}

type verboseWire struct {
	Type     string        `cbor:"type"`
	Encoding string        `cbor:"encoding"`
	FrameID  string        `cbor:"frame_id"`
	Seq      uint64        `cbor:"seq"`
	Width    uint16        `cbor:"width"`
	Height   uint16        `cbor:"height"`
	Stamp    uint64        `cbor:"stamp"`
	Events   []EventRecord `cbor:"events"`
}

type VerboseEncoder struct{}

func (VerboseEncoder) Name() string { return "verbose" }

func (VerboseEncoder) NewMessage(meta Meta, first types.RawEvent) Message {
	firstNs := absNs(meta.Epoch, first.T)
	return &verboseMessage{
		meta:    meta,
		firstNs: firstNs,
		lastNs:  firstNs,
		events:  make([]EventRecord, 0, meta.Reserve),
	}
}

type verboseMessage struct {
	meta    Meta
	firstNs uint64
	lastNs  uint64
	events  []EventRecord
}

func (m *verboseMessage) Append(burst []types.RawEvent) {
	for _, e := range burst {
		m.events = append(m.events, EventRecord{
			X:        e.X,
			Y:        e.Y,
			Polarity: e.Polarity,
			TimeNs:   absNs(m.meta.Epoch, e.T),
		})
	}
	if n := len(burst); n > 0 {
		m.lastNs = absNs(m.meta.Epoch, burst[n-1].T)
	}
}

func (m *verboseMessage) FirstNs() uint64 { return m.firstNs }
func (m *verboseMessage) LastNs() uint64  { return m.lastNs }
func (m *verboseMessage) Len() int        { return len(m.events) }

func (m *verboseMessage) Marshal() ([]byte, error) {
	return cbor.Marshal(verboseWire{
		Type:     "event_array",
		Encoding: "verbose",
		FrameID:  m.meta.FrameID,
		Seq:      m.meta.Seq,
		Width:    m.meta.Width,
		Height:   m.meta.Height,
		Stamp:    m.firstNs,
		Events:   m.events,
	})
}
