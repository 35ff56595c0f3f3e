package encode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// DecodedEvent is one event recovered from either wire encoding, with an
// absolute nanosecond timestamp.
type DecodedEvent struct {
	X        uint16
	Y        uint16
	Polarity uint8
	TimeNs   uint64
}

type Decoded struct {
	Encoding string
	FrameID  string
	Seq      uint64
	Width    uint16
	Height   uint16
	// Stamp is the message timestamp: the first-event time for verbose
	// messages, the time base for compact ones.
	Stamp  uint64
	Events []DecodedEvent
}

// Decode recovers a published batch from its wire bytes. Both encodings are
// self-describing, so no external context is needed.
func Decode(data []byte) (Decoded, error) {
	var envelope struct {
		Type     string `cbor:"type"`
		Encoding string `cbor:"encoding"`
	}
	if err := cbor.Unmarshal(data, &envelope); err != nil {
		return Decoded{}, err
	}
	if envelope.Type != "event_array" {
		return Decoded{}, fmt.Errorf("unexpected message type %q", envelope.Type)
	}

	switch envelope.Encoding {
	case "verbose":
		var wire verboseWire
		if err := cbor.Unmarshal(data, &wire); err != nil {
			return Decoded{}, err
		}
		out := Decoded{
			Encoding: wire.Encoding,
			FrameID:  wire.FrameID,
			Seq:      wire.Seq,
			Width:    wire.Width,
			Height:   wire.Height,
			Stamp:    wire.Stamp,
			Events:   make([]DecodedEvent, 0, len(wire.Events)),
		}
		for _, e := range wire.Events {
			out.Events = append(out.Events, DecodedEvent{
				X:        e.X,
				Y:        e.Y,
				Polarity: e.Polarity,
				TimeNs:   e.TimeNs,
			})
		}
		return out, nil
	case "compact":
		var wire compactWire
		if err := cbor.Unmarshal(data, &wire); err != nil {
			return Decoded{}, err
		}
		out := Decoded{
			Encoding: wire.Encoding,
			FrameID:  wire.FrameID,
			Seq:      wire.Seq,
			Width:    wire.Width,
			Height:   wire.Height,
			Stamp:    wire.TimeBase,
			Events:   make([]DecodedEvent, 0, len(wire.Words)),
		}
		for _, w := range wire.Words {
			x, y, polarity, dt := UnpackWord(w)
			out.Events = append(out.Events, DecodedEvent{
				X:        x,
				Y:        y,
				Polarity: polarity,
				TimeNs:   wire.TimeBase + uint64(dt),
			})
		}
		return out, nil
	default:
		return Decoded{}, fmt.Errorf("unknown encoding %q", envelope.Encoding)
	}
}
