package types

// RawEvent is a single brightness-change event as delivered by the sensor.
// T is in SDK clock ticks (microseconds since camera start); absolute time
// is recovered by adding the process epoch. Events are never mutated after
// delivery.
type RawEvent struct {
	_        struct{} `cbor:",toarray"`
	T        int64
	X        uint16
	Y        uint16
	Polarity uint8
}
