package config

import "time"

type AppConfig struct {
	Port          int
	Encoding      string
	CameraInfoURL string
	FrameID       string

	// TimeThreshold is the maximum event-time span of one published
	// message; MaxEventRate (events/sec) sizes the per-message buffer
	// reservation.
	TimeThreshold time.Duration
	MaxEventRate  float64

	SendQueueSize     int
	UseMultithreading bool
	StatsInterval     time.Duration
	BiasFile          string

	Endpoint        string
	ControlURL      string
	PublishEndpoint string

	Debug          bool
	DebugEventRate float64

	RawLogEnabled bool
	RawLogDir     string
}

// ReserveSize is the number of encoded event records to preallocate per
// message so steady-state appends never reallocate.
func (c AppConfig) ReserveSize() int {
	n := int(c.MaxEventRate * c.TimeThreshold.Seconds())
	if n < 1 {
		n = 1
	}
	return n
}
