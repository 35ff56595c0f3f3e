package camera

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"evcam-stream-go/internal/output"
	"evcam-stream-go/internal/types"
)

// packetSize matches the full-load SDK packet size of the SilkyEvCam.
const packetSize = 320

type simBias struct {
	value int
	min   int
	max   int
}

// Simulator is a synthetic event camera. It produces fixed-size packets of
// brightness-change events clustered around a slowly drifting hot spot, with
// microsecond timestamps advancing at the configured event rate, and carries
// a clamping bias table like the real sensor front end.
type Simulator struct {
	width  int
	height int
	serial string
	rate   float64

	mu       sync.Mutex
	biases   map[string]*simBias
	biasFile string
	cancel   context.CancelFunc
}

func NewSimulator(width, height int, rate float64) *Simulator {
	if rate <= 0 {
		rate = 1e6
	}
	return &Simulator{
		width:  width,
		height: height,
		serial: "00001470",
		rate:   rate,
		biases: map[string]*simBias{
			"bias_diff":     {value: 300, min: 0, max: 1800},
			"bias_diff_off": {value: 225, min: 0, max: 1800},
			"bias_diff_on":  {value: 375, min: 0, max: 1800},
			"bias_fo":       {value: 1725, min: 0, max: 1800},
			"bias_hpf":      {value: 1500, min: 0, max: 1800},
			"bias_pr":       {value: 1500, min: 0, max: 1800},
			"bias_refr":     {value: 1500, min: 0, max: 1800},
		},
	}
}

func (s *Simulator) Initialize(opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.biasFile = opts.BiasFile
	if opts.BiasFile == "" {
		return nil
	}
	stored, err := output.ReadBiasFile(opts.BiasFile)
	if err != nil {
		// a missing bias file is not fatal; the defaults stay in effect
		log.Printf("bias file %s not loaded: %v", opts.BiasFile, err)
		return nil
	}
	for name, value := range stored {
		b, ok := s.biases[name]
		if !ok {
			log.Printf("bias file: skipping unknown bias %q", name)
			continue
		}
		b.value = clamp(value, b.min, b.max)
	}
	return nil
}

func (s *Simulator) Start(ctx context.Context, handler BurstHandler) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	go s.run(runCtx, handler)
}

func (s *Simulator) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

func (s *Simulator) Width() int           { return s.width }
func (s *Simulator) Height() int          { return s.height }
func (s *Simulator) SerialNumber() string { return s.serial }

func (s *Simulator) run(ctx context.Context, handler BurstHandler) {
	interval := time.Duration(float64(packetSize) / s.rate * float64(time.Second))
	if interval <= 0 {
		interval = time.Microsecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tickPerEvent := 1e6 / s.rate // microseconds between events
	burst := make([]types.RawEvent, packetSize)
	var tick float64
	hotX := float64(s.width) / 2
	hotY := float64(s.height) / 2

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hotX += rand.NormFloat64() * 2
			hotY += rand.NormFloat64() * 2
			for i := range burst {
				x := int(hotX + rand.NormFloat64()*float64(s.width)/16)
				y := int(hotY + rand.NormFloat64()*float64(s.height)/16)
				burst[i] = types.RawEvent{
					T:        int64(tick),
					X:        uint16(wrap(x, s.width)),
					Y:        uint16(wrap(y, s.height)),
					Polarity: uint8(i & 1),
				}
				tick += tickPerEvent
			}
			handler(burst)
		}
	}
}

func (s *Simulator) GetBias(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.biases[name]
	if !ok {
		return 0, ErrUnknownBias
	}
	return b.value, nil
}

// SetBias clamps the requested value into the sensor range, like the
// hardware does. The authoritative value comes from a subsequent GetBias.
func (s *Simulator) SetBias(name string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.biases[name]
	if !ok {
		return ErrUnknownBias
	}
	b.value = clamp(value, b.min, b.max)
	return nil
}

func (s *Simulator) SaveBiases() bool {
	s.mu.Lock()
	path := s.biasFile
	biases := make(map[string]int, len(s.biases))
	for name, b := range s.biases {
		biases[name] = b.value
	}
	s.mu.Unlock()
	if path == "" {
		return false
	}
	if err := output.WriteBiasFile(path, biases); err != nil {
		log.Printf("bias save failed: %v", err)
		return false
	}
	return true
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func wrap(v, limit int) int {
	v = int(math.Abs(float64(v)))
	if v >= limit {
		v = limit - 1
	}
	return v
}
