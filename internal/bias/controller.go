package bias

import (
	"log"
	"sync"

	"evcam-stream-go/internal/camera"
)

// Config is the full named-bias parameter set exchanged with the control
// plane.
type Config struct {
	Diff    int `json:"bias_diff"`
	DiffOff int `json:"bias_diff_off"`
	DiffOn  int `json:"bias_diff_on"`
	Fo      int `json:"bias_fo"`
	Hpf     int `json:"bias_hpf"`
	Pr      int `json:"bias_pr"`
	Refr    int `json:"bias_refr"`
}

func (c *Config) fields() []struct {
	name  string
	value *int
} {
	return []struct {
		name  string
		value *int
	}{
		{"bias_diff", &c.Diff},
		{"bias_diff_off", &c.DiffOff},
		{"bias_diff_on", &c.DiffOn},
		{"bias_fo", &c.Fo},
		{"bias_hpf", &c.Hpf},
		{"bias_pr", &c.Pr},
		{"bias_refr", &c.Refr},
	}
}

// Controller owns all bias access to the camera session. Its mutex
// serializes the write-then-verify sequence internally, so the control
// plane never races the hardware handle against itself; event delivery is
// read-only with respect to biases and is never blocked here.
type Controller struct {
	mu       sync.Mutex
	hw       camera.BiasAccess
	baseline Config
}

func NewController(hw camera.BiasAccess) *Controller {
	return &Controller{hw: hw}
}

func (c *Controller) Get(name string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hw.GetBias(name)
}

// Set writes the value and reads it back. The readback is authoritative:
// the device may clamp or otherwise adjust the requested value.
func (c *Controller) Set(name string, value int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(name, value)
}

func (c *Controller) setLocked(name string, value int) (int, error) {
	if err := c.hw.SetBias(name, value); err != nil {
		return 0, err
	}
	return c.hw.GetBias(name)
}

// Save persists the current hardware bias state. Failure is reported, not
// fatal.
func (c *Controller) Save() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hw.SaveBiases() {
		return true, "bias save succeeded"
	}
	return false, "bias save failed"
}

// Configure runs the reconfiguration protocol. level < 0 is the initial
// sync: cfg becomes a mirror of the hardware, with zero writes. Otherwise
// every parameter is written and immediately verified, independently;
// partial application across parameters is tolerated and not rolled back.
// The reconciled cfg is stored as the baseline for the next round.
func (c *Controller) Configure(cfg *Config, level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < 0 {
		for _, f := range cfg.fields() {
			v, err := c.hw.GetBias(f.name)
			if err != nil {
				log.Printf("bias read %s failed: %v", f.name, err)
				continue
			}
			*f.value = v
		}
		log.Printf("initialized config to camera biases")
	} else {
		for _, f := range cfg.fields() {
			v, err := c.setLocked(f.name, *f.value)
			if err != nil {
				log.Printf("bias write %s failed: %v", f.name, err)
				continue
			}
			*f.value = v
		}
	}
	c.baseline = *cfg
}

func (c *Controller) Baseline() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseline
}
