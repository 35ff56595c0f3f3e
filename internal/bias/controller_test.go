package bias

import (
	"testing"

	"github.com/stretchr/testify/require"

	"evcam-stream-go/internal/camera"
)

// mockDevice clamps writes into [min,max] like the sensor front end and
// counts writes so tests can assert the read-only paths stay read-only.
type mockDevice struct {
	biases map[string]int
	min    int
	max    int
	writes int
	saveOK bool
}

func (d *mockDevice) GetBias(name string) (int, error) {
	v, ok := d.biases[name]
	if !ok {
		return 0, camera.ErrUnknownBias
	}
	return v, nil
}

func (d *mockDevice) SetBias(name string, value int) error {
	if _, ok := d.biases[name]; !ok {
		return camera.ErrUnknownBias
	}
	d.writes++
	if value < d.min {
		value = d.min
	}
	if value > d.max {
		value = d.max
	}
	d.biases[name] = value
	return nil
}

func (d *mockDevice) SaveBiases() bool { return d.saveOK }

func newMockDevice() *mockDevice {
	return &mockDevice{
		biases: map[string]int{
			"bias_diff":     0,
			"bias_diff_off": -5,
			"bias_diff_on":  5,
			"bias_fo":       0,
			"bias_hpf":      0,
			"bias_pr":       0,
			"bias_refr":     0,
		},
		min:    -100,
		max:    100,
		saveOK: true,
	}
}

func TestInitialSyncMirrorsHardware(t *testing.T) {
	device := newMockDevice()
	ctrl := NewController(device)

	var cfg Config
	ctrl.Configure(&cfg, -1)

	require.Equal(t, Config{Diff: 0, DiffOff: -5, DiffOn: 5, Fo: 0, Hpf: 0, Pr: 0, Refr: 0}, cfg)
	require.Zero(t, device.writes, "initial sync must not write to hardware")
	require.Equal(t, cfg, ctrl.Baseline())
}

func TestUserChangeWritesThenVerifies(t *testing.T) {
	device := newMockDevice()
	ctrl := NewController(device)

	cfg := Config{Diff: 10, DiffOff: -500, DiffOn: 20, Fo: 1, Hpf: 2, Pr: 3, Refr: 4}
	ctrl.Configure(&cfg, 0)

	// the device clamped DiffOff; the config carries the readback
	require.Equal(t, -100, cfg.DiffOff)
	require.Equal(t, 10, cfg.Diff)
	require.Equal(t, 7, device.writes)
	require.Equal(t, cfg, ctrl.Baseline())
}

func TestPartialApplicationTolerated(t *testing.T) {
	device := newMockDevice()
	delete(device.biases, "bias_hpf")
	ctrl := NewController(device)

	cfg := Config{Diff: 1, DiffOff: 2, DiffOn: 3, Fo: 4, Hpf: 42, Pr: 5, Refr: 6}
	ctrl.Configure(&cfg, 0)

	// the failed parameter keeps its requested value, the rest applied
	require.Equal(t, 42, cfg.Hpf)
	require.Equal(t, 1, cfg.Diff)
	require.Equal(t, 6, cfg.Refr)
	require.Equal(t, 6, device.writes)
}

func TestSetReadbackIsIdempotent(t *testing.T) {
	device := newMockDevice()
	ctrl := NewController(device)

	readback, err := ctrl.Set("bias_diff", 5000)
	require.NoError(t, err)
	require.Equal(t, 100, readback, "device clamps to max")

	again, err := ctrl.Set("bias_diff", readback)
	require.NoError(t, err)
	require.Equal(t, readback, again)
}

func TestUnknownBias(t *testing.T) {
	ctrl := NewController(newMockDevice())

	_, err := ctrl.Get("bias_bogus")
	require.ErrorIs(t, err, camera.ErrUnknownBias)

	_, err = ctrl.Set("bias_bogus", 1)
	require.ErrorIs(t, err, camera.ErrUnknownBias)
}

func TestSaveReportsFailure(t *testing.T) {
	device := newMockDevice()
	device.saveOK = false
	ctrl := NewController(device)

	ok, message := ctrl.Save()
	require.False(t, ok)
	require.NotEmpty(t, message)

	device.saveOK = true
	ok, message = ctrl.Save()
	require.True(t, ok)
	require.NotEmpty(t, message)
}
