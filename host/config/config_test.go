package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readout/core"
	"readout/format"
)

const sampleConfig = `
bindings:
  - name: knob
    oid: 1
    source: encoder
    channel: rotation
    pulses_per_rev: 96
    places: 1
    layout: keypad
    separator: KP_COMMA
  - name: fixed
    oid: 2
    value: "-3.14"
    tap_delay: 25ms
serial:
  device: ${READOUT_TEST_DEVICE}
runtime:
  trigger_every: 30s
metrics:
  listen: ":9108"
`

func TestParseAppliesDefaults(t *testing.T) {
	t.Setenv("READOUT_TEST_DEVICE", "/dev/ttyACM0")

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Bindings, 2)
	assert.Equal(t, DefaultTickPeriod, cfg.Runtime.TickPeriod)
	assert.Equal(t, 30*time.Second, cfg.Runtime.TriggerEvery)
	assert.Equal(t, ":9108", cfg.Metrics.Listen)

	require.NotNil(t, cfg.Serial)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Device)
	assert.Equal(t, 115200, cfg.Serial.Baud)

	knob := cfg.Bindings[0]
	ec, err := knob.EmitterConfig()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), ec.OID)
	assert.Equal(t, 1, ec.Places)
	assert.Equal(t, 10*time.Millisecond, ec.TapDelay)

	r, err := knob.Resolver()
	require.NoError(t, err)
	assert.Equal(t, core.Resolver{Layout: core.LayoutKeypad, Separator: core.KeypadComma}, r)

	fixed := cfg.Bindings[1]
	assert.Equal(t, SourceStatic, fixed.Source)
	assert.Equal(t, 25*time.Millisecond, fixed.TapDelay)
	require.NotNil(t, fixed.Places)
	assert.Equal(t, 2, *fixed.Places)
	r, err = fixed.Resolver()
	require.NoError(t, err)
	assert.Equal(t, core.KeyPeriod, r.Separator)
}

func TestParseRejectsInvalidPlaces(t *testing.T) {
	_, err := Parse([]byte("bindings:\n  - places: 7\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, format.ErrInvalidPlaces)

	_, err = Parse([]byte("bindings:\n  - places: -1\n"))
	assert.ErrorIs(t, err, format.ErrInvalidPlaces)
}

func TestParseRejectsBadBindings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no bindings", "runtime:\n  tick_period: 1ms\n"},
		{"duplicate oid", "bindings:\n  - name: a\n  - name: b\n"},
		{"unknown source", "bindings:\n  - source: thermometer\n"},
		{"bad separator", "bindings:\n  - separator: SLASH\n"},
		{"bad layout", "bindings:\n  - layout: dvorak\n"},
		{"bad value", "bindings:\n  - value: twelve\n"},
		{"encoder on accel channel", "bindings:\n  - source: encoder\n    channel: accel_x\n"},
		{"serial without device", "bindings:\n  - value: '1'\nserial:\n  baud: 9600\n"},
		{"malformed yaml", "bindings: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("READOUT_PLACES", "4")
	t.Setenv("READOUT_SERIAL_DEVICE", "/dev/ttyUSB3")
	t.Setenv("READOUT_METRICS_LISTEN", "127.0.0.1:9200")
	t.Setenv("READOUT_TRIGGER_EVERY", "5s")

	cfg, err := Parse([]byte("bindings:\n  - places: 1\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, *cfg.Bindings[0].Places)
	require.NotNil(t, cfg.Serial)
	assert.Equal(t, "/dev/ttyUSB3", cfg.Serial.Device)
	assert.Equal(t, "127.0.0.1:9200", cfg.Metrics.Listen)
	assert.Equal(t, 5*time.Second, cfg.Runtime.TriggerEvery)
}

func TestParseReading(t *testing.T) {
	tests := []struct {
		in   string
		want format.FixedPoint
	}{
		{"", format.FixedPoint{}},
		{"0", format.FixedPoint{}},
		{"12.5", format.FixedPoint{Int: 12, Micro: 500000}},
		{"-3.14", format.FixedPoint{Int: -3, Micro: -140000}},
		{"-0.000001", format.FixedPoint{Int: 0, Micro: -1}},
		{" 7 ", format.FixedPoint{Int: 7}},
	}
	for _, tt := range tests {
		got, err := ParseReading(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseReading("1e12")
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bindings:\n  - value: '42'\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	v, err := ParseReading(cfg.Bindings[0].Value)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v.Int)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bindings:\n  - places: 1\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// Rewrite until the watcher is registered and reports the change
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	var got *Config
	for got == nil {
		select {
		case got = <-changes:
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("bindings:\n  - places: 3\n"), 0o600))
		case <-deadline:
			t.Fatal("watcher never reported the change")
		}
	}
	assert.Equal(t, 3, *got.Bindings[0].Places)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
