// Package config loads the host simulator configuration: which bindings
// exist, where their readings come from and how they are typed.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"readout/core"
	"readout/emitter"
	"readout/format"
	"readout/host/serial"
	"readout/sensor"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Source kinds
const (
	SourceStatic  = "static"
	SourceEncoder = "encoder"
)

// Config represents the host configuration file
type Config struct {
	Bindings []Binding     `yaml:"bindings"`
	Serial   *SerialConfig `yaml:"serial,omitempty"`
	Runtime  RuntimeConfig `yaml:"runtime"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// Binding configures one emitter
type Binding struct {
	Name         string        `yaml:"name"`
	OID          uint8         `yaml:"oid"`
	Source       string        `yaml:"source"`
	Channel      string        `yaml:"channel,omitempty"`
	Value        string        `yaml:"value,omitempty"`          // static source reading, e.g. "-3.14"
	PulsesPerRev int           `yaml:"pulses_per_rev,omitempty"` // encoder source
	SpinEvery    time.Duration `yaml:"spin_every,omitempty"`     // simulated shaft, 0 = at rest
	Places       *int          `yaml:"places,omitempty"`
	TapDelay     time.Duration `yaml:"tap_delay,omitempty"`
	Layout       string        `yaml:"layout,omitempty"`
	Separator    string        `yaml:"separator,omitempty"`
}

// SerialConfig points at the USB-HID bridge
type SerialConfig = serial.Config

// RuntimeConfig controls the host tick loop and periodic triggering
type RuntimeConfig struct {
	TickPeriod   time.Duration `yaml:"tick_period"`
	TriggerEvery time.Duration `yaml:"trigger_every,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Defaults
const (
	DefaultTickPeriod   = time.Millisecond
	DefaultPulsesPerRev = 80
)

// Load reads a configuration file. Environment variables referenced as
// ${VAR} are expanded, and a .env file next to the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates configuration data
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a single static binding configuration
func Default() *Config {
	cfg := &Config{
		Bindings: []Binding{{Name: "reading", Source: SourceStatic, Value: "0"}},
	}
	applyDefaults(cfg)
	return cfg
}

// loadEnvFile loads .env without overriding the process environment
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// applyEnvOverrides applies READOUT_* variables on top of the file
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("READOUT_SERIAL_DEVICE"); v != "" {
		if cfg.Serial == nil {
			cfg.Serial = serial.DefaultConfig(v)
		}
		cfg.Serial.Device = v
	}
	if v := os.Getenv("READOUT_METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}
	if v := os.Getenv("READOUT_TRIGGER_EVERY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Runtime.TriggerEvery = d
		}
	}
	if v := os.Getenv("READOUT_PLACES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			for i := range cfg.Bindings {
				places := n
				cfg.Bindings[i].Places = &places
			}
		}
	}
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Runtime.TickPeriod == 0 {
		cfg.Runtime.TickPeriod = DefaultTickPeriod
	}
	if cfg.Serial != nil {
		if cfg.Serial.Baud == 0 {
			cfg.Serial.Baud = serial.DefaultBaud
		}
		if cfg.Serial.ReadTimeout == 0 {
			cfg.Serial.ReadTimeout = 100
		}
	}
	for i := range cfg.Bindings {
		b := &cfg.Bindings[i]
		if b.Source == "" {
			b.Source = SourceStatic
		}
		if b.Places == nil {
			places := emitter.DefaultPlaces
			b.Places = &places
		}
		if b.TapDelay == 0 {
			b.TapDelay = emitter.DefaultTapDelay
		}
		if b.Separator == "" {
			b.Separator = "DOT"
		}
		if b.Source == SourceEncoder && b.PulsesPerRev == 0 {
			b.PulsesPerRev = DefaultPulsesPerRev
		}
		if b.Name == "" {
			b.Name = "binding" + strconv.Itoa(int(b.OID))
		}
	}
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if len(c.Bindings) == 0 {
		return fmt.Errorf("%w: no bindings configured", ErrInvalidConfig)
	}
	if c.Runtime.TickPeriod <= 0 {
		return fmt.Errorf("%w: tick_period must be positive", ErrInvalidConfig)
	}
	if c.Runtime.TriggerEvery < 0 {
		return fmt.Errorf("%w: trigger_every must not be negative", ErrInvalidConfig)
	}
	if c.Serial != nil {
		if err := c.Serial.Validate(); err != nil {
			return fmt.Errorf("%w: serial: %w", ErrInvalidConfig, err)
		}
	}

	oids := make(map[uint8]string, len(c.Bindings))
	for _, b := range c.Bindings {
		if other, dup := oids[b.OID]; dup {
			return fmt.Errorf("%w: bindings %q and %q share oid %d", ErrInvalidConfig, other, b.Name, b.OID)
		}
		oids[b.OID] = b.Name
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: binding %q: %w", ErrInvalidConfig, b.Name, err)
		}
	}
	return nil
}

// Validate checks one binding
func (b Binding) Validate() error {
	if _, err := b.EmitterConfig(); err != nil {
		return err
	}
	if _, err := b.Resolver(); err != nil {
		return err
	}
	switch b.Source {
	case SourceStatic:
		if _, err := ParseReading(b.Value); err != nil {
			return err
		}
	case SourceEncoder:
		if b.PulsesPerRev <= 0 {
			return errors.New("pulses_per_rev must be positive")
		}
		if b.SpinEvery < 0 {
			return errors.New("spin_every must not be negative")
		}
		if ch, err := sensor.ParseChannel(b.Channel); err != nil || ch != sensor.ChannelRotation {
			return errors.New("encoder source only provides the rotation channel")
		}
	default:
		return fmt.Errorf("unknown source %q", b.Source)
	}
	return nil
}

// EmitterConfig converts the binding to an emitter configuration
func (b Binding) EmitterConfig() (emitter.Config, error) {
	cfg := emitter.Config{OID: b.OID, Places: emitter.DefaultPlaces, TapDelay: b.TapDelay}
	if b.Places != nil {
		cfg.Places = *b.Places
	}
	return cfg, cfg.Validate()
}

// Resolver builds the key code resolver for the binding
func (b Binding) Resolver() (core.Resolver, error) {
	layout, err := core.ParseLayout(b.Layout)
	if err != nil {
		return core.Resolver{}, err
	}
	sep, err := core.ParseKeyCode(b.Separator)
	if err != nil {
		return core.Resolver{}, fmt.Errorf("separator %q: %w", b.Separator, err)
	}
	return core.Resolver{Layout: layout, Separator: sep}, nil
}

// ParseReading parses a decimal reading such as "-3.14" into a
// FixedPoint. Digits beyond the sixth decimal place are rounded.
func ParseReading(s string) (format.FixedPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return format.FixedPoint{}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return format.FixedPoint{}, fmt.Errorf("reading %q: %w", s, err)
	}
	micro := math.Round(f * format.MicroPerUnit)
	if math.Abs(micro) >= math.MaxInt32*float64(format.MicroPerUnit) {
		return format.FixedPoint{}, fmt.Errorf("reading %q out of range", s)
	}
	return format.FromMicro(int64(micro)), nil
}
