package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// loadIsolated runs Load from an empty directory so no stray config file is found.
func loadIsolated(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	wd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	return Load(args)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadIsolated(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tick != 50*time.Millisecond {
		t.Errorf("Tick: got %v", cfg.Tick)
	}
	if cfg.SampleInterval != 5*time.Second {
		t.Errorf("SampleInterval: got %v", cfg.SampleInterval)
	}
	if cfg.Debounce != 50*time.Millisecond {
		t.Errorf("Debounce: got %v", cfg.Debounce)
	}
	if cfg.TimeSync.Port != 5000 || cfg.TimeSync.Path != "/time" || cfg.TimeSync.Attempts != 3 {
		t.Errorf("TimeSync: got %+v", cfg.TimeSync)
	}
	if cfg.Telemetry.Transport != TransportNone || cfg.Telemetry.Interval != 30*time.Second {
		t.Errorf("Telemetry: got %+v", cfg.Telemetry)
	}
	if cfg.EEPROM.Address != 0x50 || cfg.Sensor.Address != 0x76 {
		t.Errorf("addresses: eeprom %#x sensor %#x", cfg.EEPROM.Address, cfg.Sensor.Address)
	}
	if !cfg.LED.CommonAnode {
		t.Error("LED should default to common anode")
	}
	if cfg.RampSteps() != 20 {
		t.Errorf("RampSteps: got %d, want 20", cfg.RampSteps())
	}
	if cfg.ConfigFile != "" {
		t.Errorf("no config file expected, got %q", cfg.ConfigFile)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	cfg, err := loadIsolated(t,
		"--tick=100ms",
		"--telemetry=mqtt",
		"--broker=ssl://example:8883",
		"--time-port=8080",
		"--print-state",
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tick != 100*time.Millisecond {
		t.Errorf("Tick: got %v", cfg.Tick)
	}
	if cfg.Telemetry.Transport != TransportMQTT || cfg.Telemetry.Broker != "ssl://example:8883" {
		t.Errorf("Telemetry: got %+v", cfg.Telemetry)
	}
	if cfg.TimeSync.Port != 8080 {
		t.Errorf("Port: got %d", cfg.TimeSync.Port)
	}
	if !cfg.PrintState {
		t.Error("PrintState should be set")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SMARTCLOCK_TIMESYNC_HOST", "10.0.0.5")
	t.Setenv("SMARTCLOCK_DISPLAY_KIND", "none")

	cfg, err := loadIsolated(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TimeSync.Host != "10.0.0.5" {
		t.Errorf("Host: got %q", cfg.TimeSync.Host)
	}
	if cfg.Display.Kind != DisplayNone {
		t.Errorf("Display: got %q", cfg.Display.Kind)
	}
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Setenv("SMARTCLOCK_DISPLAY_KIND", "none")
	cfg, err := loadIsolated(t, "--display=max7219")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Display.Kind != DisplayMAX7219 {
		t.Errorf("Display: got %q", cfg.Display.Kind)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clock.yaml")
	yaml := `
tick: 20ms
transition: 2s
telemetry:
  transport: https
  url: https://collector.local/ingest
  interval: 2m
eeprom:
  kind: file
  image: /tmp/thresholds.bin
led:
  common_anode: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadIsolated(t, "--config", path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
	if cfg.Tick != 20*time.Millisecond || cfg.RampSteps() != 100 {
		t.Errorf("Tick/RampSteps: got %v/%d", cfg.Tick, cfg.RampSteps())
	}
	if cfg.Telemetry.Transport != TransportHTTPS || cfg.Telemetry.URL != "https://collector.local/ingest" {
		t.Errorf("Telemetry: got %+v", cfg.Telemetry)
	}
	if cfg.Telemetry.Interval != MaxTelemetryInterval {
		t.Errorf("interval should clamp to %v, got %v", MaxTelemetryInterval, cfg.Telemetry.Interval)
	}
	if cfg.EEPROM.Kind != EEPROMFile || cfg.EEPROM.Image != "/tmp/thresholds.bin" {
		t.Errorf("EEPROM: got %+v", cfg.EEPROM)
	}
	if cfg.LED.CommonAnode {
		t.Error("common_anode should be false")
	}
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	if _, err := loadIsolated(t, "--config", "/nonexistent/clock.yaml"); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadUnknownFlag(t *testing.T) {
	if _, err := loadIsolated(t, "--bogus"); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestValidate(t *testing.T) {
	base, err := loadIsolated(t)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero tick", func(c *Config) { c.Tick = 0 }},
		{"sample faster than tick", func(c *Config) { c.SampleInterval = c.Tick / 2 }},
		{"no host", func(c *Config) { c.TimeSync.Host = "" }},
		{"bad port", func(c *Config) { c.TimeSync.Port = 70000 }},
		{"bad zone", func(c *Config) { c.TimeSync.Location = "Mars/Olympus" }},
		{"bad transport", func(c *Config) { c.Telemetry.Transport = "carrier-pigeon" }},
		{"mqtt without broker", func(c *Config) { c.Telemetry.Transport = TransportMQTT; c.Telemetry.Broker = "" }},
		{"https without url", func(c *Config) { c.Telemetry.Transport = TransportHTTPS }},
		{"plaintext https url", func(c *Config) {
			c.Telemetry.Transport = TransportHTTPS
			c.Telemetry.URL = "http://collector.lan/ingest"
		}},
		{"plaintext mqtt broker", func(c *Config) {
			c.Telemetry.Transport = TransportMQTT
			c.Telemetry.Broker = "tcp://192.168.1.200:1883"
		}},
		{"bad eeprom", func(c *Config) { c.EEPROM.Kind = "flash" }},
		{"file eeprom without image", func(c *Config) { c.EEPROM.Kind = EEPROMFile; c.EEPROM.Image = "" }},
		{"bad edge", func(c *Config) { c.Buttons.Edge = "both" }},
		{"bad display", func(c *Config) { c.Display.Kind = "oled" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateTelemetryEndpoints(t *testing.T) {
	base, err := loadIsolated(t)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		transport string
		endpoint  string
		insecure  bool
		ok        bool
	}{
		{TransportMQTT, "ssl://192.168.1.200:8883", false, true},
		{TransportMQTT, "tcp://192.168.1.200:1883", false, false},
		{TransportMQTT, "tcp://192.168.1.200:1883", true, true},
		{TransportHTTPS, "https://collector.lan/ingest", false, true},
		{TransportHTTPS, "http://collector.lan/ingest", false, false},
		{TransportHTTPS, "http://collector.lan/ingest", true, true},
		{TransportHTTPS, "collector.lan/ingest", true, false},
	}
	for _, tt := range tests {
		c := base
		c.Telemetry.Transport = tt.transport
		c.Telemetry.Insecure = tt.insecure
		if tt.transport == TransportMQTT {
			c.Telemetry.Broker = tt.endpoint
		} else {
			c.Telemetry.URL = tt.endpoint
		}
		err := c.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s %s insecure=%v: unexpected error %v", tt.transport, tt.endpoint, tt.insecure, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalid) {
			t.Errorf("%s %s insecure=%v: got %v, want ErrInvalid", tt.transport, tt.endpoint, tt.insecure, err)
		}
	}
}

func TestValidateClampsTelemetryInterval(t *testing.T) {
	c, _ := loadIsolated(t)
	c.Telemetry.Interval = time.Second
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Telemetry.Interval != MinTelemetryInterval {
		t.Errorf("got %v, want %v", c.Telemetry.Interval, MinTelemetryInterval)
	}
}

func TestLocation(t *testing.T) {
	c := Config{TimeSync: TimeSync{Location: "Europe/London"}}
	if c.Location().String() != "Europe/London" {
		t.Errorf("got %v", c.Location())
	}
	c.TimeSync.Location = "nowhere"
	if c.Location() != time.UTC {
		t.Error("invalid zone should fall back to UTC")
	}
}
