// Package config loads daemon settings from defaults, an optional YAML file,
// SMARTCLOCK_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // devices may ship without a zoneinfo database

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Telemetry transports.
const (
	TransportNone  = "none"
	TransportMQTT  = "mqtt"
	TransportHTTPS = "https"
)

// Display kinds.
const (
	DisplayTerminal = "terminal"
	DisplayMAX7219  = "max7219"
	DisplayNone     = "none"
)

// EEPROM kinds.
const (
	EEPROMAT24 = "at24"
	EEPROMFile = "file"
)

// Telemetry interval bounds.
const (
	MinTelemetryInterval = 5 * time.Second
	MaxTelemetryInterval = 60 * time.Second
)

// Config is the fully resolved daemon configuration.
type Config struct {
	LogLevel   string
	PrintState bool
	ConfigFile string // file actually read; empty if none

	Tick           time.Duration
	SampleInterval time.Duration
	Debounce       time.Duration
	Transition     time.Duration

	TimeSync  TimeSync
	Telemetry Telemetry
	EEPROM    EEPROM
	Sensor    Sensor
	Buttons   Buttons
	LED       LED
	Display   Display
	HTTPAddr  string
}

// TimeSync configures the boot-time clock synchronisation.
type TimeSync struct {
	Host     string
	Port     int
	Path     string
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
	Location string
}

// Telemetry configures reporting.
type Telemetry struct {
	Transport string
	Interval  time.Duration
	Timeout   time.Duration
	Device    string
	Broker    string
	Username  string
	Password  string
	Insecure  bool // skip certificate checks and allow plaintext endpoints
	URL       string
}

// EEPROM configures threshold persistence.
type EEPROM struct {
	Kind    string
	Bus     string
	Address uint16
	Offset  int64
	Image   string
}

// Sensor configures the temperature sensor.
type Sensor struct {
	Bus     string
	Address uint16
	Timeout time.Duration
}

// Buttons configures the button lines.
type Buttons struct {
	Enabled  bool
	Chip     string
	Enter    int
	Increase int
	Decrease int
	Edge     string
}

// LED configures the RGB LED.
type LED struct {
	Enabled     bool
	Red         string
	Green       string
	Blue        string
	FrequencyHz int
	CommonAnode bool
}

// Display configures the text region.
type Display struct {
	Kind       string
	SPI        string
	Brightness int
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("tick", 50*time.Millisecond)
	v.SetDefault("sample_interval", 5*time.Second)
	v.SetDefault("debounce", 50*time.Millisecond)
	v.SetDefault("transition", time.Second)

	v.SetDefault("timesync.host", "192.168.1.10")
	v.SetDefault("timesync.port", 5000)
	v.SetDefault("timesync.path", "/time")
	v.SetDefault("timesync.attempts", 3)
	v.SetDefault("timesync.backoff", time.Second)
	v.SetDefault("timesync.timeout", 3*time.Second)
	v.SetDefault("timesync.location", "UTC")

	v.SetDefault("telemetry.transport", TransportNone)
	v.SetDefault("telemetry.interval", 30*time.Second)
	v.SetDefault("telemetry.timeout", 5*time.Second)
	v.SetDefault("telemetry.device", "clock")
	v.SetDefault("telemetry.broker", "ssl://192.168.1.200:8883")
	v.SetDefault("telemetry.username", "")
	v.SetDefault("telemetry.password", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.url", "")

	v.SetDefault("eeprom.kind", EEPROMAT24)
	v.SetDefault("eeprom.bus", "")
	v.SetDefault("eeprom.address", 0x50)
	v.SetDefault("eeprom.offset", 0)
	v.SetDefault("eeprom.image", "smart-clock.eeprom")

	v.SetDefault("sensor.bus", "")
	v.SetDefault("sensor.address", 0x76)
	v.SetDefault("sensor.timeout", 500*time.Millisecond)

	v.SetDefault("buttons.enabled", true)
	v.SetDefault("buttons.chip", "gpiochip0")
	v.SetDefault("buttons.enter", 17)
	v.SetDefault("buttons.increase", 27)
	v.SetDefault("buttons.decrease", 22)
	v.SetDefault("buttons.edge", "falling")

	v.SetDefault("led.enabled", true)
	v.SetDefault("led.red", "GPIO12")
	v.SetDefault("led.green", "GPIO13")
	v.SetDefault("led.blue", "GPIO18")
	v.SetDefault("led.frequency_hz", 1000)
	v.SetDefault("led.common_anode", true)

	v.SetDefault("display.kind", DisplayTerminal)
	v.SetDefault("display.spi", "/dev/spidev0.0")
	v.SetDefault("display.brightness", 4)

	v.SetDefault("http.addr", ":8080")
}

// flagSpec binds one command-line flag to a viper key.
type flagSpec struct {
	name  string
	key   string
	usage string
}

var flagSpecs = []flagSpec{
	{"log-level", "log.level", "log level (debug, info, warn, error)"},
	{"tick", "tick", "control loop tick"},
	{"sample-interval", "sample_interval", "sensor sampling interval"},
	{"debounce", "debounce", "button debounce quiet interval"},
	{"time-host", "timesync.host", "time service host"},
	{"time-port", "timesync.port", "time service port"},
	{"telemetry", "telemetry.transport", "telemetry transport (none, mqtt, https)"},
	{"telemetry-interval", "telemetry.interval", "telemetry interval (5s-60s)"},
	{"broker", "telemetry.broker", "MQTT broker URL (tcp:// or ssl://)"},
	{"telemetry-url", "telemetry.url", "HTTPS collector URL"},
	{"eeprom", "eeprom.kind", "threshold storage (at24, file)"},
	{"eeprom-image", "eeprom.image", "EEPROM image file for --eeprom=file"},
	{"display", "display.kind", "display (terminal, max7219, none)"},
	{"http", "http.addr", "HTTP status address (empty to disable)"},
}

// Load resolves the configuration for args (without the program name).
func Load(args []string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	fs := pflag.NewFlagSet("smart-clock", pflag.ContinueOnError)
	configFile := fs.String("config", "", "config file (default: search /etc/smart-clock and .)")
	printState := fs.Bool("print-state", false, "print stored thresholds and one sample, then exit")
	for _, f := range flagSpecs {
		switch d := v.Get(f.key).(type) {
		case time.Duration:
			fs.Duration(f.name, d, f.usage)
		case int:
			fs.Int(f.name, d, f.usage)
		default:
			fs.String(f.name, v.GetString(f.key), f.usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	for _, f := range flagSpecs {
		if err := v.BindPFlag(f.key, fs.Lookup(f.name)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", f.name, err)
		}
	}

	v.SetEnvPrefix("SMARTCLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("smart-clock")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/smart-clock")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := FromViper(v)
	cfg.PrintState = *printState
	cfg.ConfigFile = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromViper reads every key from v.
func FromViper(v *viper.Viper) Config {
	return Config{
		LogLevel:       v.GetString("log.level"),
		Tick:           v.GetDuration("tick"),
		SampleInterval: v.GetDuration("sample_interval"),
		Debounce:       v.GetDuration("debounce"),
		Transition:     v.GetDuration("transition"),
		TimeSync: TimeSync{
			Host:     v.GetString("timesync.host"),
			Port:     v.GetInt("timesync.port"),
			Path:     v.GetString("timesync.path"),
			Attempts: v.GetInt("timesync.attempts"),
			Backoff:  v.GetDuration("timesync.backoff"),
			Timeout:  v.GetDuration("timesync.timeout"),
			Location: v.GetString("timesync.location"),
		},
		Telemetry: Telemetry{
			Transport: strings.ToLower(v.GetString("telemetry.transport")),
			Interval:  v.GetDuration("telemetry.interval"),
			Timeout:   v.GetDuration("telemetry.timeout"),
			Device:    v.GetString("telemetry.device"),
			Broker:    v.GetString("telemetry.broker"),
			Username:  v.GetString("telemetry.username"),
			Password:  v.GetString("telemetry.password"),
			Insecure:  v.GetBool("telemetry.insecure"),
			URL:       v.GetString("telemetry.url"),
		},
		EEPROM: EEPROM{
			Kind:    strings.ToLower(v.GetString("eeprom.kind")),
			Bus:     v.GetString("eeprom.bus"),
			Address: uint16(v.GetUint("eeprom.address")),
			Offset:  v.GetInt64("eeprom.offset"),
			Image:   v.GetString("eeprom.image"),
		},
		Sensor: Sensor{
			Bus:     v.GetString("sensor.bus"),
			Address: uint16(v.GetUint("sensor.address")),
			Timeout: v.GetDuration("sensor.timeout"),
		},
		Buttons: Buttons{
			Enabled:  v.GetBool("buttons.enabled"),
			Chip:     v.GetString("buttons.chip"),
			Enter:    v.GetInt("buttons.enter"),
			Increase: v.GetInt("buttons.increase"),
			Decrease: v.GetInt("buttons.decrease"),
			Edge:     strings.ToLower(v.GetString("buttons.edge")),
		},
		LED: LED{
			Enabled:     v.GetBool("led.enabled"),
			Red:         v.GetString("led.red"),
			Green:       v.GetString("led.green"),
			Blue:        v.GetString("led.blue"),
			FrequencyHz: v.GetInt("led.frequency_hz"),
			CommonAnode: v.GetBool("led.common_anode"),
		},
		Display: Display{
			Kind:       strings.ToLower(v.GetString("display.kind")),
			SPI:        v.GetString("display.spi"),
			Brightness: v.GetInt("display.brightness"),
		},
		HTTPAddr: v.GetString("http.addr"),
	}
}

// Validate checks ranges and enumerations. The telemetry interval is clamped
// into [MinTelemetryInterval, MaxTelemetryInterval] rather than rejected.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %v", ErrInvalid, c.Tick)
	}
	if c.SampleInterval < c.Tick {
		return fmt.Errorf("%w: sample interval %v shorter than tick %v", ErrInvalid, c.SampleInterval, c.Tick)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%w: debounce must not be negative", ErrInvalid)
	}
	if c.Transition < 0 {
		return fmt.Errorf("%w: transition must not be negative", ErrInvalid)
	}
	if c.TimeSync.Host == "" || c.TimeSync.Port <= 0 || c.TimeSync.Port > 65535 {
		return fmt.Errorf("%w: time source %s:%d", ErrInvalid, c.TimeSync.Host, c.TimeSync.Port)
	}
	if _, err := time.LoadLocation(c.TimeSync.Location); err != nil {
		return fmt.Errorf("%w: time zone %q: %v", ErrInvalid, c.TimeSync.Location, err)
	}

	switch c.Telemetry.Transport {
	case TransportNone:
	case TransportMQTT:
		if c.Telemetry.Broker == "" {
			return fmt.Errorf("%w: mqtt telemetry needs a broker", ErrInvalid)
		}
		if err := c.checkScheme(c.Telemetry.Broker, "ssl", "tls", "mqtts", "wss"); err != nil {
			return err
		}
	case TransportHTTPS:
		if c.Telemetry.URL == "" {
			return fmt.Errorf("%w: https telemetry needs a url", ErrInvalid)
		}
		if err := c.checkScheme(c.Telemetry.URL, "https"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: telemetry transport %q", ErrInvalid, c.Telemetry.Transport)
	}
	if c.Telemetry.Interval < MinTelemetryInterval {
		c.Telemetry.Interval = MinTelemetryInterval
	}
	if c.Telemetry.Interval > MaxTelemetryInterval {
		c.Telemetry.Interval = MaxTelemetryInterval
	}

	switch c.EEPROM.Kind {
	case EEPROMAT24:
	case EEPROMFile:
		if c.EEPROM.Image == "" {
			return fmt.Errorf("%w: file eeprom needs an image path", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: eeprom kind %q", ErrInvalid, c.EEPROM.Kind)
	}
	if c.EEPROM.Offset < 0 {
		return fmt.Errorf("%w: eeprom offset %d", ErrInvalid, c.EEPROM.Offset)
	}

	switch c.Buttons.Edge {
	case "falling", "rising":
	default:
		return fmt.Errorf("%w: button edge %q", ErrInvalid, c.Buttons.Edge)
	}

	switch c.Display.Kind {
	case DisplayTerminal, DisplayMAX7219, DisplayNone:
	default:
		return fmt.Errorf("%w: display kind %q", ErrInvalid, c.Display.Kind)
	}
	return nil
}

// checkScheme rejects plaintext telemetry endpoints unless telemetry.insecure
// is set.
func (c *Config) checkScheme(raw string, secure ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: telemetry endpoint %q", ErrInvalid, raw)
	}
	if c.Telemetry.Insecure {
		return nil
	}
	for _, s := range secure {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return fmt.Errorf("%w: telemetry endpoint %q is not encrypted (set telemetry.insecure to allow)", ErrInvalid, raw)
}

// Location returns the time zone the time service reports in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeSync.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RampSteps is the number of ticks in one color transition.
func (c Config) RampSteps() int {
	if c.Tick <= 0 {
		return 0
	}
	return int(c.Transition / c.Tick)
}
