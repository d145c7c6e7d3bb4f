// Command smart-clock runs the clock: time display, temperature-driven LED
// color, button-edited comfort range and telemetry.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/smart-clock/internal/config"
	"github.com/sweeney/smart-clock/internal/controller"
	"github.com/sweeney/smart-clock/internal/display"
	"github.com/sweeney/smart-clock/internal/eeprom"
	"github.com/sweeney/smart-clock/internal/gpio"
	"github.com/sweeney/smart-clock/internal/i2cbus"
	"github.com/sweeney/smart-clock/internal/logger"
	"github.com/sweeney/smart-clock/internal/logic"
	"github.com/sweeney/smart-clock/internal/metrics"
	"github.com/sweeney/smart-clock/internal/pwm"
	"github.com/sweeney/smart-clock/internal/sensor"
	"github.com/sweeney/smart-clock/internal/status"
	"github.com/sweeney/smart-clock/internal/store"
	"github.com/sweeney/smart-clock/internal/telemetry"
	"github.com/sweeney/smart-clock/internal/timesync"
	"github.com/sweeney/smart-clock/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "smart-clock: %v\n", err)
		os.Exit(2)
	}

	log := logger.Get(cfg.LogLevel)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "error", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	hw, err := openHardware(cfg, log)
	if err != nil {
		return err
	}
	defer hw.Close()

	thresholds := store.New(hw.medium, cfg.EEPROM.Offset, log)

	if cfg.PrintState {
		return printState(os.Stdout, thresholds, hw.sensor)
	}

	m := metrics.New()

	syncer := timesync.NewClient(log)
	syncer.Attempts = cfg.TimeSync.Attempts
	syncer.Backoff = cfg.TimeSync.Backoff
	syncer.Timeout = cfg.TimeSync.Timeout
	syncer.Location = cfg.Location()
	syncer.OnAttempt = m.SyncAttempt
	endpoint := timesync.Endpoint(cfg.TimeSync.Host, cfg.TimeSync.Port, cfg.TimeSync.Path)

	tel, err := openTelemetry(cfg, log)
	if err != nil {
		return err
	}
	var sink controller.TelemetrySink
	if tel.async != nil {
		tel.async.OnResult = m.Telemetry
		sink = tel.async
		defer tel.async.Close()
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		SampleMs:    cfg.SampleInterval.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		TelemetryMs: cfg.Telemetry.Interval.Milliseconds(),
		TimeSource:  endpoint,
		Telemetry:   cfg.Telemetry.Transport,
		Broker:      cfg.Telemetry.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		Display:     cfg.Display.Kind,
	})

	ctrl := controller.New(controller.Deps{
		Sensor:     hw.sensor,
		Buttons:    hw.buttons,
		LED:        hw.led,
		Display:    hw.display,
		Store:      thresholds,
		Syncer:     syncer,
		Telemetry:  sink,
		Connection: tel.conn,
		Tracker:    tracker,
		Metrics:    m,
		Log:        log,
	}, controller.Options{
		TimeSource:        endpoint,
		SampleInterval:    cfg.SampleInterval,
		TelemetryInterval: cfg.Telemetry.Interval,
		Debounce:          cfg.Debounce,
		RampSteps:         cfg.RampSteps(),
		Location:          cfg.Location(),
	})
	ctrl.Boot(context.Background(), time.Now)

	// Startup event with full status snapshot
	if tel.system != nil {
		snap := tracker.Snapshot()
		event := telemetry.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := tel.system.PublishSystem(event); err != nil {
			log.Warnw("failed to publish startup event", "error", err)
		} else {
			log.Infow("published startup event")
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, m, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTPAddr)
	}

	log.Infow("started",
		"tick", cfg.Tick,
		"sample_interval", cfg.SampleInterval,
		"debounce", cfg.Debounce,
		"time_source", endpoint,
		"telemetry", cfg.Telemetry.Transport,
		"display", cfg.Display.Kind,
	)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, tel.system, tel.conn, tracker, log, time.Now, ticker.C, sigCh)
}

// runLoop drives the controller until a signal arrives, then publishes the
// SHUTDOWN event. sys, conn and tracker may be nil.
func runLoop(ctrl *controller.Controller, sys telemetry.SystemPublisher, conn telemetry.ConnectionStatus, tracker *status.Tracker, log *logger.Logger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx, tick, now) }()

	select {
	case err := <-done:
		return err
	case s := <-sig:
		log.Infow("shutting down", "signal", s)
		cancel()
		if err := <-done; err != nil {
			return err
		}

		signalName := "UNKNOWN"
		if s == syscall.SIGINT {
			signalName = "SIGINT"
		} else if s == syscall.SIGTERM {
			signalName = "SIGTERM"
		}
		if sys == nil {
			return nil
		}
		event := telemetry.SystemEvent{
			Timestamp: now(),
			Event:     "SHUTDOWN",
			Reason:    signalName,
			Retained:  true,
		}
		if tracker != nil {
			if conn != nil {
				tracker.SetMQTTConnected(conn.IsConnected())
			}
			snap := tracker.Snapshot()
			event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
		}
		if err := sys.PublishSystem(event); err != nil {
			log.Warnw("failed to publish shutdown event", "error", err)
		} else {
			log.Infow("published shutdown event")
		}
		return nil
	}
}

// printState shows the stored comfort range and one sample.
func printState(w io.Writer, thresholds controller.Store, r sensor.Reader) error {
	cfg := thresholds.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	temp := "--.-C"
	s, err := r.Sample(ctx)
	if err == nil {
		temp = s.Temperature.String()
	}
	fmt.Fprintf(w, "MIN: %s, MAX: %s, TEMP: %s, COLOR: %s\n",
		cfg.Min, cfg.Max, temp, colorFor(s, err, cfg))
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	return nil
}

func colorFor(s logic.SensorSample, err error, cfg logic.ThresholdConfig) string {
	if err != nil {
		return "-"
	}
	return logic.MapColor(s.Temperature, cfg).Hex()
}

type hardware struct {
	buses   map[string]*i2cbus.Shared
	medium  eeprom.Medium
	sensor  sensor.Reader
	buttons gpio.Buttons
	led     pwm.LED
	display display.Display
	closers []io.Closer
}

func (h *hardware) bus(name string) (*i2cbus.Shared, error) {
	if b, ok := h.buses[name]; ok {
		return b, nil
	}
	b, err := i2cbus.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	h.buses[name] = b
	return b, nil
}

// Close releases devices before the buses they sit on.
func (h *hardware) Close() error {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i].Close()
	}
	for _, b := range h.buses {
		b.Close()
	}
	return nil
}

func openHardware(cfg config.Config, log *logger.Logger) (*hardware, error) {
	hw := &hardware{buses: map[string]*i2cbus.Shared{}}
	ready := false
	defer func() {
		if !ready {
			hw.Close()
		}
	}()

	switch cfg.EEPROM.Kind {
	case config.EEPROMFile:
		f, err := eeprom.OpenFile(cfg.EEPROM.Image, eeprom.AT24C256Size)
		if err != nil {
			return nil, fmt.Errorf("open eeprom image: %w", err)
		}
		hw.medium = f
	default:
		b, err := hw.bus(cfg.EEPROM.Bus)
		if err != nil {
			return nil, err
		}
		hw.medium = eeprom.NewAT24C256(b, cfg.EEPROM.Address)
	}
	hw.closers = append(hw.closers, hw.medium)

	b, err := hw.bus(cfg.Sensor.Bus)
	if err != nil {
		return nil, err
	}
	bmp, err := sensor.NewBMP280(b, cfg.Sensor.Address, cfg.Sensor.Timeout)
	if err != nil {
		return nil, fmt.Errorf("init sensor: %w", err)
	}
	hw.sensor = bmp
	hw.closers = append(hw.closers, bmp)

	if cfg.PrintState {
		ready = true
		return hw, nil
	}

	hw.buttons = nopButtons{}
	if cfg.Buttons.Enabled {
		pins := gpio.Pins{Enter: cfg.Buttons.Enter, Increase: cfg.Buttons.Increase, Decrease: cfg.Buttons.Decrease}
		btn, err := gpio.NewRealButtons(cfg.Buttons.Chip, pins, gpio.EdgeKind(cfg.Buttons.Edge))
		if err != nil {
			return nil, fmt.Errorf("init buttons: %w", err)
		}
		hw.buttons = btn
		hw.closers = append(hw.closers, btn)
	}

	hw.led = nopLED{}
	if cfg.LED.Enabled {
		pins := pwm.Pins{Red: cfg.LED.Red, Green: cfg.LED.Green, Blue: cfg.LED.Blue}
		freq := physic.Frequency(cfg.LED.FrequencyHz) * physic.Hertz
		led, err := pwm.NewRealLED(pins, freq, cfg.LED.CommonAnode)
		if err != nil {
			return nil, fmt.Errorf("init led: %w", err)
		}
		hw.led = led
		hw.closers = append(hw.closers, led)
	}

	switch cfg.Display.Kind {
	case config.DisplayMAX7219:
		d, err := display.NewMAX7219(cfg.Display.SPI, cfg.Display.Brightness)
		if err != nil {
			return nil, fmt.Errorf("init display: %w", err)
		}
		hw.display = d
		hw.closers = append(hw.closers, d)
	case config.DisplayNone:
		hw.display = nopDisplay{}
	default:
		hw.display = display.NewTerminal(os.Stdout)
	}

	ready = true
	log.Debugw("hardware ready", "eeprom", cfg.EEPROM.Kind, "buttons", cfg.Buttons.Enabled, "led", cfg.LED.Enabled, "display", cfg.Display.Kind)
	return hw, nil
}

type telemetryStack struct {
	async  *telemetry.Async
	system telemetry.SystemPublisher
	conn   telemetry.ConnectionStatus
}

func openTelemetry(cfg config.Config, log *logger.Logger) (telemetryStack, error) {
	switch cfg.Telemetry.Transport {
	case config.TransportMQTT:
		r, err := telemetry.NewMQTTReporter(telemetry.MQTTOptions{
			Broker:             cfg.Telemetry.Broker,
			Device:             cfg.Telemetry.Device,
			Username:           cfg.Telemetry.Username,
			Password:           cfg.Telemetry.Password,
			InsecureSkipVerify: cfg.Telemetry.Insecure,
		})
		if err != nil {
			return telemetryStack{}, fmt.Errorf("init mqtt: %w", err)
		}
		if !r.IsConnected() {
			log.Warnw("mqtt broker not reachable yet, retrying in background", "broker", cfg.Telemetry.Broker)
		}
		return telemetryStack{
			async:  telemetry.NewAsync(r, cfg.Telemetry.Timeout, log),
			system: r,
			conn:   r,
		}, nil
	case config.TransportHTTPS:
		r := telemetry.NewHTTPSReporter(cfg.Telemetry.URL, &http.Client{Timeout: cfg.Telemetry.Timeout})
		return telemetryStack{async: telemetry.NewAsync(r, cfg.Telemetry.Timeout, log)}, nil
	default:
		return telemetryStack{}, nil
	}
}

type nopButtons struct{}

func (nopButtons) Poll() []logic.Edge { return nil }
func (nopButtons) Close() error       { return nil }

type nopLED struct{}

func (nopLED) Set(logic.ColorValue) error { return nil }
func (nopLED) Close() error               { return nil }

type nopDisplay struct{}

func (nopDisplay) Show(display.Frame) error { return nil }
func (nopDisplay) Close() error             { return nil }
