// Package controller runs the smart clock: it owns every peripheral, the
// threshold editor, the last good sample, the clock and the color ramp, and
// advances them once per tick.
package controller

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/smart-clock/internal/display"
	"github.com/sweeney/smart-clock/internal/gpio"
	"github.com/sweeney/smart-clock/internal/logger"
	"github.com/sweeney/smart-clock/internal/logic"
	"github.com/sweeney/smart-clock/internal/metrics"
	"github.com/sweeney/smart-clock/internal/pwm"
	"github.com/sweeney/smart-clock/internal/sensor"
	"github.com/sweeney/smart-clock/internal/status"
	"github.com/sweeney/smart-clock/internal/telemetry"
)

// Store loads and persists the comfort range.
type Store interface {
	Load() logic.ThresholdConfig
	Save(cfg logic.ThresholdConfig) error
}

// Syncer performs the boot-time clock synchronisation.
type Syncer interface {
	Sync(ctx context.Context, endpoint string) (logic.ClockState, error)
}

// TelemetrySink accepts records without blocking.
type TelemetrySink interface {
	Submit(rec logic.TelemetryRecord) bool
	Stats() telemetry.Stats
}

// Deps are the controller's collaborators. Telemetry, Connection, Tracker
// and Metrics may be nil.
type Deps struct {
	Sensor     sensor.Reader
	Buttons    gpio.Buttons
	LED        pwm.LED
	Display    display.Display
	Store      Store
	Syncer     Syncer
	Telemetry  TelemetrySink
	Connection telemetry.ConnectionStatus
	Tracker    *status.Tracker
	Metrics    *metrics.Metrics
	Log        *logger.Logger
}

// Options are the controller's timing parameters.
type Options struct {
	TimeSource        string // time service URL
	SampleInterval    time.Duration
	TelemetryInterval time.Duration // 0 disables reporting
	Debounce          time.Duration
	RampSteps         int            // ticks per color transition
	Location          *time.Location // zone for the displayed time
}

// Controller is the single-threaded control loop. It is not safe for
// concurrent use; Run owns it once started.
type Controller struct {
	d    Deps
	opts Options
	log  *logger.Logger

	editor    *logic.Editor
	debouncer *logic.Debouncer
	clock     logic.Clock
	ramp      *logic.Ramp
	target    logic.ColorValue

	sample     logic.SensorSample
	haveSample bool

	lastSampleAt    time.Time
	sampledOnce     bool
	lastTelemetryAt time.Time
	reportedOnce    bool

	notice  string
	lastErr string
	counts  status.Counts

	lastFrame  display.Frame
	frameShown bool
}

// New creates a controller. Boot must be called before Tick.
func New(d Deps, opts Options) *Controller {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 5 * time.Second
	}
	return &Controller{
		d:         d,
		opts:      opts,
		log:       d.Log,
		debouncer: logic.NewDebouncer(opts.Debounce),
		ramp:      logic.NewRamp(logic.ColorValue{}, logic.ColorValue{}, opts.RampSteps),
	}
}

// Boot shows the initializing frame, loads the persisted thresholds and
// synchronises the clock once. A failed sync leaves the clock unsynced; the
// controller runs either way.
func (c *Controller) Boot(ctx context.Context, now func() time.Time) {
	c.notice = display.NoticeInitializing
	c.refreshDisplay(now())

	active := c.d.Store.Load()
	c.editor = logic.NewEditor(active, saverFunc(c.save))
	c.d.Metrics.Thresholds(active)

	state, err := c.d.Syncer.Sync(ctx, c.opts.TimeSource)
	if err != nil {
		c.log.Warnw("time sync failed, clock unsynced", "source", c.opts.TimeSource, "error", err)
		c.lastErr = err.Error()
		state = logic.ClockState{}
	} else {
		c.log.Infow("clock synced", "time", time.Unix(int64(state.EpochSeconds), 0).UTC().Format(time.RFC3339))
	}
	c.clock = logic.NewClock(state, now())
	c.d.Metrics.ClockSynced(state.Synced)

	c.notice = ""
	c.publish(now())
}

// saverFunc adapts a function to logic.Saver.
type saverFunc func(cfg logic.ThresholdConfig) error

func (f saverFunc) Save(cfg logic.ThresholdConfig) error { return f(cfg) }

func (c *Controller) save(cfg logic.ThresholdConfig) error {
	err := c.d.Store.Save(cfg)
	c.d.Metrics.StoreSave(err)
	return err
}

// Tick advances the controller to the local instant now:
// buttons and editor first, then sampling and color, one ramp step to the
// LED, the display, and finally telemetry.
func (c *Controller) Tick(ctx context.Context, now time.Time) {
	start := time.Now()

	configChanged := c.handleButtons()
	sampled := c.sampleIfDue(ctx, now)
	if c.haveSample && (sampled || configChanged) {
		c.retarget()
	}
	c.stepLED()
	c.refreshDisplay(now)
	c.reportIfDue(now)
	c.publish(now)

	c.d.Metrics.Tick(time.Since(start).Seconds())
}

// Run calls Tick for every value on tick until ctx is cancelled.
func (c *Controller) Run(ctx context.Context, tick <-chan time.Time, now func() time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			c.Tick(ctx, now())
		}
	}
}

func (c *Controller) handleButtons() (configChanged bool) {
	edges := c.d.Buttons.Poll()
	for _, e := range edges {
		accepted := c.debouncer.Accept(e)
		c.d.Metrics.ButtonEdge(e.Button, accepted)
		if !accepted {
			continue
		}

		c.counts.ButtonPresses++
		res := c.editor.Press(e.Button)
		c.log.Debugw("button", "button", e.Button, "mode", c.editor.State().Mode)

		if !res.Committed {
			continue
		}
		if res.SaveErr != nil {
			c.counts.SaveFailures++
			c.notice = display.NoticeSaveFailed
			c.lastErr = res.SaveErr.Error()
			c.log.Errorw("threshold save failed", "error", res.SaveErr)
			continue
		}
		c.counts.Saves++
		c.notice = ""
		active := c.editor.Active()
		c.d.Metrics.Thresholds(active)
		c.log.Infow("thresholds saved", "min", active.Min, "max", active.Max)
		if res.Changed {
			configChanged = true
		}
	}
	_, c.counts.ButtonBounces = c.debouncer.Counts()
	return configChanged
}

func (c *Controller) sampleIfDue(ctx context.Context, now time.Time) bool {
	if c.sampledOnce && now.Sub(c.lastSampleAt) < c.opts.SampleInterval {
		return false
	}
	c.sampledOnce = true
	c.lastSampleAt = now
	c.counts.SensorReads++

	s, err := c.d.Sensor.Sample(ctx)
	c.d.Metrics.SensorRead(err)
	if err != nil {
		c.counts.SensorFailures++
		c.lastErr = err.Error()
		if errors.Is(err, sensor.ErrTransientRead) {
			c.log.Warnw("sensor read failed, keeping last sample", "error", err)
		} else {
			c.log.Errorw("sensor read failed", "error", err)
		}
		return false
	}

	c.sample = s
	c.haveSample = true
	c.d.Metrics.Temperature(s.Temperature)
	return true
}

func (c *Controller) retarget() {
	target := logic.MapColor(c.sample.Temperature, c.editor.Active())
	if target == c.target {
		return
	}
	c.target = target
	c.ramp.Retarget(target)
}

func (c *Controller) stepLED() {
	col, ok := c.ramp.Next()
	if !ok {
		return
	}
	if err := c.d.LED.Set(col); err != nil {
		c.log.Warnw("led write failed", "error", err)
		return
	}
	c.d.Metrics.LED(col)
}

func (c *Controller) refreshDisplay(now time.Time) {
	in := display.Input{
		Sample:     c.sample,
		HaveSample: c.haveSample,
		Notice:     c.notice,
		Color:      c.target,
	}
	if wall, ok := c.clock.Now(now); ok {
		in.Now = wall.In(c.opts.Location)
		in.Synced = true
	}
	if c.editor != nil {
		in.Edit = c.editor.State()
	}

	frame := display.BuildFrame(in)
	if c.frameShown && frame == c.lastFrame {
		return
	}
	if err := c.d.Display.Show(frame); err != nil {
		c.log.Warnw("display write failed", "error", err)
		return
	}
	c.lastFrame = frame
	c.frameShown = true
}

func (c *Controller) reportIfDue(now time.Time) {
	if c.d.Telemetry == nil || c.opts.TelemetryInterval <= 0 {
		return
	}
	if c.reportedOnce && now.Sub(c.lastTelemetryAt) < c.opts.TelemetryInterval {
		return
	}

	wall, ok := c.clock.Now(now)
	if !ok || !c.haveSample {
		// Skipped reports still consume the interval.
		c.reportedOnce = true
		c.lastTelemetryAt = now
		c.d.Metrics.Telemetry("skipped")
		return
	}

	c.reportedOnce = true
	c.lastTelemetryAt = now
	c.d.Telemetry.Submit(logic.TelemetryRecord{
		EpochSeconds: uint64(wall.Unix()),
		Temperature:  c.sample.Temperature,
	})
}

func (c *Controller) publish(now time.Time) {
	if c.d.Tracker == nil {
		return
	}
	st := status.State{
		HaveSample:  c.haveSample,
		Sample:      c.sample,
		Color:       c.ramp.Current(),
		TargetColor: c.target,
		Notice:      c.notice,
		LastError:   c.lastErr,
		Counts:      c.counts,
	}
	if wall, ok := c.clock.Now(now); ok {
		st.Synced = true
		st.WallTime = wall
	}
	if c.editor != nil {
		st.Thresholds = c.editor.Active()
		st.Edit = c.editor.State()
	}
	if c.d.Telemetry != nil {
		ts := c.d.Telemetry.Stats()
		st.Counts.TelemetrySent = ts.Reported
		st.Counts.TelemetryFailed = ts.Failed
		st.Counts.TelemetryDropped = ts.Dropped
	}
	c.d.Tracker.Update(st)
	if c.d.Connection != nil {
		c.d.Tracker.SetMQTTConnected(c.d.Connection.IsConnected())
	}
}

// Active returns the configuration in force.
func (c *Controller) Active() logic.ThresholdConfig {
	if c.editor == nil {
		return logic.ThresholdConfig{}
	}
	return c.editor.Active()
}

// EditState returns the editor state.
func (c *Controller) EditState() logic.EditState {
	if c.editor == nil {
		return logic.EditState{}
	}
	return c.editor.State()
}

// LastSample returns the last good sample and whether there is one.
func (c *Controller) LastSample() (logic.SensorSample, bool) {
	return c.sample, c.haveSample
}

// Clock returns the boot-time clock.
func (c *Controller) Clock() logic.Clock { return c.clock }

// Notice returns the notice currently shown.
func (c *Controller) Notice() string { return c.notice }

// Counts returns the running counters.
func (c *Controller) Counts() status.Counts { return c.counts }
