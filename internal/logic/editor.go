package logic

// EditState is the threshold editor state. Candidate is only meaningful
// while Mode != ModeNormal.
type EditState struct {
	Mode      ConfigMode
	Candidate Temperature
}

// Transition is the pure threshold-editing state machine.
//
// cfg is the working configuration of the current session (the persisted
// one when a session starts). The returned configuration carries the values
// committed so far; commit is true when the session has just finished and
// the returned configuration must be persisted.
func Transition(s EditState, cfg ThresholdConfig, b Button) (next EditState, working ThresholdConfig, commit bool) {
	working = cfg
	switch s.Mode {
	case ModeNormal:
		if b == ButtonEnter {
			return EditState{Mode: ModeEditingMin, Candidate: cfg.Min}, working, false
		}
		return s, working, false

	case ModeEditingMin:
		switch b {
		case ButtonIncrease:
			s.Candidate = (s.Candidate + Step).Clamp(SensorMin, SensorMax)
		case ButtonDecrease:
			s.Candidate = (s.Candidate - Step).Clamp(SensorMin, SensorMax)
		case ButtonEnter:
			working.Min = s.Candidate
			// The old max may now sit below the new min.
			cand := working.Max
			if cand < working.Min {
				cand = working.Min
			}
			return EditState{Mode: ModeEditingMax, Candidate: cand}, working, false
		}
		return s, working, false

	case ModeEditingMax:
		switch b {
		case ButtonIncrease:
			s.Candidate = (s.Candidate + Step).Clamp(cfg.Min, SensorMax)
		case ButtonDecrease:
			s.Candidate = (s.Candidate - Step).Clamp(cfg.Min, SensorMax)
		case ButtonEnter:
			working.Max = s.Candidate
			return EditState{Mode: ModeNormal}, working, true
		}
		return s, working, false
	}
	return EditState{Mode: ModeNormal}, working, false
}

// Saver persists a committed configuration.
type Saver interface {
	Save(cfg ThresholdConfig) error
}

// Editor drives Transition for one device. It owns the session config and
// only replaces the active configuration after a successful save.
type Editor struct {
	saver   Saver
	active  ThresholdConfig
	session ThresholdConfig
	state   EditState
}

// NewEditor creates an editor over the given active configuration.
func NewEditor(active ThresholdConfig, saver Saver) *Editor {
	return &Editor{saver: saver, active: active, session: active}
}

// Result describes what a single button press did.
type Result struct {
	// Committed is true when the session ended with a save attempt.
	Committed bool
	// SaveErr is the save error, if the commit failed.
	SaveErr error
	// Changed is true when the active configuration changed.
	Changed bool
}

// Press feeds one debounced button press into the state machine.
func (e *Editor) Press(b Button) Result {
	if e.state.Mode == ModeNormal {
		e.session = e.active
	}
	next, working, commit := Transition(e.state, e.session, b)
	e.state = next
	e.session = working
	if !commit {
		return Result{}
	}

	if err := e.saver.Save(working); err != nil {
		// Keep showing the last persisted configuration.
		e.session = e.active
		return Result{Committed: true, SaveErr: err}
	}
	changed := working != e.active
	e.active = working
	return Result{Committed: true, Changed: changed}
}

// Active returns the configuration in force.
func (e *Editor) Active() ThresholdConfig { return e.active }

// State returns the current editor state.
func (e *Editor) State() EditState { return e.state }

// Session returns the configuration being edited, including values
// committed earlier in the current session.
func (e *Editor) Session() ThresholdConfig { return e.session }
