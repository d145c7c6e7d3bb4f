// Package display renders the clock's text region: time of day, temperature,
// the threshold being edited and short notices.
package display

import (
	"fmt"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

// Notices shown on the display.
const (
	NoticeInitializing = "initializing"
	NoticeSaveFailed   = "SAVE FAILED"
	NoticeTimeUnknown  = "time unknown"
)

// Frame is one rendered screen. Frames are comparable so callers can skip
// redundant refreshes.
type Frame struct {
	Time        string // "15:04:05" or "--:--:--"
	TimeNote    string // "time unknown" when the clock never synced
	Temperature string // "21.5C" or "--.-C"
	Edit        string // "MIN 18.5C" / "MAX 26.0C"; empty in NORMAL mode
	Notice      string
	Color       logic.ColorValue

	// Raw values for segment displays.
	Synced    bool
	Hour      int
	Minute    int
	HaveTemp  bool
	Temp      logic.Temperature
	Mode      logic.ConfigMode
	Candidate logic.Temperature
}

// Input is everything a frame is built from.
type Input struct {
	Now        time.Time // wall clock; ignored unless Synced
	Synced     bool
	Sample     logic.SensorSample
	HaveSample bool
	Edit       logic.EditState
	Notice     string
	Color      logic.ColorValue
}

// BuildFrame renders in. Now is shown in its own location.
func BuildFrame(in Input) Frame {
	f := Frame{
		Time:        "--:--:--",
		TimeNote:    NoticeTimeUnknown,
		Temperature: "--.-C",
		Notice:      in.Notice,
		Color:       in.Color,
		Mode:        in.Edit.Mode,
	}

	if in.Synced {
		f.Time = in.Now.Format("15:04:05")
		f.TimeNote = ""
		f.Synced = true
		f.Hour, f.Minute, _ = in.Now.Clock()
	}
	if in.HaveSample {
		f.Temperature = in.Sample.Temperature.String()
		f.HaveTemp = true
		f.Temp = in.Sample.Temperature
	}

	switch in.Edit.Mode {
	case logic.ModeEditingMin:
		f.Edit = fmt.Sprintf("MIN %s", in.Edit.Candidate)
		f.Candidate = in.Edit.Candidate
	case logic.ModeEditingMax:
		f.Edit = fmt.Sprintf("MAX %s", in.Edit.Candidate)
		f.Candidate = in.Edit.Candidate
	}
	return f
}

// Display shows frames.
type Display interface {
	Show(f Frame) error
	Close() error
}
