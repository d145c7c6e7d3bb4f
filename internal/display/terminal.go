package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBorder = lipgloss.Color("62")
	colorDim    = lipgloss.Color("240")
	colorEdit   = lipgloss.Color("214")
	colorCrit   = lipgloss.Color("196")
)

// Terminal renders frames as a styled block on a writer. It stands in for
// the panel on development hosts.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal writes frames to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Render returns the styled block for f.
func Render(f Frame) string {
	timeS := lipgloss.NewStyle().Bold(true)
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(f.Color.Hex())).Render("●")

	lines := []string{timeS.Render(f.Time)}
	if f.TimeNote != "" {
		lines = append(lines, dimS.Render(f.TimeNote))
	}
	lines = append(lines, swatch+" "+f.Temperature)
	if f.Edit != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorEdit).Bold(true).Render(f.Edit))
	}
	if f.Notice != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorCrit).Render(f.Notice))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Show writes the frame.
func (t *Terminal) Show(f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, strings.TrimRight(Render(f), "\n"))
	return err
}

// Close is a no-op.
func (t *Terminal) Close() error { return nil }
