package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal toast styling. The terminal is an append-only surface, so
// Hide cannot un-print a toast; dismissal is simply the absence of
// further updates.
var (
	toastBase = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			MarginBottom(1).
			Width(56)

	toastTitle = lipgloss.NewStyle().Bold(true)

	typeColors = map[Type]lipgloss.Color{
		TypeSuccess:  lipgloss.Color("42"),
		TypeWarning:  lipgloss.Color("214"),
		TypeError:    lipgloss.Color("196"),
		TypeInfo:     lipgloss.Color("39"),
		TypeProgress: lipgloss.Color("99"),
	}

	typeIcons = map[Type]string{
		TypeSuccess:  "✓",
		TypeWarning:  "⚠",
		TypeError:    "✗",
		TypeInfo:     "ℹ",
		TypeProgress: "◔",
	}
)

// TerminalRenderer draws notifications as styled toast boxes.
type TerminalRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalRenderer creates a renderer writing to w.
func NewTerminalRenderer(w io.Writer) *TerminalRenderer {
	return &TerminalRenderer{w: w}
}

// Show draws the notification toast.
func (r *TerminalRenderer) Show(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintln(r.w, r.renderToast(n))
	return err
}

// Update redraws a progress notification's current state.
func (r *TerminalRenderer) Update(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintf(r.w, "%s %s %s\n",
		typeIcons[TypeProgress],
		progressBar(n.Progress, 30),
		n.Message)
	return err
}

// Hide is a no-op: printed toasts cannot be withdrawn from a scrollback
// terminal.
func (r *TerminalRenderer) Hide(string) {}

func (r *TerminalRenderer) renderToast(n Notification) string {
	color, ok := typeColors[n.Type]
	if !ok {
		color = typeColors[TypeInfo]
	}

	var b strings.Builder
	icon := typeIcons[n.Type]
	if n.Title != "" {
		b.WriteString(toastTitle.Foreground(color).Render(icon + " " + n.Title))
		b.WriteString("\n")
	}
	b.WriteString(n.Message)

	if n.Type == TypeProgress {
		b.WriteString("\n")
		b.WriteString(progressBar(n.Progress, 30))
	}

	if len(n.Actions) > 0 {
		labels := make([]string, len(n.Actions))
		for i, a := range n.Actions {
			labels[i] = "[" + a.Label + "]"
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Faint(true).Render(strings.Join(labels, " ")))
	}

	return toastBase.BorderForeground(color).Render(b.String())
}

// progressBar renders a fixed-width percentage bar.
func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return fmt.Sprintf("%s%s %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		percent)
}
