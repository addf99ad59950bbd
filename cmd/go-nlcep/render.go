package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tartampluch/go-nlcep/internal/config"
	"github.com/tartampluch/go-nlcep/internal/engine"
	"github.com/tartampluch/go-nlcep/internal/wire"
)

var (
	// Colors
	colorPrimary = lipgloss.Color("12")  // bright blue
	colorDim     = lipgloss.Color("240") // gray
	colorError   = lipgloss.Color("9")   // bright red

	styleLabel = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(12)

	styleValue = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleHint = lipgloss.NewStyle().
			Foreground(colorDim)
)

// renderEvent prints a labelled, human-readable view of ev.
func renderEvent(w io.Writer, ev engine.ResolvedEvent, loc wire.Localizer, lang string) {
	dto := wire.NewEvent(ev)
	timeValue := dto.Time
	if !ev.HasTime {
		timeValue = loc.Localize(lang, config.TKeyLblAllDay, nil)
	}

	rows := [][2]string{
		{config.TKeyLblSummary, dto.Summary},
		{config.TKeyLblDate, dto.Date},
		{config.TKeyLblTime, timeValue},
	}
	if ev.HasLocation() {
		rows = append(rows, [2]string{config.TKeyLblLocation, dto.Location})
	}

	var b strings.Builder
	for _, row := range rows {
		label := styleLabel.Render(loc.Localize(lang, row[0], nil) + ":")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, styleValue.Render(row[1])))
		b.WriteByte('\n')
	}
	_, _ = io.WriteString(w, b.String())
}

// renderFailure prints a failure message, pointing at the offending text
// when there is one.
func renderFailure(w io.Writer, f wire.FailureDTO) {
	_, _ = fmt.Fprintln(w, styleError.Render(f.Message))
	if f.Span != nil {
		_, _ = fmt.Fprintln(w, styleHint.Render(fmt.Sprintf("%s %q", f.Span.String(), f.Text)))
	}
}
