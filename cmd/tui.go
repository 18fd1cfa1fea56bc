// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/irscope/pkg/infrared"
	"github.com/Thermoquad/irscope/pkg/pulselink"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for warnings
}

// TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *infrared.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	synchronized  bool
	invalidBytes  int
	width         int
	height        int
	quitting      bool
	closed        error

	lastCommand  *infrared.AnyCommand
	lastDecoded  time.Time
	probeUptime  uint64 // milliseconds
	hasUptime    bool
	lastPulses   string
	lastRejected time.Time
}

// Messages
type tickMsg time.Time
type trainMsg trainReport
type syncMsg struct {
	invalidBytes int
}
type linkClosedMsg struct {
	err error
}

// formatUptime formats uptime in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(connInfo string, statsInterval int, showAll bool) model {
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         infrared.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.invalidBytes = msg.invalidBytes
		if msg.invalidBytes > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", msg.invalidBytes), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case linkClosedMsg:
		m.closed = msg.err
		m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)

	case trainMsg:
		m.handleReport(trainReport(msg))
	}

	return m, nil
}

func (m *model) handleReport(r trainReport) {
	record(m.stats, r)

	switch {
	case r.linkErr != nil:
		m.addLogEntry(fmt.Sprintf("LINK ERROR: %v", r.linkErr), true)
		return
	case r.packet.Type() == pulselink.MsgPong:
		if uptime, ok := pulselink.GetMapUint(r.packet.Map(), pulselink.KeyUptime); ok {
			m.probeUptime = uptime
			m.hasUptime = true
		}
		return
	case r.packet.Type() != pulselink.MsgPulseTrain:
		if m.showAll {
			m.addLogEntry(pulselink.FormatMessageType(r.packet.Type()), false)
		}
		return
	}

	for _, v := range r.invalid {
		m.addLogEntry(fmt.Sprintf("PULSE_TRAIN: %s", v.Message), true)
	}
	for _, a := range r.anomalies {
		m.addLogEntry(fmt.Sprintf("%s: %s", strings.ToUpper(a.Type.String()), a.Message), false)
	}

	if len(r.cmds) > 0 {
		last := r.cmds[len(r.cmds)-1]
		m.lastCommand = &last
		m.lastDecoded = time.Now()
		if m.showAll {
			for _, c := range r.cmds {
				m.addLogEntry(infrared.FormatAnyCommand(c), false)
			}
		}
		return
	}

	if len(r.invalid) == 0 {
		rate, _ := r.packet.SampleRate()
		pulses, _ := r.packet.Pulses()
		m.lastPulses = infrared.FormatPulses(pulses, rate)
		m.lastRejected = time.Now()
		msg := fmt.Sprintf("NOT DECODED: %d entries", len(pulses))
		for _, err := range r.decodeErrs {
			var de infrared.DecodeError
			if errors.As(err, &de) && de.Kind != infrared.ErrorClassification {
				msg += ", " + err.Error()
			}
		}
		m.addLogEntry(msg, true)
	}
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("IRSCOPE - ERROR DETECTION"))
	s.WriteString("\n")
	mode := "Errors only"
	if m.showAll {
		mode = "All trains"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'r' reset, 'q' quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	// Sync status
	switch {
	case m.closed != nil:
		s.WriteString(errorStyle.Render("✗ Connection closed"))
		s.WriteString("\n\n")
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	default:
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.invalidBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid bytes)", m.invalidBytes)))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	var decodedPercent float64
	if m.stats.TotalTrains > 0 {
		decodedPercent = float64(m.stats.DecodedTrains) * 100.0 / float64(m.stats.TotalTrains)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Trains:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalTrains)),
		statsLabelStyle.Render("Decoded:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.DecodedTrains, decodedPercent)),
		statsLabelStyle.Render("Commands:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Commands)),
	))

	if m.stats.Errors() > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Classification:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.ClassificationErrors)),
			statsLabelStyle.Render("Validation:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ValidationErrors)),
			statsLabelStyle.Render("Link:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.OtherErrors)),
		))
	}

	if m.stats.Anomalies > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Anomalies:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.Anomalies)),
			headerStyle.Render("glitch"), m.stats.Glitches,
			headerStyle.Render("overlong"), m.stats.Overlong,
			headerStyle.Render("truncated"), m.stats.Truncated,
		))
	}

	var perProtocol []string
	for _, p := range infrared.Protocols() {
		if n := m.stats.PerProtocol[p]; n > 0 {
			perProtocol = append(perProtocol, fmt.Sprintf("%s %d", infrared.FormatProtocol(p), n))
		}
	}
	if len(perProtocol) > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Protocols:"), headerStyle.Render(strings.Join(perProtocol, ", "))))
	}

	errorRate := statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	if m.stats.ErrorRate > 0 {
		errorRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Train Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f trains/s", m.stats.TrainRate)),
		statsLabelStyle.Render("Error Rate:"), errorRate,
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Last decoded command and last rejected train
	if m.lastCommand != nil || m.hasUptime || m.lastPulses != "" {
		s.WriteString(statsLabelStyle.Render("Latest:"))
		s.WriteString("\n")

		latest := strings.Builder{}
		if m.lastCommand != nil {
			latest.WriteString(fmt.Sprintf("%s %s %s\n",
				statsLabelStyle.Render("Command:"),
				statsValueStyle.Render(infrared.FormatAnyCommand(*m.lastCommand)),
				headerStyle.Render(m.lastDecoded.Format("15:04:05.000")),
			))
		}
		if m.hasUptime {
			latest.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Probe uptime:"), statsValueStyle.Render(formatUptime(m.probeUptime)),
			))
		}
		if m.lastPulses != "" {
			pulses := m.lastPulses
			if limit := m.width - 24; limit > 10 && len(pulses) > limit {
				pulses = pulses[:limit] + "…"
			}
			latest.WriteString(fmt.Sprintf("%s %s %s",
				statsLabelStyle.Render("Rejected:"),
				warningStyle.Render(pulses),
				headerStyle.Render(m.lastRejected.Format("15:04:05.000")),
			))
		}

		s.WriteString(boxStyle.Render(strings.TrimRight(latest.String(), "\n")))
		s.WriteString("\n\n")
	}

	// Error log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 17
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
