// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/irscope/pkg/config"
	"github.com/Thermoquad/irscope/pkg/infrared"
	"github.com/Thermoquad/irscope/pkg/pulselink"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const pingIntervalSeconds = 5 // Send ping requests every N seconds

// Focus states
const (
	focusButtonList = iota
	focusCustomInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// button is a configured remote button
type button struct {
	name string
	cmd  infrared.AnyCommand
}

// Implement list.Item interface
func (b button) Title() string       { return b.name }
func (b button) Description() string { return infrared.FormatAnyCommand(b.cmd) }
func (b button) FilterValue() string { return b.name }

// remoteModel is the Bubble Tea model for the remote TUI
type remoteModel struct {
	connMgr  *connectionManager
	connInfo string
	carrier  uint32

	buttons     list.Model
	customInput textinput.Model
	focused     int

	// Receive side
	decoder      *trainDecoder
	stats        *infrared.Statistics
	lastReceived *infrared.AnyCommand

	// Transmit side
	lastSent  *infrared.AnyCommand
	pending   int
	sentCount int

	errorLog      []errorLogEntry
	maxLogEntries int

	width          int
	height         int
	synchronized   bool
	quitting       bool
	connectionLost bool

	lastPingTime time.Time
	probeUptime  uint64
	hasUptime    bool
	probeName    string
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type remoteTickMsg time.Time

type remoteBatchMsg struct {
	events []linkEvent
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialRemoteModel(connMgr *connectionManager, connInfo string, carrier uint32, decoder *trainDecoder, configured []config.Button) remoteModel {
	ti := textinput.New()
	ti.Placeholder = "nec 0x07 0x2C"
	ti.CharLimit = 64
	ti.Width = 32

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	buttonList := list.New([]list.Item{}, delegate, 30, 10)
	buttonList.Title = "Buttons"
	buttonList.SetShowStatusBar(false)
	buttonList.SetShowHelp(false)
	buttonList.SetFilteringEnabled(false)

	m := remoteModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		carrier:       carrier,
		buttons:       buttonList,
		customInput:   ti,
		focused:       focusButtonList,
		decoder:       decoder,
		stats:         infrared.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}

	items := make([]list.Item, 0, len(configured))
	for _, b := range configured {
		c, err := b.AnyCommand()
		if err != nil {
			m.addLogEntry(fmt.Sprintf("Button %q: %v", b.Name, err), true)
			continue
		}
		items = append(items, button{name: b.Name, cmd: c})
	}
	m.buttons.SetItems(items)
	if len(items) == 0 {
		m.focused = focusCustomInput
		m.customInput.Focus()
	}
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m remoteModel) Init() tea.Cmd {
	return tea.Batch(remoteTickCmd(), textinput.Blink)
}

func remoteTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return remoteTickMsg(t)
	})
}

func (m remoteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if done := m.handleKeyMsg(msg); done {
			return m, tea.Quit
		}
		if msg.String() == "enter" || msg.String() == "tab" || msg.String() == "shift+tab" {
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case remoteTickMsg:
		m.stats.CalculateRates()
		if !m.connectionLost && time.Since(m.lastPingTime) >= pingIntervalSeconds*time.Second {
			m.lastPingTime = time.Now()
			// Failures show up as a lost connection
			_ = m.connMgr.send(pulselink.NewPing())
		}
		return m, remoteTickCmd()

	case remoteBatchMsg:
		for _, ev := range msg.events {
			m.processEvent(ev)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.pending = 0
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.synchronized = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
	}

	var cmd tea.Cmd
	switch m.focused {
	case focusCustomInput:
		m.customInput, cmd = m.customInput.Update(msg)
	case focusButtonList:
		m.buttons, cmd = m.buttons.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyMsg handles the keys owned by the model itself and reports
// whether the program should quit.
func (m *remoteModel) handleKeyMsg(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return true
	case "q":
		// q is a valid character in the custom field
		if m.focused == focusButtonList {
			m.quitting = true
			return true
		}
	case "tab", "shift+tab":
		m.toggleFocus()
	case "enter":
		m.handleEnter()
	case "r":
		if m.focused == focusButtonList && m.lastSent != nil {
			c := *m.lastSent
			c.Repeat = true
			m.transmit(c)
		}
	}
	return false
}

func (m *remoteModel) toggleFocus() {
	if m.focused == focusButtonList {
		m.focused = focusCustomInput
		m.customInput.Focus()
		return
	}
	if len(m.buttons.Items()) == 0 {
		return
	}
	m.focused = focusButtonList
	m.customInput.Blur()
}

func (m *remoteModel) handleEnter() {
	if m.connectionLost {
		m.addLogEntry("Cannot transmit: connection lost", true)
		return
	}

	switch m.focused {
	case focusButtonList:
		selected, ok := m.buttons.SelectedItem().(button)
		if !ok {
			return
		}
		m.transmit(selected.cmd)

	case focusCustomInput:
		c, err := parseCustomCommand(m.customInput.Value())
		if err != nil {
			m.addLogEntry(fmt.Sprintf("Invalid command: %v", err), true)
			return
		}
		m.transmit(c)
	}
}

// parseCustomCommand parses "PROTOCOL ADDRESS COMMAND [BITS]".
func parseCustomCommand(text string) (infrared.AnyCommand, error) {
	fields := strings.Fields(text)
	bits := "0"
	if len(fields) == 4 {
		bits = fields[3]
		fields = fields[:3]
	}
	return commandFromArgs(fields, bits, false)
}

func (m *remoteModel) transmit(c infrared.AnyCommand) {
	n, err := m.connMgr.transmit(c, m.carrier)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Failed to transmit: %v", err), true)
		return
	}
	m.pending++
	m.lastSent = &c
	m.addLogEntry(fmt.Sprintf("Sent %s (%d entries)", infrared.FormatAnyCommand(c), n), false)
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *remoteModel) processEvent(ev linkEvent) {
	if ev.synced {
		m.synchronized = true
		if ev.skipped > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", ev.skipped), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}
	}

	if ev.decodeErr != nil {
		m.stats.Update(nil, []error{ev.decodeErr}, nil)
		m.addLogEntry(fmt.Sprintf("LINK ERROR: %v", ev.decodeErr), true)
		return
	}

	packet := ev.packet
	switch packet.Type() {
	case pulselink.MsgPong:
		if uptime, ok := pulselink.GetMapUint(packet.Map(), pulselink.KeyUptime); ok {
			m.probeUptime = uptime
			m.hasUptime = true
		}

	case pulselink.MsgDeviceInfo:
		name, _ := pulselink.GetMapString(packet.Map(), pulselink.KeyName)
		firmware, _ := pulselink.GetMapString(packet.Map(), pulselink.KeyFirmware)
		m.probeName = strings.TrimSpace(name + " " + firmware)
		m.addLogEntry(fmt.Sprintf("Probe: %s", m.probeName), false)

	case pulselink.MsgTransmitDone:
		if m.pending > 0 {
			m.pending--
		}
		m.sentCount++
		sent, _ := pulselink.GetMapUint(packet.Map(), pulselink.KeySent)
		m.addLogEntry(fmt.Sprintf("Transmitted %d pulses", sent), false)

	case pulselink.MsgError:
		m.pending = 0
		m.addLogEntry(probeError(packet).Error(), true)

	case pulselink.MsgPulseTrain:
		m.processTrain(packet)
	}
}

func (m *remoteModel) processTrain(packet *pulselink.Packet) {
	if invalid := pulselink.ValidatePacket(packet); len(invalid) > 0 {
		m.stats.Update(nil, []error{&invalid[0]}, nil)
		m.addLogEntry(fmt.Sprintf("Invalid train: %s", invalid[0].Message), true)
		return
	}

	rate, _ := packet.SampleRate()
	pulses, _ := packet.Pulses()
	cmds, decodeErrs, err := m.decoder.Decode(rate, pulses)
	if err != nil {
		m.stats.Update(nil, []error{err}, nil)
		m.addLogEntry(err.Error(), true)
		return
	}
	m.stats.Update(cmds, decodeErrs, nil)

	if len(cmds) == 0 {
		m.addLogEntry(fmt.Sprintf("Received undecoded train (%d entries)", len(pulses)), true)
		return
	}
	for _, c := range cmds {
		m.addLogEntry(fmt.Sprintf("Received %s", infrared.FormatAnyCommand(c)), false)
	}
	last := cmds[len(cmds)-1]
	m.lastReceived = &last
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m remoteModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("IRSCOPE REMOTE"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch Enter=send r=repeat", connStatus)))
	s.WriteString("\n")
	if m.probeName != "" {
		s.WriteString(fmt.Sprintf(" %s %s", labelStyle.Render("Probe:"), valueStyle.Render(m.probeName)))
	}
	if m.hasUptime {
		s.WriteString(fmt.Sprintf(" %s %s", labelStyle.Render("Uptime:"), valueStyle.Render(formatUptime(m.probeUptime))))
	}
	s.WriteString("\n\n")

	// Layout: left panel (buttons) | right panel (transmit)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 20 {
		rightWidth = 20
	}

	listStyle := boxStyle.Width(leftWidth)
	if m.focused == focusButtonList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	buttonPanel := listStyle.Render(m.buttons.View())

	var panel strings.Builder
	panel.WriteString(labelStyle.Render("Custom command"))
	panel.WriteString("\n")
	panel.WriteString(m.customInput.View())
	panel.WriteString("\n")
	panel.WriteString(headerStyle.Render("PROTOCOL ADDRESS COMMAND [BITS]"))
	panel.WriteString("\n\n")
	panel.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Carrier:"), valueStyle.Render(fmt.Sprintf("%d Hz", m.carrier))))
	panel.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", m.sentCount))))
	if m.pending > 0 {
		panel.WriteString(warningStyle.Render(fmt.Sprintf(" (%d pending)", m.pending)))
	}
	panel.WriteString("\n")
	if m.lastSent != nil {
		panel.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Last sent:"), valueStyle.Render(infrared.FormatAnyCommand(*m.lastSent))))
	}
	if m.lastReceived != nil {
		panel.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("Last received:"), valueStyle.Render(infrared.FormatAnyCommand(*m.lastReceived))))
	}
	inputStyle := boxStyle.Width(rightWidth)
	if m.focused == focusCustomInput {
		inputStyle = focusedBoxStyle.Width(rightWidth)
	}
	controlPanel := inputStyle.Render(strings.TrimRight(panel.String(), "\n"))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttonPanel, " ", controlPanel))
	s.WriteString("\n\n")

	// Statistics bar
	errCount := valueStyle.Render("0")
	if n := m.stats.Errors(); n > 0 {
		errCount = errorStyle.Render(fmt.Sprintf("%d", n))
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		labelStyle.Render("Trains:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalTrains)),
		labelStyle.Render("Commands:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Commands)),
		labelStyle.Render("Errors:"), errCount,
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f trains/s", m.stats.TrainRate)),
	)))
	s.WriteString("\n\n")

	s.WriteString(m.renderEventLog(labelStyle, warningStyle, boxStyle))
	return s.String()
}

func (m remoteModel) renderEventLog(labelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(strings.TrimRight(s.String(), "\n"))
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *remoteModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m *remoteModel) updateListSize() {
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.buttons.SetSize(28, listHeight)
}
