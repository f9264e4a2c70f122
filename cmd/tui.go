// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/openvelo/turbostat/pkg/telemetry"
	"github.com/openvelo/turbostat/pkg/turbohmi"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive dashboard of live telemetry",
	Long: `Full-screen dashboard showing the live ride snapshot: battery, motor, and
settings fields as they arrive, plus session statistics and recent
anomalies. Press 'q' to quit.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Messages
type tuiTickMsg time.Time
type notificationMsg struct {
	data []byte
}
type transportErrMsg struct {
	err error
}

// TUI model
type tuiModel struct {
	connInfo      string
	monitor       *telemetry.Monitor
	fieldTable    table.Model
	eventLog      []eventLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
	disconnected  bool
}

func newTUIModel(connInfo string, monitor *telemetry.Monitor) tuiModel {
	columns := []table.Column{
		{Title: "Field", Width: 28},
		{Title: "Value", Width: 12},
		{Title: "Unit", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(14),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("12"))
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("10"))
	t.SetStyles(styles)

	return tuiModel{
		connInfo:      connInfo,
		monitor:       monitor,
		fieldTable:    t,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		tuiTickCmd(),
		tea.EnterAltScreen,
	)
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.fieldTable, cmd = m.fieldTable.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tuiTickMsg:
		m.monitor.Statistics().CalculateRates()
		return m, tuiTickCmd()

	case notificationMsg:
		decoded, err := turbohmi.Decode(msg.data)
		m.monitor.HandleNotification(msg.data)
		m.refreshTable()
		if err != nil {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", err), true)
		} else {
			for _, verr := range turbohmi.ValidateMessage(decoded) {
				m.addLogEntry(verr.Message, true)
			}
			if !decoded.Known() {
				m.addLogEntry(fmt.Sprintf("unknown field %s ch=0x%02X",
					turbohmi.SenderName(decoded.Sender), decoded.Channel), false)
			}
		}

	case transportErrMsg:
		m.disconnected = true
		m.addLogEntry(fmt.Sprintf("CONNECTION LOST: %v", msg.err), true)
	}

	return m, nil
}

func (m *tuiModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// refreshTable rebuilds the field table from the live snapshot.
func (m *tuiModel) refreshTable() {
	export := m.monitor.Snapshot().Export()

	var rows []table.Row
	addSection := func(name string) {
		section, ok := export[name].(map[string]any)
		if !ok || len(section) == 0 {
			return
		}
		for _, key := range sortedKeys(section) {
			def, _ := turbohmi.FieldByName(fieldRegistryName(name, key))
			unit := ""
			if def != nil {
				unit = def.Unit
			}
			rows = append(rows, table.Row{
				name + "." + key,
				fmt.Sprintf("%v", section[key]),
				unit,
			})
		}
	}
	addSection("battery")
	addSection("battery2")
	addSection("motor")
	addSection("settings")

	m.fieldTable.SetRows(rows)
}

// fieldRegistryName maps a snapshot export key back to its registry field
// name for unit lookup. Export keys are section-scoped; registry names
// are global.
func fieldRegistryName(section, key string) string {
	switch section {
	case "battery":
		switch key {
		case "capacity_wh":
			return "battery_capacity_wh"
		case "remaining_wh":
			return "battery_remaining_wh"
		default:
			return "battery_" + key
		}
	case "battery2":
		switch key {
		case "capacity_wh":
			return "battery2_capacity_wh"
		case "remaining_wh":
			return "battery2_remaining_wh"
		default:
			return "battery2_" + key
		}
	case "motor":
		switch key {
		case "temp":
			return "motor_temp"
		case "power":
			return "motor_power"
		default:
			return key
		}
	case "settings":
		return key
	}
	return key
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

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

	var s strings.Builder
	s.WriteString(titleStyle.Render("TURBOSTAT - LIVE TELEMETRY"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.disconnected {
		s.WriteString(errorStyle.Render("✗ Connection lost"))
		s.WriteString("\n\n")
	}

	// Field table
	s.WriteString(boxStyle.Render(m.fieldTable.View()))
	s.WriteString("\n\n")

	// Statistics
	stats := m.monitor.Statistics()
	snap := m.monitor.Snapshot()
	statsContent := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		statsLabelStyle.Render("Messages:"), statsValueStyle.Render(fmt.Sprintf("%d", stats.TotalMessages)),
		statsLabelStyle.Render("Unrouted:"), statsValueStyle.Render(fmt.Sprintf("%d", len(snap.Unrouted))),
		statsLabelStyle.Render("Anomalies:"), func() string {
			if stats.AnomalousValues > 0 {
				return warningStyle.Render(fmt.Sprintf("%d", stats.AnomalousValues))
			}
			return statsValueStyle.Render("0")
		}(),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f msg/s", stats.MessageRate)),
	)
	s.WriteString(boxStyle.Render(statsContent))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 26
	if logHeight < 3 {
		logHeight = 3
	}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
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

func runTUI(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenTransport()
	if err != nil {
		return err
	}
	defer conn.Close()

	monitor := telemetry.NewMonitor()
	monitor.Start()
	defer monitor.Stop()

	p := tea.NewProgram(newTUIModel(connInfo, monitor))

	// Reader goroutine forwards notifications into the Bubble Tea loop so
	// all model mutation stays on the program goroutine.
	go func() {
		for {
			data, err := conn.ReadNotification()
			if err != nil {
				p.Send(transportErrMsg{err: err})
				return
			}
			p.Send(notificationMsg{data: data})
		}
	}()

	_, err = p.Run()
	return err
}
