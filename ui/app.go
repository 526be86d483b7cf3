// Package ui is the interactive dashboard: a device table with a per-device
// detail page, refreshed from the scan engine on a timer.
package ui

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/model"
)

// Page identifies the current screen.
type Page int

const (
	PageList Page = iota
	PageDetail
)

// ioHistoryPoints caps the load chart window.
const ioHistoryPoints = 60

type tickMsg time.Time

type scanMsg struct {
	results *engine.Results
}

type ioHistoryMsg struct {
	serial string
	points []history.IOPoint
}

// Model is the bubbletea model.
type Model struct {
	engine   *engine.Engine
	store    *history.Store // nil when persistence is disabled
	interval time.Duration

	width  int
	height int

	results *engine.Results
	rows    []*model.DeviceSnapshot // filtered, dedup'd, sorted view

	page       Page
	selected   int
	showHidden bool
	paused     bool
	scanning   bool

	ioPoints []history.IOPoint // load history for the open detail page
}

// NewModel creates the TUI model. Cached results the engine warm-started
// with show immediately; the first scan replaces them.
func NewModel(eng *engine.Engine, store *history.Store, interval time.Duration, showHidden bool) Model {
	m := Model{
		engine:     eng,
		store:      store,
		interval:   interval,
		showHidden: showHidden,
	}
	if results := eng.Results(); results != nil {
		m.results = results
		m.rows = visibleRows(results, showHidden)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.interval), scanOnce(m.engine))
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// scanOnce runs one full engine cycle off the UI goroutine.
func scanOnce(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		_ = eng.Cycle(context.Background())
		return scanMsg{results: eng.Results()}
	}
}

// loadIOHistory fetches the load chart data for one serial.
func loadIOHistory(store *history.Store, serial string) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		points, err := store.IOHistory(context.Background(), serial, ioHistoryPoints)
		if err != nil {
			return ioHistoryMsg{serial: serial}
		}
		return ioHistoryMsg{serial: serial, points: points}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.paused {
			return m, nil
		}
		cmds := []tea.Cmd{tick(m.interval)}
		if !m.scanning {
			m.scanning = true
			cmds = append(cmds, scanOnce(m.engine))
		}
		return m, tea.Batch(cmds...)

	case scanMsg:
		m.scanning = false
		m.results = msg.results
		m.rows = visibleRows(m.results, m.showHidden)
		m.clampSelection()
		if m.page == PageDetail {
			if snap := m.current(); snap != nil && snap.HasSerial() {
				return m, loadIOHistory(m.store, snap.Serial)
			}
		}

	case ioHistoryMsg:
		if snap := m.current(); snap != nil && snap.Serial == msg.serial {
			m.ioPoints = msg.points
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.rows)-1 {
			m.selected++
		}

	case "enter", "l", "right":
		if m.page == PageList && len(m.rows) > 0 {
			m.page = PageDetail
			m.ioPoints = nil
			if snap := m.current(); snap != nil && snap.HasSerial() {
				return m, loadIOHistory(m.store, snap.Serial)
			}
		}
	case "esc", "backspace", "left":
		if m.page == PageDetail {
			m.page = PageList
			m.ioPoints = nil
		}

	case "h":
		m.showHidden = !m.showHidden
		m.rows = visibleRows(m.results, m.showHidden)
		m.clampSelection()

	case "a":
		m.paused = !m.paused
		if !m.paused {
			return m, tea.Batch(tick(m.interval), scanOnce(m.engine))
		}
	case "r":
		if !m.scanning {
			m.scanning = true
			return m, scanOnce(m.engine)
		}
	}
	return m, nil
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// current returns the selected row, or nil when the table is empty.
func (m *Model) current() *model.DeviceSnapshot {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return nil
	}
	return m.rows[m.selected]
}

// visibleRows filters ghost devices (no serial, no model name) unless hidden
// devices are shown, collapses duplicate serials from multipath enumeration,
// and orders by device path.
func visibleRows(results *engine.Results, showHidden bool) []*model.DeviceSnapshot {
	if results == nil {
		return nil
	}
	paths := make([]string, 0, len(results.Devices))
	for path := range results.Devices {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	seen := make(map[string]bool)
	rows := make([]*model.DeviceSnapshot, 0, len(paths))
	for _, path := range paths {
		snap := results.Devices[path]
		if !showHidden && ghost(snap) {
			continue
		}
		if snap.HasSerial() {
			if seen[snap.Serial] {
				continue
			}
			seen[snap.Serial] = true
		}
		rows = append(rows, snap)
	}
	return rows
}

// ghost reports a device that answered the scan but identified nothing
// about itself. Usually a card reader or bridge with no medium.
func ghost(snap *model.DeviceSnapshot) bool {
	return !snap.HasSerial() && snap.Model == ""
}

func (m Model) View() string {
	switch m.page {
	case PageDetail:
		return m.renderDetail()
	default:
		return m.renderList()
	}
}

// Run starts the dashboard and blocks until quit.
func Run(eng *engine.Engine, store *history.Store, interval time.Duration, showHidden bool) error {
	p := tea.NewProgram(NewModel(eng, store, interval, showHidden), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
