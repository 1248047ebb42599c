package sim

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"solarview/internal/clock"
	"solarview/internal/config"
	"solarview/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// frameMsg carries the latest placement frame.
type frameMsg struct{ telemetry.PlacementFrame }

// adminMsg reports admin API status.
type adminMsg struct{ active bool }

type setControlsMsg struct{ c Controls }

// controlResultMsg reports the outcome of a control issued from a key.
type controlResultMsg struct {
	action string
	err    error
}

const (
	maxLogLines = 1000
	minRate     = 1.0 / 1024
	maxRate     = 100000
)

// TUIWriter renders placement frames using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process so the caller's signal handling shuts down.
func NewTUIWriter(cfg *config.Config) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WritePlacements implements PlacementWriter.
func (w *TUIWriter) WritePlacements(f telemetry.PlacementFrame) error {
	w.program.Send(frameMsg{f})
	return nil
}

// WriteFrames sends only the newest frame; the TUI shows a single instant.
func (w *TUIWriter) WriteFrames(frames []telemetry.PlacementFrame) error {
	if len(frames) == 0 {
		return nil
	}
	return w.WritePlacements(frames[len(frames)-1])
}

// Logf appends a line to the log viewport.
func (w *TUIWriter) Logf(format string, args ...any) {
	w.program.Send(logMsg{line: fmt.Sprintf(format, args...)})
}

// Write implements io.Writer so a slog handler can log into the viewport.
func (w *TUIWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.program.Send(logMsg{line: line})
	}
	return len(p), nil
}

// SetControls registers the clock controls driven by the keys.
func (w *TUIWriter) SetControls(c Controls) {
	w.program.Send(setControlsMsg{c: c})
}

// SetAdminStatus updates the admin API indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.Config
	styles       map[string]lipgloss.Style
	symbols      map[string]string
	table        table.Model
	vp           viewport.Model
	logs         []string
	frame        telemetry.PlacementFrame
	haveFrame    bool
	lastSeq      uint64
	lastStatus   string
	controls     Controls
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	showMap      bool
	mapSpan      float64
	jumpInput    textinput.Model
	jumpDialog   bool
	rateInput    textinput.Model
	rateDialog   bool
	width        int
	height       int
	header       string
	headerHeight int
}

func newTUIModel(cfg *config.Config) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	cols := []table.Column{
		{Title: "Body", Width: 9},
		{Title: "X", Width: 8},
		{Title: "Y", Width: 7},
		{Title: "Z", Width: 8},
		{Title: "R", Width: 7},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(len(cfg.Bodies)+1))
	m := tuiModel{
		cfg:        cfg,
		styles:     bodyStyles(cfg),
		symbols:    assignSymbols(cfg.BodyIDs()),
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
		showMap:    true,
	}
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.jumpDialog || m.rateDialog {
			return m.updateDialog(msg)
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		return m.updateKeys(msg)
	case frameMsg:
		m.applyFrame(msg.PlacementFrame)
	case logMsg:
		m.appendLog(msg.line)
	case controlResultMsg:
		if msg.err != nil {
			m.appendLog(fmt.Sprintf("%s[%s]%s %sCONTROL%s %s failed: %v", colorGray, time.Now().UTC().Format(time.RFC3339), colorReset, colorRed, colorReset, msg.action, msg.err))
		} else {
			m.appendLog(fmt.Sprintf("%s[%s]%s %sCONTROL%s %s", colorGray, time.Now().UTC().Format(time.RFC3339), colorReset, colorCyan, colorReset, msg.action))
		}
	case adminMsg:
		m.admin = msg.active
	case setControlsMsg:
		m.controls = msg.c
	}
	return m, nil
}

func (m tuiModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showMap {
		switch msg.String() {
		case "+", "=":
			if m.mapSpan <= 0 {
				m.mapSpan = autoSpan(m.frame.Placements)
			}
			m.mapSpan *= 0.8
			if m.mapSpan < 0.1 {
				m.mapSpan = 0.1
			}
			return m, nil
		case "-":
			if m.mapSpan <= 0 {
				m.mapSpan = autoSpan(m.frame.Placements)
			}
			m.mapSpan *= 1.25
			return m, nil
		case "0":
			m.mapSpan = 0
			return m, nil
		}
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.control("realtime", func(c Controls) error { c.SetRealtime(); return nil })
	case "f":
		rate := m.currentRate()
		return m, m.control(fmt.Sprintf("fast %g d/s", rate), func(c Controls) error { return c.SetFast(rate) })
	case "]":
		rate := clampRate(m.currentRate() * 2)
		return m, m.control(fmt.Sprintf("fast %g d/s", rate), func(c Controls) error { return c.SetFast(rate) })
	case "[":
		rate := clampRate(m.currentRate() / 2)
		return m, m.control(fmt.Sprintf("fast %g d/s", rate), func(c Controls) error { return c.SetFast(rate) })
	case "g":
		return m, m.control("refresh", func(c Controls) error { c.Refresh(); return nil })
	case "j":
		m.jumpInput = textinput.New()
		m.jumpInput.Placeholder = "2030-01-01T00:00:00Z"
		if m.haveFrame {
			m.jumpInput.SetValue(clock.FormatTimestamp(m.frame.SimTime))
		}
		m.jumpInput.CursorEnd()
		m.jumpInput.Focus()
		m.jumpDialog = true
		m.updateViewportHeight()
		return m, nil
	case "F":
		m.rateInput = textinput.New()
		m.rateInput.Placeholder = "days per second"
		m.rateInput.SetValue(strconv.FormatFloat(m.currentRate(), 'g', -1, 64))
		m.rateInput.CursorEnd()
		m.rateInput.Focus()
		m.rateDialog = true
		m.updateViewportHeight()
		return m, nil
	case "m":
		m.showMap = !m.showMap
		return m, nil
	case "w":
		m.wrap = !m.wrap
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		return m, nil
	case "s":
		m.autoscroll = !m.autoscroll
		if m.autoscroll {
			m.vp.GotoBottom()
		}
		return m, nil
	case "h", "?":
		m.help = true
		return m, nil
	}
	if !m.autoscroll && !m.showMap {
		switch msg.String() {
		case "down":
			m.vp.LineDown(1)
		case "up":
			m.vp.LineUp(1)
		case "pgdown", "ctrl+n":
			m.vp.LineDown(10)
		case "pgup", "ctrl+p":
			m.vp.LineUp(10)
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m tuiModel) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Type {
	case tea.KeyEnter:
		if m.jumpDialog {
			val := strings.TrimSpace(m.jumpInput.Value())
			cmd = m.control("jump to "+val, func(c Controls) error {
				_, err := c.JumpTo(val)
				return err
			})
		} else {
			val := strings.TrimSpace(m.rateInput.Value())
			rate, err := strconv.ParseFloat(val, 64)
			if err != nil {
				m.appendLog(fmt.Sprintf("%sinvalid rate %q%s", colorRed, val, colorReset))
			} else {
				cmd = m.control(fmt.Sprintf("fast %g d/s", rate), func(c Controls) error { return c.SetFast(rate) })
			}
		}
		m.jumpDialog, m.rateDialog = false, false
		m.updateViewportHeight()
	case tea.KeyEsc:
		m.jumpDialog, m.rateDialog = false, false
		m.updateViewportHeight()
	default:
		if m.jumpDialog {
			m.jumpInput, cmd = m.jumpInput.Update(msg)
		} else {
			m.rateInput, cmd = m.rateInput.Update(msg)
		}
	}
	return m, cmd
}

// control runs fn against the registered controls outside the update loop.
func (m tuiModel) control(action string, fn func(Controls) error) tea.Cmd {
	c := m.controls
	if c == nil {
		return func() tea.Msg {
			return controlResultMsg{action: action, err: fmt.Errorf("controls not ready")}
		}
	}
	return func() tea.Msg {
		return controlResultMsg{action: action, err: fn(c)}
	}
}

func (m tuiModel) currentRate() float64 {
	if m.haveFrame && m.frame.Rate > 0 {
		return m.frame.Rate
	}
	if m.cfg != nil && m.cfg.Clock.RateDaysPerSecond > 0 {
		return m.cfg.Clock.RateDaysPerSecond
	}
	return 1
}

func clampRate(r float64) float64 {
	if r < minRate {
		return minRate
	}
	if r > maxRate {
		return maxRate
	}
	return r
}

func (m *tuiModel) applyFrame(f telemetry.PlacementFrame) {
	m.frame = f
	m.haveFrame = true
	ts := f.Timestamp.Format(time.RFC3339)
	if f.SnapshotSeq != m.lastSeq && f.HasSnapshot() {
		m.lastSeq = f.SnapshotSeq
		m.appendLog(fmt.Sprintf("%s[%s]%s %sSNAPSHOT%s %sseq=%d%s %ssim=%s%s %sbodies=%d%s",
			colorGray, ts, colorReset,
			colorGreen, colorReset,
			colorBlue, f.SnapshotSeq, colorReset,
			colorYellow, clock.FormatTimestamp(f.SnapshotTime), colorReset,
			colorMagenta, len(f.Placements), colorReset))
	}
	if f.Status != m.lastStatus {
		m.lastStatus = f.Status
		if f.Status != "" {
			m.appendLog(fmt.Sprintf("%s[%s]%s %sSTATUS%s %s", colorGray, ts, colorReset, colorYellow, colorReset, f.Status))
		}
	}
	rows := make([]table.Row, 0, len(f.Placements))
	for _, p := range f.Placements {
		rows = append(rows, table.Row{
			p.Body,
			fmt.Sprintf("%.2f", p.Position.X),
			fmt.Sprintf("%.2f", p.Position.Y),
			fmt.Sprintf("%.2f", p.Position.Z),
			fmt.Sprintf("%.2f", p.Position.InPlaneRadius()),
		})
	}
	m.table.SetRows(rows)
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	m.updateViewportHeight()
}

func (m *tuiModel) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshViewport()
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - m.headerHeight - lipgloss.Height(m.renderBottom()) - 2
	if m.jumpDialog || m.rateDialog {
		h--
	}
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	body := m.vp.View()
	if m.showMap {
		body = renderMap(m.frame.Placements, m.symbols, m.styles, m.vp.Width, m.vp.Height, m.mapSpan)
	}
	sections := []string{m.header, divider, body, divider}
	if m.jumpDialog {
		sections = append(sections, fmt.Sprintf("Jump to (ISO-8601) - Enter to jump, Esc to cancel: %s", m.jumpInput.View()))
	}
	if m.rateDialog {
		sections = append(sections, fmt.Sprintf("Fast rate (days/s) - Enter to apply, Esc to cancel: %s", m.rateInput.View()))
	}
	sections = append(sections, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	tableView := m.table.View()
	panelWidth := m.width - lipgloss.Width(tableView) - 1
	panel := m.renderClockPanel(panelWidth)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, sep, panel)
}

func (m tuiModel) renderClockPanel(width int) string {
	if !m.haveFrame {
		return "Clock\nwaiting for first frame"
	}
	f := m.frame
	modeStyle := lipgloss.NewStyle().Bold(true)
	switch f.Mode {
	case string(clock.Realtime):
		modeStyle = modeStyle.Foreground(lipgloss.Color("10"))
	case string(clock.Fast):
		modeStyle = modeStyle.Foreground(lipgloss.Color("11"))
	case string(clock.Fixed):
		modeStyle = modeStyle.Foreground(lipgloss.Color("12"))
	}
	mode := modeStyle.Render(f.Mode)
	if f.Mode == string(clock.Fast) {
		mode += fmt.Sprintf(" (%g d/s)", f.Rate)
	}
	lines := []string{
		"Clock",
		"mode      " + mode,
		"sim time  " + clock.FormatTimestamp(f.SimTime),
	}
	if f.HasSnapshot() {
		lag := f.SimTime.Sub(f.SnapshotTime)
		lines = append(lines, fmt.Sprintf("snapshot  #%d lag %.2fd", f.SnapshotSeq, lag.Hours()/24))
	} else {
		lines = append(lines, "snapshot  none yet")
	}
	if f.Status != "" {
		status := "status    " + f.Status
		if m.wrap && width > 0 {
			status = wordwrap.String(status, width)
		}
		lines = append(lines, status)
	}
	lines = append(lines, "", renderLegend(f.Placements, m.symbols, m.styles))
	return strings.Join(lines, "\n")
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	view := "Log"
	if m.showMap {
		view = "Map"
	}
	return fmt.Sprintf("%s | Admin API %s | Wrap %s | Scroll %s | r realtime  f fast  [ ] rate  j jump  g refresh  h help",
		view, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" r  switch to realtime",
		" f  switch to fast at the current rate",
		" ]  double the fast rate",
		" [  halve the fast rate",
		" F  enter a fast rate",
		" j  jump to a timestamp (freezes the clock)",
		" g  refresh: resync to now and refetch",
		" m  toggle map / log view",
		" +  zoom in map",
		" -  zoom out map",
		" 0  fit map to bodies",
		" w  toggle wrap",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled in the log view:",
		" up/down    scroll one line",
		" pgdown/pgup scroll a page",
	}
	return strings.Join(lines, "\n")
}
