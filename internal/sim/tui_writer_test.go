package sim

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"solarview/internal/config"
	"solarview/internal/scene"
	"solarview/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

type fakeControls struct {
	calls []string
	err   error
}

func (c *fakeControls) SetRealtime() { c.calls = append(c.calls, "realtime") }
func (c *fakeControls) SetFast(rate float64) error {
	c.calls = append(c.calls, fmt.Sprintf("fast:%g", rate))
	return c.err
}
func (c *fakeControls) JumpTo(ts string) (time.Time, error) {
	c.calls = append(c.calls, "jump:"+ts)
	return time.Time{}, c.err
}
func (c *fakeControls) Refresh()           { c.calls = append(c.calls, "refresh") }
func (c *fakeControls) State() ViewerState { return ViewerState{} }

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p}
	if err := w.WritePlacements(sampleFrame(1, time.Unix(0, 0).UTC())); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := p.msgs[0].(frameMsg); !ok {
		t.Fatalf("expected frameMsg, got %T", p.msgs[0])
	}
	w.SetAdminStatus(true)
	if _, ok := p.msgs[1].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[1])
	}
	w.Logf("hello %d", 1)
	if lm, ok := p.msgs[2].(logMsg); !ok || lm.line != "hello 1" {
		t.Fatalf("expected logMsg, got %#v", p.msgs[2])
	}
	w.SetControls(&fakeControls{})
	if _, ok := p.msgs[3].(setControlsMsg); !ok {
		t.Fatalf("expected setControlsMsg, got %T", p.msgs[3])
	}
	frames := []telemetry.PlacementFrame{sampleFrame(1, time.Now()), sampleFrame(9, time.Now())}
	if err := w.WriteFrames(frames); err != nil {
		t.Fatal(err)
	}
	if fm := p.msgs[4].(frameMsg); fm.SnapshotSeq != 9 || len(p.msgs) != 5 {
		t.Fatalf("WriteFrames should send only the newest frame")
	}
}

func sendKey(t *testing.T, m tuiModel, key string) (tuiModel, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	mi, cmd := m.Update(msg)
	return mi.(tuiModel), cmd
}

func runCmd(t *testing.T, m tuiModel, cmd tea.Cmd) tuiModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	mi, _ := m.Update(cmd())
	return mi.(tuiModel)
}

func TestControlKeys(t *testing.T) {
	m := newTUIModel(config.Default())
	fc := &fakeControls{}
	mi, _ := m.Update(setControlsMsg{c: fc})
	m = mi.(tuiModel)
	mi, _ = m.Update(frameMsg{sampleFrame(1, time.Unix(0, 0).UTC())})
	m = mi.(tuiModel)

	var cmd tea.Cmd
	m, cmd = sendKey(t, m, "r")
	m = runCmd(t, m, cmd)
	m, cmd = sendKey(t, m, "g")
	m = runCmd(t, m, cmd)
	m, cmd = sendKey(t, m, "]")
	m = runCmd(t, m, cmd)

	want := []string{"realtime", "refresh", "fast:20"}
	if strings.Join(fc.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v", fc.calls)
	}
	last := m.logs[len(m.logs)-1]
	if !strings.Contains(last, "CONTROL") || !strings.Contains(last, "fast 20 d/s") {
		t.Fatalf("last log = %q", last)
	}
}

func TestJumpDialog(t *testing.T) {
	m := newTUIModel(config.Default())
	fc := &fakeControls{err: errors.New("bad timestamp")}
	mi, _ := m.Update(setControlsMsg{c: fc})
	m = mi.(tuiModel)

	m, _ = sendKey(t, m, "j")
	if !m.jumpDialog {
		t.Fatal("jump dialog not opened")
	}
	m, _ = sendKey(t, m, "2031-06-01")
	m, cmd := sendKey(t, m, "enter")
	if m.jumpDialog {
		t.Fatal("dialog still open after enter")
	}
	m = runCmd(t, m, cmd)
	if len(fc.calls) != 1 || fc.calls[0] != "jump:2031-06-01" {
		t.Fatalf("calls = %v", fc.calls)
	}
	if last := m.logs[len(m.logs)-1]; !strings.Contains(last, "failed: bad timestamp") {
		t.Fatalf("last log = %q", last)
	}

	m, _ = sendKey(t, m, "j")
	m, cmd = sendKey(t, m, "esc")
	if m.jumpDialog || cmd != nil {
		t.Fatal("esc should close the dialog without a command")
	}
}

func TestRateDialogRejectsGarbage(t *testing.T) {
	m := newTUIModel(config.Default())
	m, _ = sendKey(t, m, "F")
	if !m.rateDialog {
		t.Fatal("rate dialog not opened")
	}
	m.rateInput.SetValue("fast")
	m, cmd := sendKey(t, m, "enter")
	if cmd != nil {
		t.Fatal("no command expected for an invalid rate")
	}
	if last := m.logs[len(m.logs)-1]; !strings.Contains(last, "invalid rate") {
		t.Fatalf("last log = %q", last)
	}
}

func TestControlsNotReady(t *testing.T) {
	m := newTUIModel(config.Default())
	m, cmd := sendKey(t, m, "r")
	m = runCmd(t, m, cmd)
	if last := m.logs[len(m.logs)-1]; !strings.Contains(last, "controls not ready") {
		t.Fatalf("last log = %q", last)
	}
}

func TestApplyFrameLogsSnapshotAndStatusChanges(t *testing.T) {
	m := newTUIModel(config.Default())
	ts := time.Unix(0, 0).UTC()
	for _, f := range []telemetry.PlacementFrame{sampleFrame(1, ts), sampleFrame(1, ts), sampleFrame(2, ts)} {
		mi, _ := m.Update(frameMsg{f})
		m = mi.(tuiModel)
	}
	f := sampleFrame(2, ts)
	f.Status = "position service unavailable: boom"
	mi, _ := m.Update(frameMsg{f})
	m = mi.(tuiModel)

	var snaps, statuses int
	for _, l := range m.logs {
		if strings.Contains(l, "SNAPSHOT") {
			snaps++
		}
		if strings.Contains(l, "STATUS") {
			statuses++
		}
	}
	if snaps != 2 || statuses != 1 {
		t.Fatalf("snapshot logs=%d status logs=%d", snaps, statuses)
	}
	if rows := m.table.Rows(); len(rows) != 2 || rows[1][0] != "earth" {
		t.Fatalf("table rows = %v", rows)
	}
}

func TestWrapToggle(t *testing.T) {
	m := newTUIModel(config.Default())
	m, _ = sendKey(t, m, "m")
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 40})
	m = mi.(tuiModel)
	mi, _ = m.Update(logMsg{line: "one two three four five six"})
	m = mi.(tuiModel)
	if n := m.vp.TotalLineCount(); n != 1 {
		t.Fatalf("expected a single line before wrap, got %d", n)
	}
	m, _ = sendKey(t, m, "w")
	if !m.wrap {
		t.Fatal("wrap not toggled")
	}
	if n := m.vp.TotalLineCount(); n < 2 {
		t.Fatalf("expected wrapped content, got %d lines", n)
	}
}

func TestScrollToggle(t *testing.T) {
	m := newTUIModel(config.Default())
	m, _ = sendKey(t, m, "m")
	m.vp.Height = 1
	m.vp.Width = 20
	for _, l := range []string{"l1", "l2"} {
		mi, _ := m.Update(logMsg{line: l})
		m = mi.(tuiModel)
	}
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	m, _ = sendKey(t, m, "s")
	if m.autoscroll {
		t.Fatal("autoscroll should be off")
	}
	mi, _ := m.Update(logMsg{line: "l3"})
	m = mi.(tuiModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = mi.(tuiModel)
	if m.vp.YOffset != 0 {
		t.Fatalf("expected YOffset 0 after scrolling up, got %d", m.vp.YOffset)
	}
	m, _ = sendKey(t, m, "s")
	if !m.autoscroll || m.vp.YOffset != len(m.logs)-m.vp.Height {
		t.Fatalf("autoscroll on should jump to bottom, offset %d", m.vp.YOffset)
	}
}

func TestMapZoom(t *testing.T) {
	m := newTUIModel(config.Default())
	mi, _ := m.Update(frameMsg{sampleFrame(1, time.Unix(0, 0).UTC())})
	m = mi.(tuiModel)
	m, _ = sendKey(t, m, "-")
	if want := autoSpan(m.frame.Placements) * 1.25; m.mapSpan != want {
		t.Fatalf("span = %v, want %v", m.mapSpan, want)
	}
	m, _ = sendKey(t, m, "0")
	if m.mapSpan != 0 {
		t.Fatalf("span not reset: %v", m.mapSpan)
	}
}

func TestAssignSymbols(t *testing.T) {
	got := assignSymbols(config.Default().BodyIDs())
	want := map[string]string{
		"sun": "S", "mercury": "M", "venus": "V", "earth": "E", "mars": "m",
		"jupiter": "J", "saturn": "s", "uranus": "U", "neptune": "N",
	}
	for id, sym := range want {
		if got[id] != sym {
			t.Fatalf("%s = %q, want %q", id, got[id], sym)
		}
	}
}

func TestRenderMap(t *testing.T) {
	placements := []scene.Placement{
		{Body: "sun", Central: true},
		{Body: "earth", Position: scene.Vec3{X: 10}},
	}
	out := renderMap(placements, map[string]string{"earth": "E"}, nil, 41, 21, 0)
	if !strings.Contains(out, "@") || !strings.Contains(out, "E") {
		t.Fatalf("map missing glyphs:\n%s", out)
	}
	if !strings.Contains(out, "span ±11.0 units") {
		t.Fatalf("map footer missing:\n%s", out)
	}
	if got := renderMap(nil, nil, nil, 40, 20, 0); got != "No position data" {
		t.Fatalf("empty map = %q", got)
	}
}
