package clock

import (
	"errors"
	"testing"
	"time"
)

type fakeWall struct{ t time.Time }

func (f *fakeWall) now() time.Time { return f.t }

func TestAdvanceFastClampsStep(t *testing.T) {
	wall := &fakeWall{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(WithNow(wall.now))
	if err := c.SetFast(2); err != nil {
		t.Fatalf("SetFast: %v", err)
	}
	for _, elapsed := range []time.Duration{0, 16 * time.Millisecond, 250 * time.Millisecond, 5 * time.Second, time.Hour} {
		before := c.Now()
		after := c.Advance(elapsed)
		step := elapsed
		if step > DefaultMaxStep {
			step = DefaultMaxStep
		}
		want := time.Duration(float64(step)/float64(time.Millisecond)*2*MsPerDay/1000) * time.Millisecond
		if got := after.Sub(before); got != want {
			t.Fatalf("advance(%s) moved %s, want %s", elapsed, got, want)
		}
	}
}

func TestAdvanceRealtimeTracksWallClock(t *testing.T) {
	wall := &fakeWall{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New(WithNow(wall.now))
	if err := c.SetFast(100); err != nil {
		t.Fatalf("SetFast: %v", err)
	}
	c.Advance(time.Second)
	c.JumpTo(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	c.SetRealtime()
	for i := 0; i < 3; i++ {
		wall.t = wall.t.Add(17 * time.Millisecond)
		if got := c.Advance(time.Hour); !got.Equal(wall.t) {
			t.Fatalf("advance %d = %v, want %v", i, got, wall.t)
		}
	}
}

func TestAdvanceFixedIsFrozen(t *testing.T) {
	c := New()
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c.JumpTo(at)
	if got := c.Advance(10 * time.Second); !got.Equal(at) {
		t.Fatalf("fixed advance = %v, want %v", got, at)
	}
	if st := c.State(); st.Mode != Fixed {
		t.Fatalf("mode = %s, want fixed", st.Mode)
	}
}

func TestJumpThenFast(t *testing.T) {
	c := New(WithMaxStep(time.Second))
	if _, err := c.JumpToString("2030-01-01T00:00:00Z"); err != nil {
		t.Fatalf("JumpToString: %v", err)
	}
	if err := c.SetFast(10); err != nil {
		t.Fatalf("SetFast: %v", err)
	}
	got := c.Advance(1000 * time.Millisecond)
	want := time.Date(2030, 1, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("sim time = %s, want %s", FormatTimestamp(got), FormatTimestamp(want))
	}
}

func TestJumpToStringInvalidKeepsState(t *testing.T) {
	c := New()
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c.JumpTo(at)
	before := c.State()
	if _, err := c.JumpToString("not-a-date"); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("err = %v, want ErrInvalidTimestamp", err)
	}
	if after := c.State(); after != before {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}
}

func TestSetFastRejectsInvalidRate(t *testing.T) {
	c := New()
	for _, r := range []float64{0, -1} {
		if err := c.SetFast(r); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("SetFast(%v) err = %v", r, err)
		}
	}
	if c.State().Mode != Realtime {
		t.Fatalf("mode changed on invalid rate")
	}
}

func TestResyncKeepsMode(t *testing.T) {
	wall := &fakeWall{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(WithNow(wall.now))
	c.JumpTo(time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Resync()
	st := c.State()
	if st.Mode != Fixed || !st.SimTime.Equal(wall.t) {
		t.Fatalf("after resync: %+v", st)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, s := range []string{"2030-01-01", "2030-01-01T00:00", "2030-01-01T00:00:00", "2030-01-01T00:00:00.000Z", "2030-01-01T01:00:00+01:00"} {
		got, err := ParseTimestamp(s)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", s, err)
		}
		if !got.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("ParseTimestamp(%q) = %v", s, got)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("FAST"); err != nil || m != Fast {
		t.Fatalf("ParseMode(FAST) = %v, %v", m, err)
	}
	if _, err := ParseMode("warp"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("ParseMode(warp) err = %v", err)
	}
}
