package fetcher

import "time"

// Gate enforces a minimum interval between issuances. It is not safe for
// concurrent use; Fetcher guards it with its mutex.
type Gate struct {
	MinInterval time.Duration

	last   time.Time
	issued bool
}

// Open reports whether an issuance at now would be allowed.
func (g *Gate) Open(now time.Time) bool {
	if !g.issued {
		return true
	}
	return now.Sub(g.last) >= g.MinInterval
}

// TryIssue records an issuance at now if the gate is open.
func (g *Gate) TryIssue(now time.Time) bool {
	if !g.Open(now) {
		return false
	}
	g.last = now
	g.issued = true
	return true
}

// LastIssued returns the time of the previous issuance.
func (g *Gate) LastIssued() (time.Time, bool) {
	return g.last, g.issued
}
