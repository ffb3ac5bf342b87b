package mayor

import (
	"fmt"
	"strings"
	"sync"
)

const (
	maxFailures    = 20
	promptFailures = 5 // how many recent failures to include in the prompt
)

// Failure records a rejected mayor action so the next prompt can warn the
// model off repeating it. Placement failures carry the tile they targeted
// so the coordinate can be suppressed until the record evicts.
type Failure struct {
	Tick      uint64
	Action    string
	Detail    string
	Placement bool
	X, Y      int
}

// FailureMemory is a bounded FIFO of recent rejections. Only failures are
// remembered: accepted actions show up in the event feed already.
type FailureMemory struct {
	mu       sync.Mutex
	failures []Failure
}

// NewFailureMemory returns an empty failure memory.
func NewFailureMemory() *FailureMemory {
	return &FailureMemory{}
}

// Record adds a failure, trimming to maxFailures.
func (m *FailureMemory) Record(f Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, f)
	if len(m.failures) > maxFailures {
		m.failures = m.failures[len(m.failures)-maxFailures:]
	}
}

// Blocked reports whether (x, y) belongs to a remembered placement
// failure. The tile frees up again once the FIFO evicts the record.
func (m *FailureMemory) Blocked(x, y int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.failures {
		if f.Placement && f.X == x && f.Y == y {
			return true
		}
	}
	return false
}

// Len returns the number of stored failures.
func (m *FailureMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.failures)
}

// FormatForPrompt returns a section summarizing the last few failures for
// inclusion in the decision prompt, or "" when there are none.
func (m *FailureMemory) FormatForPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Recent Failures (do not repeat these)\n")
	start := 0
	if len(m.failures) > promptFailures {
		start = len(m.failures) - promptFailures
	}
	for _, f := range m.failures[start:] {
		fmt.Fprintf(&b, "- Day %d: %s rejected: %s\n", f.Tick, f.Action, f.Detail)
	}
	return b.String()
}
