// Package history keeps the bounded list of recent wallpapers.
package history

import (
	"iter"
	"slices"
	"time"

	"wallpaper/internal/domain"
)

// Capacity is the maximum number of entries the ledger keeps.
const Capacity = 10

// Entry is one recorded wallpaper. Entries are never mutated after Record.
type Entry struct {
	ID        string
	Result    domain.GenerationResult
	CreatedAt time.Time
}

// Ledger is a most-recent-first ring buffer. It is not safe for concurrent
// use; the orchestrator loop owns it.
type Ledger struct {
	buf  [Capacity]Entry
	head int // index of the most recent entry
	size int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record prepends entry, evicting the oldest one beyond Capacity.
func (l *Ledger) Record(entry Entry) {
	l.head = (l.head - 1 + Capacity) % Capacity
	l.buf[l.head] = entry
	if l.size < Capacity {
		l.size++
	}
}

// Len returns the number of entries held.
func (l *Ledger) Len() int {
	return l.size
}

// Entries yields the entries most recent first. The sequence reflects the
// ledger at the time each iteration starts and can be ranged over again.
func (l *Ledger) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		head, size := l.head, l.size
		for i := 0; i < size; i++ {
			if !yield(l.buf[(head+i)%Capacity]) {
				return
			}
		}
	}
}

// Snapshot copies the entries into a new slice.
func (l *Ledger) Snapshot() []Entry {
	return slices.Collect(l.Entries())
}

// Lookup finds an entry by ID.
func (l *Ledger) Lookup(id string) (Entry, bool) {
	for e := range l.Entries() {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
