// Package history implements the append-only ledger of executed
// submissions and their outcomes.
package history

import (
	"time"

	"github.com/cruciblehq/crucible/internal/caps"
)

// Order controls list direction.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// Record is one executed submission and its outcome. Records are immutable
// once appended; the ledger copies on the way in and on the way out.
type Record struct {
	Seq       int           `json:"seq"`
	Source    string        `json:"source"`
	Success   bool          `json:"success"`
	Output    string        `json:"output"`
	Trace     string        `json:"trace,omitempty"`
	Figures   []caps.Figure `json:"figures,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (r Record) clone() Record {
	out := r
	if r.Figures != nil {
		out.Figures = make([]caps.Figure, len(r.Figures))
		copy(out.Figures, r.Figures)
	}
	return out
}

// Ledger is the time-ordered submission log for one session.
type Ledger struct {
	records []Record
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append adds a record, assigning the next sequence number and a timestamp
// if the record carries none. Append is the only mutation.
func (l *Ledger) Append(rec Record) Record {
	rec = rec.clone()
	if rec.Seq == 0 {
		rec.Seq = len(l.records) + 1
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	l.records = append(l.records, rec)
	return rec.clone()
}

// List returns copies of all records in the requested order.
func (l *Ledger) List(order Order) []Record {
	out := make([]Record, len(l.records))
	for i, rec := range l.records {
		if order == NewestFirst {
			out[len(l.records)-1-i] = rec.clone()
		} else {
			out[i] = rec.clone()
		}
	}
	return out
}

// Get returns the record with the given sequence number.
func (l *Ledger) Get(seq int) (Record, bool) {
	if seq < 1 || seq > len(l.records) {
		return Record{}, false
	}
	return l.records[seq-1].clone(), true
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Clear discards all records unconditionally.
func (l *Ledger) Clear() {
	l.records = nil
}
