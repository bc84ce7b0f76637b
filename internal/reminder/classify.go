// Package reminder decides whether an unpaid invoice should be chased, in
// which tone, whether the last reminder is still cooling down, and what the
// message says. Everything here is a pure function of its arguments,
// including the evaluation time.
package reminder

import (
	"time"

	"github.com/cashflowguard/reminders/internal/model"
	"github.com/cashflowguard/reminders/internal/rules"
)

const day = 24 * time.Hour

type Classification struct {
	OverdueDays int
	Eligible    bool
	Tone        model.Tone
}

func Classify(tbl rules.Table, inv model.Invoice, now time.Time) Classification {
	overdue := DaysBetween(inv.DueDate, now)
	if overdue < 0 {
		overdue = 0
	}

	return Classification{
		OverdueDays: overdue,
		Eligible:    !inv.Settled() && overdue >= tbl.MinDaysLate,
		Tone:        tbl.ToneFor(overdue),
	}
}

// DaysBetween returns the whole days elapsed from 'from' to 'to', rounded
// towards negative infinity.
func DaysBetween(from, to time.Time) int {
	d := to.Sub(from)
	q := d / day
	if d < 0 && d%day != 0 {
		q--
	}
	return int(q)
}
