package dashboard

import (
	"time"

	"github.com/cashflowguard/reminders/internal/model"
	"github.com/cashflowguard/reminders/internal/reminder"
)

type Risk string

const (
	RiskPaid      Risk = "Paid"
	RiskOverdue   Risk = "Overdue"
	RiskCritical  Risk = "Critical"
	RiskWarning   Risk = "Warning"
	RiskUpcoming  Risk = "Upcoming"
	RiskScheduled Risk = "Scheduled"
)

// RiskFor labels an invoice by how close its due date is. Days left are
// rounded up, so anything due later today still counts as not yet overdue.
func RiskFor(inv model.Invoice, now time.Time) Risk {
	if inv.Settled() {
		return RiskPaid
	}

	left := -reminder.DaysBetween(inv.DueDate, now)
	switch {
	case left < 0:
		return RiskOverdue
	case left <= 3:
		return RiskCritical
	case left <= 7:
		return RiskWarning
	case left <= 14:
		return RiskUpcoming
	default:
		return RiskScheduled
	}
}
