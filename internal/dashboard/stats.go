package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashflowguard/reminders/internal/model"
	"github.com/cashflowguard/reminders/internal/reminder"
)

type Stats struct {
	UnpaidCount       int             `json:"unpaidCount"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	LateCount         int             `json:"lateCount"`
	OverdueAmount     decimal.Decimal `json:"overdueAmount"`
	OldestOverdueDays int             `json:"oldestOverdueDays"`
	PaidThisMonth     decimal.Decimal `json:"paidThisMonth"`

	UnpaidInvoiceIDs  []string `json:"unpaidInvoiceIds"`
	OverdueInvoiceIDs []string `json:"overdueInvoiceIds"`
	PaidInvoiceIDs    []string `json:"paidInvoiceIds"`
}

// ComputeStats summarizes open balances and this month's payments. An
// invoice counts as late once it is at least minDaysLate days past due.
func ComputeStats(invoices []model.Invoice, payments []model.Payment, now time.Time, minDaysLate int) Stats {
	s := Stats{
		Outstanding:       decimal.Zero,
		OverdueAmount:     decimal.Zero,
		PaidThisMonth:     decimal.Zero,
		UnpaidInvoiceIDs:  []string{},
		OverdueInvoiceIDs: []string{},
		PaidInvoiceIDs:    []string{},
	}

	for _, inv := range invoices {
		if inv.Settled() {
			continue
		}
		s.UnpaidCount++
		s.Outstanding = s.Outstanding.Add(inv.Balance)
		s.UnpaidInvoiceIDs = append(s.UnpaidInvoiceIDs, inv.ID)

		overdue := reminder.DaysBetween(inv.DueDate, now)
		if overdue >= minDaysLate {
			s.LateCount++
			s.OverdueAmount = s.OverdueAmount.Add(inv.Balance)
			s.OverdueInvoiceIDs = append(s.OverdueInvoiceIDs, inv.ID)
			if overdue > s.OldestOverdueDays {
				s.OldestOverdueDays = overdue
			}
		}
	}

	y, m, _ := now.Date()
	for _, p := range payments {
		py, pm, _ := p.PaidOn.In(now.Location()).Date()
		if py != y || pm != m {
			continue
		}
		s.PaidThisMonth = s.PaidThisMonth.Add(p.Amount)
		if p.InvoiceID != "" {
			s.PaidInvoiceIDs = append(s.PaidInvoiceIDs, p.InvoiceID)
		}
	}

	return s
}
