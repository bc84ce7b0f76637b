package reminder

import (
	"sort"
	"time"

	"github.com/cashflowguard/reminders/internal/model"
	"github.com/cashflowguard/reminders/internal/rules"
)

// Engine is the single place decisions are made; the dashboard, the invoice
// preview, the send path and the alert sweep all go through it.
type Engine struct {
	rules    rules.Table
	composer Composer
}

func NewEngine(tbl rules.Table, c Composer) *Engine {
	return &Engine{rules: tbl, composer: c}
}

func (e *Engine) Rules() rules.Table {
	return e.rules
}

type Suggestion struct {
	Invoice  model.Invoice  `json:"invoice"`
	Decision model.Decision `json:"decision"`
	Subject  string         `json:"subject"`
	Message  string         `json:"message"`
}

func (e *Engine) Decide(inv model.Invoice, history []model.ReminderEvent, now time.Time) model.Decision {
	c := Classify(e.rules, inv, now)
	cd := EvaluateCooldown(e.rules, history, now)

	return model.Decision{
		OverdueDays:           c.OverdueDays,
		Tone:                  c.Tone,
		Eligible:              c.Eligible,
		Allowed:               cd.Allowed,
		CooldownDaysRemaining: cd.CooldownDaysRemaining,
		LastSentAt:            cd.LastSentAt,
	}
}

func (e *Engine) Suggest(inv model.Invoice, history []model.ReminderEvent, now time.Time) Suggestion {
	d := e.Decide(inv, history, now)

	return Suggestion{
		Invoice:  inv,
		Decision: d,
		Subject:  Subject(inv.Number),
		Message: e.composer.Compose(Message{
			Tone:          d.Tone,
			ClientName:    inv.ClientName,
			InvoiceNumber: inv.Number,
			Amount:        inv.Balance,
			DueDate:       inv.DueDate,
			OverdueDays:   d.OverdueDays,
		}),
	}
}

// Suggestions evaluates every open invoice that is overdue or due within the
// upcoming window. history may cover many invoices; it is grouped by InvoiceID.
// Results are ordered most overdue first.
func (e *Engine) Suggestions(invoices []model.Invoice, history []model.ReminderEvent, now time.Time) []Suggestion {
	byInvoice := make(map[string][]model.ReminderEvent)
	for _, ev := range history {
		byInvoice[ev.InvoiceID] = append(byInvoice[ev.InvoiceID], ev)
	}

	out := make([]Suggestion, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Settled() {
			continue
		}
		if DaysBetween(now, inv.DueDate) > e.rules.UpcomingWindowDays {
			continue
		}
		out = append(out, e.Suggest(inv, byInvoice[inv.ID], now))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Decision.OverdueDays != out[j].Decision.OverdueDays {
			return out[i].Decision.OverdueDays > out[j].Decision.OverdueDays
		}
		return out[i].Invoice.Number < out[j].Invoice.Number
	})
	return out
}

// Sendable keeps only suggestions that may be sent right now.
func Sendable(in []Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		if s.Decision.Sendable() {
			out = append(out, s)
		}
	}
	return out
}
