package repo

import (
	"context"
	"errors"
	"time"

	"github.com/cashflowguard/reminders/internal/model"
)

var ErrNotFound = errors.New("not found")

type InvoiceSource interface {
	ListInvoices(ctx context.Context) ([]model.Invoice, error)
	GetInvoice(ctx context.Context, id string) (model.Invoice, error)
}

// ReminderHistory is append-only: events are never updated or deleted here.
type ReminderHistory interface {
	ListForInvoice(ctx context.Context, invoiceID string) ([]model.ReminderEvent, error)
	ListAll(ctx context.Context) ([]model.ReminderEvent, error)
	ListSent(ctx context.Context, f HistoryFilter) ([]model.ReminderEvent, error)
	Append(ctx context.Context, ev model.ReminderEvent) error
}

type PaymentSource interface {
	ListPayments(ctx context.Context) ([]model.Payment, error)
}

// HistoryFilter narrows the sent-reminder log. From and To are calendar
// dates, both inclusive; zero values are ignored.
type HistoryFilter struct {
	ClientName string
	Tone       model.Tone
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
