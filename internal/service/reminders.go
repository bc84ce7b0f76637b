package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cashflowguard/reminders/internal/cache"
	"github.com/cashflowguard/reminders/internal/dashboard"
	"github.com/cashflowguard/reminders/internal/dispatch"
	"github.com/cashflowguard/reminders/internal/model"
	"github.com/cashflowguard/reminders/internal/reminder"
	"github.com/cashflowguard/reminders/internal/repo"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ch dispatch.Channel) (dispatch.Outcome, error)
}

type Stores struct {
	Invoices repo.InvoiceSource
	History  repo.ReminderHistory
	Payments repo.PaymentSource
}

type Reminders struct {
	engine     *reminder.Engine
	stores     Stores
	dispatcher Dispatcher
	guard      cache.SendGuard

	onSent   func(ctx context.Context, ev model.ReminderEvent, out dispatch.Outcome)
	onFailed func(ctx context.Context, invoiceID string, err error)
}

func NewReminders(engine *reminder.Engine, stores Stores, d Dispatcher, guard cache.SendGuard) *Reminders {
	return &Reminders{
		engine:     engine,
		stores:     stores,
		dispatcher: d,
		guard:      guard,
	}
}

func (s *Reminders) WithHooks(
	onSent func(ctx context.Context, ev model.ReminderEvent, out dispatch.Outcome),
	onFailed func(ctx context.Context, invoiceID string, err error),
) *Reminders {
	s.onSent = onSent
	s.onFailed = onFailed
	return s
}

// Suggestions evaluates every open invoice against the full reminder history.
func (s *Reminders) Suggestions(ctx context.Context, now time.Time) ([]reminder.Suggestion, error) {
	invoices, err := s.stores.Invoices.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	history, err := s.stores.History.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reminder history: %w", err)
	}
	return s.engine.Suggestions(invoices, history, now), nil
}

func (s *Reminders) Preview(ctx context.Context, invoiceID string, now time.Time) (reminder.Suggestion, error) {
	inv, err := s.stores.Invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return reminder.Suggestion{}, err
	}
	history, err := s.stores.History.ListForInvoice(ctx, invoiceID)
	if err != nil {
		return reminder.Suggestion{}, fmt.Errorf("list reminder history: %w", err)
	}
	return s.engine.Suggest(inv, history, now), nil
}

type SendRequest struct {
	InvoiceID string
	Channel   model.Channel
}

type SendResult struct {
	Event   model.ReminderEvent `json:"event"`
	Outcome dispatch.Outcome    `json:"outcome"`
}

// Send re-evaluates the invoice, dispatches the composed message and, only
// when dispatch succeeds, appends the reminder event to history. The send
// guard is held from the history read through the append, so a concurrent
// request either sees the new event or is refused as in flight.
func (s *Reminders) Send(ctx context.Context, req SendRequest, now time.Time) (SendResult, error) {
	key := cache.SendKey(req.InvoiceID)
	token, ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return SendResult{}, fmt.Errorf("acquire send guard: %w", err)
	}
	if !ok {
		return SendResult{}, ErrSendInFlight
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
			slog.Warn("failed to release send guard", "key", key, "error", err)
		}
	}()

	sug, err := s.Preview(ctx, req.InvoiceID, now)
	if err != nil {
		return SendResult{}, err
	}

	d := sug.Decision
	if !d.Eligible {
		return SendResult{}, fmt.Errorf("invoice %s: %w", req.InvoiceID, ErrNotEligible)
	}
	if !d.Allowed {
		ce := &CooldownError{Remaining: d.CooldownDaysRemaining}
		if d.LastSentAt != nil {
			ce.LastSentAt = *d.LastSentAt
		}
		return SendResult{}, ce
	}

	ch, err := channelFor(req.Channel, sug)
	if err != nil {
		return SendResult{}, err
	}

	out, err := s.dispatcher.Dispatch(ctx, ch)
	if err != nil {
		s.fail(ctx, req.InvoiceID, err)
		return SendResult{}, err
	}

	ev := model.ReminderEvent{
		ID:        uuid.NewString(),
		InvoiceID: sug.Invoice.ID,
		Tone:      d.Tone,
		Channel:   ch.Name(),
		Message:   sug.Message,
		SentAt:    now.UTC(),
		State:     model.Sent,
	}
	if err := s.stores.History.Append(ctx, ev); err != nil {
		err = fmt.Errorf("record reminder: %w", err)
		s.fail(ctx, req.InvoiceID, err)
		return SendResult{Outcome: out}, err
	}

	slog.Info("reminder sent",
		"invoice_id", ev.InvoiceID,
		"tone", ev.Tone,
		"channel", ev.Channel,
		"mode", out.Mode,
	)
	if s.onSent != nil {
		s.onSent(ctx, ev, out)
	}
	return SendResult{Event: ev, Outcome: out}, nil
}

func channelFor(c model.Channel, sug reminder.Suggestion) (dispatch.Channel, error) {
	switch c {
	case model.ChannelManual:
		return dispatch.Manual{}, nil
	case model.ChannelEmail:
		return dispatch.Email{
			To:      sug.Invoice.ClientEmail,
			Subject: sug.Subject,
			Message: sug.Message,
		}, nil
	case model.ChannelWhatsApp:
		return dispatch.WhatsApp{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownChannel, c)
	}
}

func (s *Reminders) fail(ctx context.Context, invoiceID string, err error) {
	slog.Warn("reminder not sent", "invoice_id", invoiceID, "error", err)
	if s.onFailed != nil {
		s.onFailed(ctx, invoiceID, err)
	}
}

func (s *Reminders) History(ctx context.Context, f repo.HistoryFilter) ([]model.ReminderEvent, error) {
	return s.stores.History.ListSent(ctx, f)
}

func (s *Reminders) Stats(ctx context.Context, now time.Time) (dashboard.Stats, error) {
	invoices, err := s.stores.Invoices.ListInvoices(ctx)
	if err != nil {
		return dashboard.Stats{}, fmt.Errorf("list invoices: %w", err)
	}
	payments, err := s.stores.Payments.ListPayments(ctx)
	if err != nil {
		return dashboard.Stats{}, fmt.Errorf("list payments: %w", err)
	}
	return dashboard.ComputeStats(invoices, payments, now, s.engine.Rules().MinDaysLate), nil
}

// AlertTick returns a scheduler job that logs how many reminders are ready
// to send at each pass.
func (s *Reminders) AlertTick(clock func() time.Time) func(context.Context) error {
	return func(ctx context.Context) error {
		all, err := s.Suggestions(ctx, clock())
		if err != nil {
			return err
		}
		ready := reminder.Sendable(all)
		if len(ready) == 0 {
			slog.Info("no reminders due")
			return nil
		}
		for _, r := range ready {
			slog.Info("reminder due",
				"invoice_id", r.Invoice.ID,
				"invoice_number", r.Invoice.Number,
				"client", r.Invoice.ClientName,
				"tone", r.Decision.Tone,
				"overdue_days", r.Decision.OverdueDays,
			)
		}
		slog.Info("reminder alerts", "due", len(ready), "open", len(all))
		return nil
	}
}
