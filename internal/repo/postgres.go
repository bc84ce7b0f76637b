package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cashflowguard/reminders/internal/model"
)

//go:embed schema.sql
var schema string

type PostgresRepo struct {
	db *sql.DB
}

var (
	_ InvoiceSource   = (*PostgresRepo)(nil)
	_ ReminderHistory = (*PostgresRepo)(nil)
	_ PaymentSource   = (*PostgresRepo)(nil)
)

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

const invoiceColumns = `
	SELECT i.invoice_id, i.invoice_number, i.client_id, c.client_name, c.email, i.balance, i.due_date
	FROM invoice i
	LEFT JOIN clients c ON c.client_id = i.client_id
`

func (r *PostgresRepo) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, invoiceColumns+` ORDER BY i.due_date ASC, i.invoice_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetInvoice(ctx context.Context, id string) (model.Invoice, error) {
	row := r.db.QueryRowContext(ctx, invoiceColumns+` WHERE i.invoice_id = $1`, id)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Invoice{}, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return inv, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s scanner) (model.Invoice, error) {
	var (
		inv      model.Invoice
		clientID sql.NullString
		name     sql.NullString
		email    sql.NullString
		balance  decimal.NullDecimal
	)
	if err := s.Scan(&inv.ID, &inv.Number, &clientID, &name, &email, &balance, &inv.DueDate); err != nil {
		return model.Invoice{}, err
	}
	inv.ClientID = clientID.String
	inv.ClientName = name.String
	inv.ClientEmail = strings.TrimSpace(email.String)
	if balance.Valid {
		inv.Balance = balance.Decimal
	}
	return inv, nil
}

func (r *PostgresRepo) ListForInvoice(ctx context.Context, invoiceID string) ([]model.ReminderEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_id, tone, channel, message, sent_at, state
		FROM invoice_reminders
		WHERE invoice_id = $1 AND state = 'sent'
		ORDER BY sent_at DESC
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReminderEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListAll(ctx context.Context) ([]model.ReminderEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_id, tone, channel, message, sent_at, state
		FROM invoice_reminders
		WHERE state = 'sent'
		ORDER BY sent_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReminderEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// scanEvent leaves SentAt zero when the stored timestamp is missing, which
// the cooldown evaluator treats as no prior reminder.
func scanEvent(s scanner, extra ...any) (model.ReminderEvent, error) {
	var (
		ev      model.ReminderEvent
		tone    string
		channel string
		state   string
		sentAt  sql.NullTime
	)
	dest := append([]any{&ev.ID, &ev.InvoiceID, &tone, &channel, &ev.Message, &sentAt, &state}, extra...)
	if err := s.Scan(dest...); err != nil {
		return model.ReminderEvent{}, err
	}
	ev.Tone = model.Tone(tone)
	ev.Channel = model.Channel(channel)
	ev.State = model.State(state)
	if sentAt.Valid {
		ev.SentAt = sentAt.Time
	}
	return ev, nil
}

func (r *PostgresRepo) ListSent(ctx context.Context, f HistoryFilter) ([]model.ReminderEvent, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var (
		where = []string{"r.state = 'sent'"}
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ClientName != "" {
		add("c.client_name = $%d", f.ClientName)
	}
	if f.Tone != "" {
		add("r.tone = $%d", string(f.Tone))
	}
	if !f.From.IsZero() {
		add("r.sent_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("r.sent_at < $%d", f.To.AddDate(0, 0, 1))
	}
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT r.id, r.invoice_id, r.tone, r.channel, r.message, r.sent_at, r.state,
		       i.invoice_number, c.client_name
		FROM invoice_reminders r
		JOIN invoice i ON i.invoice_id = r.invoice_id
		LEFT JOIN clients c ON c.client_id = i.client_id
		WHERE %s
		ORDER BY r.sent_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReminderEvent
	for rows.Next() {
		var number, client sql.NullString
		ev, err := scanEvent(rows, &number, &client)
		if err != nil {
			return nil, err
		}
		ev.InvoiceNumber = number.String
		ev.ClientName = client.String
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Append(ctx context.Context, ev model.ReminderEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoice_reminders (id, invoice_id, tone, channel, message, sent_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.ID, ev.InvoiceID, string(ev.Tone), string(ev.Channel), ev.Message, ev.SentAt.UTC(), string(ev.State))
	return err
}

func (r *PostgresRepo) ListPayments(ctx context.Context) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT invoice_id, amount_paid, payment_date
		FROM payment
		ORDER BY payment_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var (
			p         model.Payment
			invoiceID sql.NullString
		)
		if err := rows.Scan(&invoiceID, &p.Amount, &p.PaidOn); err != nil {
			return nil, err
		}
		p.InvoiceID = invoiceID.String
		out = append(out, p)
	}
	return out, rows.Err()
}
