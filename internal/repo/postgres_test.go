package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashflowguard/reminders/internal/model"
)

var invoiceCols = []string{"invoice_id", "invoice_number", "client_id", "client_name", "email", "balance", "due_date"}

var eventCols = []string{"id", "invoice_id", "tone", "channel", "message", "sent_at", "state"}

func newMock(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresRepo(db), mock
}

func TestListInvoices(t *testing.T) {
	r, mock := newMock(t)
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM invoice i\s+LEFT JOIN clients c`).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow("inv-1", "INV-001", "cl-1", "Asha", " asha@example.com ", "5000.00", due).
			AddRow("inv-2", "INV-002", nil, nil, nil, "0", due))

	got, err := r.ListInvoices(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Asha", got[0].ClientName)
	assert.Equal(t, "asha@example.com", got[0].ClientEmail)
	assert.True(t, got[0].Balance.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, due, got[0].DueDate)

	assert.Empty(t, got[1].ClientName)
	assert.Empty(t, got[1].ClientEmail)
	assert.True(t, got[1].Settled())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInvoice(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE i.invoice_id = \$1`).
					WithArgs("inv-1").
					WillReturnRows(sqlmock.NewRows(invoiceCols).
						AddRow("inv-1", "INV-001", "cl-1", "Asha", "asha@example.com", "120.50", time.Now()))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE i.invoice_id = \$1`).
					WithArgs("inv-1").
					WillReturnRows(sqlmock.NewRows(invoiceCols))
			},
			wantErr: ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE i.invoice_id = \$1`).
					WithArgs("inv-1").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := newMock(t)
			tt.setupMock(mock)

			inv, err := r.GetInvoice(context.Background(), "inv-1")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "INV-001", inv.Number)
				assert.Equal(t, "120.5", inv.Balance.String())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListForInvoice_NullSentAtBecomesZero(t *testing.T) {
	r, mock := newMock(t)
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM invoice_reminders\s+WHERE invoice_id = \$1 AND state = 'sent'`).
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("e1", "inv-1", "Firm", "email", "hello", sentAt, "sent").
			AddRow("e2", "inv-1", "Gentle", "manual", "hi", nil, "sent"))

	got, err := r.ListForInvoice(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.Firm, got[0].Tone)
	assert.Equal(t, model.ChannelEmail, got[0].Channel)
	assert.Equal(t, model.Sent, got[0].State)
	assert.True(t, got[0].SentAt.Equal(sentAt))
	assert.True(t, got[1].SentAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll(t *testing.T) {
	r, mock := newMock(t)

	mock.ExpectQuery(`FROM invoice_reminders\s+WHERE state = 'sent'`).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("e1", "inv-1", "Firm", "email", "hello", time.Now(), "sent").
			AddRow("e2", "inv-2", "Gentle", "manual", "hi", time.Now(), "sent"))

	got, err := r.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSent_Filters(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter HistoryFilter
		query  string
		args   []any
	}{
		{
			name:   "defaults",
			filter: HistoryFilter{},
			query:  `WHERE r.state = 'sent'\s+ORDER BY r.sent_at DESC\s+LIMIT \$1 OFFSET \$2`,
			args:   []any{50, 0},
		},
		{
			name:   "all filters",
			filter: HistoryFilter{ClientName: "Asha", Tone: model.Firm, From: from, To: to, Limit: 10, Offset: 20},
			query:  `WHERE r.state = 'sent' AND c.client_name = \$1 AND r.tone = \$2 AND r.sent_at >= \$3 AND r.sent_at < \$4\s+ORDER BY r.sent_at DESC\s+LIMIT \$5 OFFSET \$6`,
			args:   []any{"Asha", "Firm", from, to.AddDate(0, 0, 1), 10, 20},
		},
		{
			name:   "negative offset",
			filter: HistoryFilter{Tone: model.Gentle, Offset: -4},
			query:  `AND r.tone = \$1\s+ORDER BY r.sent_at DESC\s+LIMIT \$2 OFFSET \$3`,
			args:   []any{"Gentle", 50, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := newMock(t)

			args := make([]driver.Value, 0, len(tt.args))
			for _, a := range tt.args {
				args = append(args, a)
			}

			mock.ExpectQuery(tt.query).
				WithArgs(args...).
				WillReturnRows(sqlmock.NewRows(append(eventCols, "invoice_number", "client_name")).
					AddRow("e1", "inv-1", "Firm", "email", "hello", time.Now(), "sent", "INV-001", "Asha"))

			got, err := r.ListSent(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "INV-001", got[0].InvoiceNumber)
			assert.Equal(t, "Asha", got[0].ClientName)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAppend(t *testing.T) {
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ev := model.ReminderEvent{
		ID:        "5f0c1a9e-7c1d-4a63-9a35-1b1b7a0f3c11",
		InvoiceID: "inv-1",
		Tone:      model.Escalation,
		Channel:   model.ChannelManual,
		Message:   "Hi",
		SentAt:    sentAt,
		State:     model.Sent,
	}

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name: "inserted",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO invoice_reminders`).
					WithArgs(ev.ID, "inv-1", "Escalation", "manual", "Hi", sentAt, "sent").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO invoice_reminders`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := newMock(t)
			tt.setupMock(mock)

			err := r.Append(context.Background(), ev)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListPayments(t *testing.T) {
	r, mock := newMock(t)
	paid := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM payment`).
		WillReturnRows(sqlmock.NewRows([]string{"invoice_id", "amount_paid", "payment_date"}).
			AddRow("inv-1", "250.00", paid).
			AddRow(nil, "10", paid))

	got, err := r.ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "inv-1", got[0].InvoiceID)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(250)))
	assert.Empty(t, got[1].InvoiceID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	r, mock := newMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS invoice_reminders`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
