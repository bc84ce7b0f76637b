package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID          string          `json:"invoiceId"`
	Number      string          `json:"invoiceNumber"`
	ClientID    string          `json:"clientId"`
	ClientName  string          `json:"clientName"`
	ClientEmail string          `json:"clientEmail,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	DueDate     time.Time       `json:"dueDate"`
}

// Settled reports whether nothing is left to collect on the invoice.
func (i Invoice) Settled() bool {
	return !i.Balance.IsPositive()
}

type Payment struct {
	InvoiceID string          `json:"invoiceId"`
	Amount    decimal.Decimal `json:"amount"`
	PaidOn    time.Time       `json:"paidOn"`
}
