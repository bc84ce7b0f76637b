package reminder

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashflowguard/reminders/internal/model"
)

type Message struct {
	Tone          model.Tone
	ClientName    string
	InvoiceNumber string
	Amount        decimal.Decimal
	DueDate       time.Time
	OverdueDays   int
}

type Composer struct {
	CurrencySymbol string
	DateLayout     string
}

func DefaultComposer() Composer {
	return Composer{CurrencySymbol: "₹", DateLayout: "2006-01-02"}
}

func Subject(invoiceNumber string) string {
	return "Payment reminder - Invoice " + invoiceNumber
}

// Compose renders the message for m.Tone. Unknown tones get the Escalation
// wording, matching the highest tier.
func (c Composer) Compose(m Message) string {
	client := m.ClientName
	if client == "" {
		client = "Client"
	}
	layout := c.DateLayout
	if layout == "" {
		layout = "2006-01-02"
	}
	amount := c.CurrencySymbol + m.Amount.String()
	due := m.DueDate.Format(layout)

	switch m.Tone {
	case model.Gentle:
		return fmt.Sprintf(`Hi %s,

Just a quick follow-up regarding invoice %s for %s, due on %s.

I wanted to confirm that everything is on track for payment. Please let me know if you need anything from my side to close this smoothly.

Thanks,
Regards`, client, m.InvoiceNumber, amount, due)

	case model.Firm:
		return fmt.Sprintf(`Hi %s,

I'm following up on invoice %s for %s, which was due on %s and is now overdue by %d days.

Could you please confirm the expected payment date? Having clarity here helps me plan work and timelines accurately.

Looking forward to your update.`, client, m.InvoiceNumber, amount, due, m.OverdueDays)

	default:
		return fmt.Sprintf(`Hi %s,

I'm reaching out again regarding invoice %s for %s, which was due on %s and remains unpaid after %d days.

At this point, I'll need a clear confirmation on the payment timeline so I can plan upcoming work around it.

Please treat this as a priority and share an update today so we can resolve this without further follow-ups.

Thank you.`, client, m.InvoiceNumber, amount, due, m.OverdueDays)
	}
}
