package reminder

import (
	"time"

	"github.com/cashflowguard/reminders/internal/model"
	"github.com/cashflowguard/reminders/internal/rules"
)

type Cooldown struct {
	Allowed               bool
	CooldownDaysRemaining int
	LastSentAt            *time.Time
}

// EvaluateCooldown looks at the most recent event in history. Events with a
// zero SentAt carry no usable time and are skipped.
func EvaluateCooldown(tbl rules.Table, history []model.ReminderEvent, now time.Time) Cooldown {
	last, ok := latest(history)
	if !ok {
		return Cooldown{Allowed: true}
	}

	sentAt := last.SentAt
	out := Cooldown{Allowed: true, LastSentAt: &sentAt}

	since := DaysBetween(sentAt, now)
	if since < 0 {
		since = 0
	}

	window := tbl.CooldownFor(last.Tone)
	if since < window {
		out.Allowed = false
		out.CooldownDaysRemaining = window - since
	}
	return out
}

func latest(history []model.ReminderEvent) (model.ReminderEvent, bool) {
	var (
		best  model.ReminderEvent
		found bool
	)
	for _, ev := range history {
		if ev.SentAt.IsZero() {
			continue
		}
		if !found || ev.SentAt.After(best.SentAt) {
			best = ev
			found = true
		}
	}
	return best, found
}
