// Package rules holds the reminder policy: when an invoice is late enough to
// chase, which tone applies at each stage, and how long to wait between
// reminders.
package rules

import (
	"errors"
	"fmt"

	"github.com/cashflowguard/reminders/internal/model"
)

type Policy string

const (
	// PerTone takes the cooldown window from the tone of the last reminder sent.
	PerTone Policy = "per_tone"
	// Fixed applies one window after any reminder, whatever its tone.
	Fixed Policy = "fixed"
)

type Table struct {
	MinDaysLate        int      `koanf:"min_days_late"`
	UpcomingWindowDays int      `koanf:"upcoming_window_days"`
	Bands              []Band   `koanf:"bands"`
	Cooldown           Cooldown `koanf:"cooldown"`
}

// Band maps an inclusive overdue-day range to a tone. Max of 0 leaves the
// range open-ended.
type Band struct {
	Min  int        `koanf:"min"`
	Max  int        `koanf:"max"`
	Tone model.Tone `koanf:"tone"`
}

func (b Band) Contains(days int) bool {
	return days >= b.Min && (b.Max == 0 || days <= b.Max)
}

type Cooldown struct {
	Policy     Policy `koanf:"policy"`
	FixedDays  int    `koanf:"fixed_days"`
	Gentle     int    `koanf:"gentle"`
	Firm       int    `koanf:"firm"`
	Escalation int    `koanf:"escalation"`
}

func Default() Table {
	return Table{
		MinDaysLate:        7,
		UpcomingWindowDays: 7,
		Bands: []Band{
			{Min: 7, Max: 14, Tone: model.Gentle},
			{Min: 15, Max: 30, Tone: model.Firm},
			{Min: 31, Tone: model.Escalation},
		},
		Cooldown: Cooldown{
			Policy:     PerTone,
			FixedDays:  5,
			Gentle:     3,
			Firm:       5,
			Escalation: 7,
		},
	}
}

// ToneFor returns the tone of the first band containing days, or the lowest
// tier when none does.
func (t Table) ToneFor(days int) model.Tone {
	for _, b := range t.Bands {
		if b.Contains(days) {
			return b.Tone
		}
	}
	return model.Tones[0]
}

// CooldownFor returns the number of days to wait after a reminder of the given tone.
func (t Table) CooldownFor(tone model.Tone) int {
	if t.Cooldown.Policy == Fixed {
		return t.Cooldown.FixedDays
	}
	switch tone {
	case model.Gentle:
		return t.Cooldown.Gentle
	case model.Firm:
		return t.Cooldown.Firm
	case model.Escalation:
		return t.Cooldown.Escalation
	default:
		return 0
	}
}

func (t Table) Validate() error {
	var errs []error

	if t.MinDaysLate < 0 {
		errs = append(errs, errors.New("min_days_late must be >= 0"))
	}
	if t.UpcomingWindowDays < 0 {
		errs = append(errs, errors.New("upcoming_window_days must be >= 0"))
	}

	if len(t.Bands) == 0 {
		errs = append(errs, errors.New("at least one tone band is required"))
	}
	for i, b := range t.Bands {
		if !b.Tone.Valid() {
			errs = append(errs, fmt.Errorf("band %d: unknown tone %q", i, b.Tone))
		}
		if i == 0 && b.Min != t.MinDaysLate {
			errs = append(errs, fmt.Errorf("band 0 must start at min_days_late (%d), got %d", t.MinDaysLate, b.Min))
		}
		if i > 0 {
			prev := t.Bands[i-1]
			if prev.Max == 0 {
				errs = append(errs, fmt.Errorf("band %d: only the last band may be open-ended", i-1))
			} else if b.Min != prev.Max+1 {
				errs = append(errs, fmt.Errorf("band %d must start at %d, got %d", i, prev.Max+1, b.Min))
			}
		}
		if b.Max != 0 && b.Max < b.Min {
			errs = append(errs, fmt.Errorf("band %d: max %d < min %d", i, b.Max, b.Min))
		}
	}
	if n := len(t.Bands); n > 0 && t.Bands[n-1].Max != 0 {
		errs = append(errs, errors.New("last band must be open-ended (max 0)"))
	}

	c := t.Cooldown
	switch c.Policy {
	case PerTone, Fixed:
	default:
		errs = append(errs, fmt.Errorf("unknown cooldown policy %q", c.Policy))
	}
	if c.FixedDays < 0 || c.Gentle < 0 || c.Firm < 0 || c.Escalation < 0 {
		errs = append(errs, errors.New("cooldown days must be >= 0"))
	}

	return errors.Join(errs...)
}
