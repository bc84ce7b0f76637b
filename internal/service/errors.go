package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotEligible    = errors.New("invoice is not eligible for a reminder")
	ErrSendInFlight   = errors.New("a reminder for this invoice is already being sent")
	ErrUnknownChannel = errors.New("unknown channel")
)

// CooldownError reports that the last reminder is too recent.
type CooldownError struct {
	Remaining  int
	LastSentAt time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: next reminder allowed in %d day(s)", e.Remaining)
}
