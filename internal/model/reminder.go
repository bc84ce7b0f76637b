package model

import (
	"fmt"
	"strings"
	"time"
)

type Tone string

const (
	Gentle     Tone = "Gentle"
	Firm       Tone = "Firm"
	Escalation Tone = "Escalation"
)

// Tones lists every tone from the lowest tier to the highest.
var Tones = []Tone{Gentle, Firm, Escalation}

func (t Tone) Valid() bool {
	return t.Rank() >= 0
}

// Rank is the escalation tier of t, starting at 0. Unknown tones rank -1.
func (t Tone) Rank() int {
	for i, v := range Tones {
		if v == t {
			return i
		}
	}
	return -1
}

// ParseTone accepts tone names case-insensitively.
func ParseTone(s string) (Tone, error) {
	for _, t := range Tones {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}

type Channel string

const (
	ChannelManual   Channel = "manual"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelManual, ChannelEmail, ChannelWhatsApp:
		return c, nil
	default:
		return "", fmt.Errorf("unknown channel %q", s)
	}
}

type State string

const (
	Sent State = "sent"
)

// ReminderEvent is a confirmed send. Events are append-only.
type ReminderEvent struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoiceId"`
	Tone      Tone      `json:"tone"`
	Channel   Channel   `json:"channel"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sentAt"`
	State     State     `json:"state"`

	// Joined from the invoice on reads; not part of the stored event.
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	ClientName    string `json:"clientName,omitempty"`
}

// Decision is derived on every evaluation and never stored.
type Decision struct {
	OverdueDays           int        `json:"overdueDays"`
	Tone                  Tone       `json:"tone"`
	Eligible              bool       `json:"eligible"`
	Allowed               bool       `json:"allowed"`
	CooldownDaysRemaining int        `json:"cooldownDaysRemaining"`
	LastSentAt            *time.Time `json:"lastSentAt"`
}

// Sendable reports whether a reminder may go out right now.
func (d Decision) Sendable() bool {
	return d.Eligible && d.Allowed
}
