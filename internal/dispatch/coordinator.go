// Package dispatch performs the side effect of sending a reminder over one
// channel and normalizes the result. It never records history; callers
// append a reminder event only after Dispatch reports success.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

type Mode string

const (
	ModeManual       Mode = "manual"
	ModeEmailRelay   Mode = "email-relay"
	ModeEmailCompose Mode = "email-compose"
)

type Outcome struct {
	Mode Mode   `json:"mode"`
	Info string `json:"info,omitempty"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, message string) error
}

const DefaultTimeout = 10 * time.Second

const composeURL = "https://mail.google.com/mail/"

type Coordinator struct {
	email   EmailSender
	timeout time.Duration
}

// NewCoordinator builds a coordinator. A nil sender switches email to
// compose mode, which hands back a prefilled compose link instead of sending.
func NewCoordinator(email EmailSender, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{email: email, timeout: timeout}
}

func (c *Coordinator) Dispatch(ctx context.Context, ch Channel) (Outcome, error) {
	switch ch := ch.(type) {
	case Manual:
		return Outcome{Mode: ModeManual}, nil
	case Email:
		return c.sendEmail(ctx, ch)
	case WhatsApp:
		return Outcome{}, &Error{Kind: KindChannelUnavailable, Msg: "WhatsApp not enabled yet"}
	default:
		return Outcome{}, &Error{Kind: KindChannelUnavailable, Msg: fmt.Sprintf("unsupported channel %T", ch)}
	}
}

func (c *Coordinator) sendEmail(ctx context.Context, m Email) (Outcome, error) {
	to := strings.TrimSpace(m.To)
	if to == "" {
		return Outcome{}, &Error{Kind: KindMissingRecipient, Msg: "client has no email address"}
	}

	if c.email == nil {
		return Outcome{Mode: ModeEmailCompose, Info: ComposeLink(to, m.Subject, m.Message)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.email.SendEmail(ctx, to, m.Subject, m.Message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("email relay timed out", "timeout", c.timeout.String())
			return Outcome{}, &Error{Kind: KindTimeout, Msg: "email service did not respond in time", Err: err}
		}
		slog.Warn("email relay failed", "error", err)
		return Outcome{}, &Error{Kind: KindTransport, Msg: "email failed to send", Err: err}
	}

	slog.Info("email relayed", "duration_ms", time.Since(start).Milliseconds())
	return Outcome{Mode: ModeEmailRelay}, nil
}

// ComposeLink builds a Gmail compose URL with recipient, subject and body filled in.
func ComposeLink(to, subject, body string) string {
	q := url.Values{}
	q.Set("view", "cm")
	q.Set("fs", "1")
	q.Set("to", to)
	q.Set("su", subject)
	q.Set("body", body)
	return composeURL + "?" + q.Encode()
}
