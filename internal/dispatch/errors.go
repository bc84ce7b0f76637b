package dispatch

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindChannelUnavailable Kind = "channel-unavailable"
	KindMissingRecipient   Kind = "missing-recipient"
	KindTimeout            Kind = "timeout"
	KindTransport          Kind = "transport"
)

// Error is the only error type Dispatch returns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match on kind: errors.Is(err, &dispatch.Error{Kind: dispatch.KindTimeout}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of a dispatch error, or "" if err is not one.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
