package dispatch

import "github.com/cashflowguard/reminders/internal/model"

// Channel is a closed set: Manual, Email and WhatsApp are its only members.
type Channel interface {
	Name() model.Channel
	channel()
}

// Manual means the user delivers the message themselves.
type Manual struct{}

type Email struct {
	To      string
	Subject string
	Message string
}

// WhatsApp is reserved and always reported as unavailable.
type WhatsApp struct {
	To string
}

func (Manual) Name() model.Channel   { return model.ChannelManual }
func (Email) Name() model.Channel    { return model.ChannelEmail }
func (WhatsApp) Name() model.Channel { return model.ChannelWhatsApp }

func (Manual) channel()   {}
func (Email) channel()    {}
func (WhatsApp) channel() {}
