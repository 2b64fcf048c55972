// internal/infra/channel/dispatcher.go
package channel

import (
	"context"
	"fmt"

	"payflow/internal/domain/notify"
)

// Dispatcher routes a message to the Sender registered for its channel. The
// channel set is closed: a row carrying an unregistered channel value is a
// delivery failure the outbox records, not a silent default.
type Dispatcher struct {
	senders map[notify.Channel]notify.Sender
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make(map[notify.Channel]notify.Sender)}
}

// Register binds a sender to a channel, replacing any previous binding.
func (d *Dispatcher) Register(ch notify.Channel, s notify.Sender) {
	d.senders[ch] = s
}

func (d *Dispatcher) Dispatch(ctx context.Context, ch notify.Channel, to notify.Recipient, title, message string) error {
	s, ok := d.senders[ch]
	if !ok {
		return fmt.Errorf("unknown notification channel: %s", ch)
	}
	return s.Send(ctx, to, title, message)
}

// Default returns a dispatcher with all four channels registered.
func Default(sms *SMSSender, email *EmailSender, whatsapp *WhatsAppSender) *Dispatcher {
	d := NewDispatcher()
	d.Register(notify.ChannelInApp, &InAppSender{})
	d.Register(notify.ChannelSMS, sms)
	d.Register(notify.ChannelEmail, email)
	d.Register(notify.ChannelWhatsApp, whatsapp)
	return d
}
