// internal/domain/notify/channel.go
package notify

// Channel is the closed set of delivery transports. Dispatch goes through one
// Sender per channel; a channel value outside this set is a delivery error,
// not a silent default.
type Channel string

const (
	ChannelInApp    Channel = "IN_APP"
	ChannelSMS      Channel = "SMS"
	ChannelEmail    Channel = "EMAIL"
	ChannelWhatsApp Channel = "WHATSAPP"
)

// Preferences is the per-customer opt-in set for outbound channels.
// Corresponds to the 'notification_preferences' table; lazily created with
// in-app only.
type Preferences struct {
	MerchantID    int64
	CustomerID    int64
	AllowInApp    bool
	AllowSMS      bool
	AllowWhatsApp bool
	AllowEmail    bool
}

// DefaultPreferences returns the opt-in set a customer has before the merchant
// ever configures one: in-app only.
func DefaultPreferences(merchantID, customerID int64) *Preferences {
	return &Preferences{
		MerchantID: merchantID,
		CustomerID: customerID,
		AllowInApp: true,
	}
}

// SelectChannel picks the outbound channel for a customer: SMS when allowed
// and a phone number is on file, then WhatsApp, then email, falling back to
// in-app, which always works.
func SelectChannel(p *Preferences, hasPhone, hasEmail bool) Channel {
	switch {
	case p.AllowSMS && hasPhone:
		return ChannelSMS
	case p.AllowWhatsApp && hasPhone:
		return ChannelWhatsApp
	case p.AllowEmail && hasEmail:
		return ChannelEmail
	default:
		return ChannelInApp
	}
}
