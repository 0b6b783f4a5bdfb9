// Package bot hosts the per-user conversation state machine and everything
// that sits between the chat transport and the ledger.
package bot

import "context"

// UserRef identifies the author of an inbound event.
type UserRef struct {
	ID       int64
	Username string
	FullName string
}

// Event is one inbound chat event.
type Event interface {
	From() UserRef
}

// TextMessage is free text typed by the user. The very first /start of a
// user may carry a deep-link referral code as its payload.
type TextMessage struct {
	User UserRef
	Text string
}

// From implements Event.
func (m TextMessage) From() UserRef { return m.User }

// ButtonPress is a tap on an inline keyboard button; Data is a flat token
// from the fixed callback vocabulary.
type ButtonPress struct {
	User UserRef
	Data string
}

// From implements Event.
func (p ButtonPress) From() UserRef { return p.User }

// Button is one labeled action on a keyboard.
type Button struct {
	Label string
	Data  string
}

// Keyboard is a flat grid of buttons attached to an outbound message.
type Keyboard struct {
	Rows [][]Button
}

// Sender delivers outbound messages. Implementations must return an error
// wrapping domain.ErrDeliveryBlocked when the recipient has blocked the
// channel, so callers can decide whether to mark the user blocked.
type Sender interface {
	Send(ctx context.Context, userID int64, text string, kb *Keyboard) error
}

// Transport is the full delivery channel: outbound sends plus the inbound
// event stream. The channel is expected to deliver events of a single user
// in order; cross-user ordering is not promised.
type Transport interface {
	Sender
	Events() <-chan Event
}
