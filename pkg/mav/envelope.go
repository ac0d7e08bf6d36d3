package mav

import (
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// Channel identifies one of the two vehicle links.
type Channel int

// Channels.
const (
	// Channel1 is the onboard computer link.
	Channel1 Channel = iota
	// Channel2 is the external link (radio or GPS receiver).
	Channel2

	NumChannels = 2
)

// Channels lists all channels in polling order.
var Channels = [NumChannels]Channel{Channel1, Channel2}

// Other returns the sibling channel.
func (c Channel) Other() Channel {
	if c == Channel1 {
		return Channel2
	}
	return Channel1
}

func (c Channel) String() string {
	switch c {
	case Channel1:
		return "link1"
	case Channel2:
		return "link2"
	}
	return "link?"
}

// Envelope is a decoded message with its origin.
type Envelope struct {
	Channel     Channel
	SystemID    uint8
	ComponentID uint8
	Message     message.Message
	// Frame is the frame as received, used for verbatim forwarding.
	Frame frame.Frame
}

// ID returns the message ID.
func (e *Envelope) ID() uint32 {
	return e.Message.GetID()
}
