package link

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robotalks/fc.go/pkg/mav"
)

// Mode selects how bytes received on a link are consumed.
type Mode int

// Link modes.
const (
	// ModeProtocol decodes MAVLink frames and dispatches them.
	ModeProtocol Mode = iota
	// ModeRawGPS feeds NMEA sentences into the GPS parser.
	ModeRawGPS
	// ModeForward copies bytes verbatim to the other link.
	ModeForward
)

// Errors
var (
	ErrModeNotSupported = errors.New("link: mode not supported on this channel")
	ErrAlreadyOpen      = errors.New("link: channel already open")
	ErrBadEndpoint      = errors.New("link: invalid endpoint")
)

var modeNames = map[Mode]string{
	ModeProtocol: "protocol",
	ModeRawGPS:   "gps",
	ModeForward:  "forward",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode converts a mode name into Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeProtocol, fmt.Errorf("link: unknown mode %q", s)
}

// Supported reports whether the mode can be used on ch.
func (m Mode) Supported(ch mav.Channel) bool {
	if m == ModeRawGPS {
		return ch == mav.Channel2
	}
	_, ok := modeNames[m]
	return ok
}
