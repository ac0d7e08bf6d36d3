package link

import (
	"io"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// DefaultBaud is used for serial endpoints without a baud query.
const DefaultBaud = 57600

const dialTimeout = 5 * time.Second

// OpenPort opens the transport named by endpoint:
//
//	serial:///dev/ttyAMA0?baud=115200
//	tcp://host:port
//	ws://host:port/path
func OpenPort(endpoint string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "serial":
		baud := DefaultBaud
		if s := u.Query().Get("baud"); s != "" {
			if baud, err = strconv.Atoi(s); err != nil {
				return nil, ErrBadEndpoint
			}
		}
		if u.Path == "" {
			return nil, ErrBadEndpoint
		}
		return openSerial(u.Path, baud)
	case "tcp":
		if u.Host == "" {
			return nil, ErrBadEndpoint
		}
		return net.DialTimeout("tcp", u.Host, dialTimeout)
	case "ws", "wss":
		origin := "http://" + u.Host
		conn, err := websocket.Dial(endpoint, "", origin)
		if err != nil {
			return nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return conn, nil
	}
	return nil, ErrBadEndpoint
}

// lockedPort serializes writes from the codec and from forwarding.
type lockedPort struct {
	io.ReadWriteCloser
	lock sync.Mutex
}

func (p *lockedPort) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.ReadWriteCloser.Write(b)
}
