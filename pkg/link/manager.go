// Package link owns the two vehicle links and moves bytes between the
// transports and the message dispatcher.
package link

import (
	"context"
	"io"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialect"
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/gps"
	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/sched"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

const (
	readChunkSize = 256
	chunkQueueLen = 64
)

// Dispatcher consumes decoded messages.
type Dispatcher interface {
	Dispatch(*mav.Envelope)
}

// Indicator is a visible activity light.
type Indicator interface {
	Toggle()
	Close() error
}

type codec interface {
	WriteMessage(message.Message)
	WriteFrame(frame.Frame)
	Close()
}

type nodeCodec struct {
	node *gomavlib.Node
}

func (c nodeCodec) WriteMessage(msg message.Message) { c.node.WriteMessageAll(msg) }
func (c nodeCodec) WriteFrame(fr frame.Frame)        { c.node.WriteFrameAll(fr) }
func (c nodeCodec) Close()                           { c.node.Close() }

// frameCodec encodes outgoing traffic onto a link which does not decode
// its input.
type frameCodec struct {
	ch mav.Channel
	w  *frame.Writer
}

func newFrameCodec(ch mav.Channel, w io.Writer, systemID, componentID uint8) (*frameCodec, error) {
	rw, err := dialect.NewReadWriter(mav.Dialect)
	if err != nil {
		return nil, err
	}
	fw, err := frame.NewWriter(frame.WriterConf{
		Writer:         w,
		DialectRW:      rw,
		OutVersion:     frame.V1,
		OutSystemID:    systemID,
		OutComponentID: componentID,
	})
	if err != nil {
		return nil, err
	}
	return &frameCodec{ch: ch, w: fw}, nil
}

func (c *frameCodec) WriteMessage(msg message.Message) {
	if err := c.w.WriteMessage(msg); err != nil {
		glog.Errorf("%s: write %d: %v", c.ch, msg.GetID(), err)
	}
}

// WriteFrame encodes a copy, the writer replaces the message of the frame
// it is given.
func (c *frameCodec) WriteFrame(fr frame.Frame) {
	switch f := fr.(type) {
	case *frame.V1Frame:
		cp := *f
		fr = &cp
	case *frame.V2Frame:
		cp := *f
		fr = &cp
	}
	if err := c.w.WriteFrame(fr); err != nil {
		glog.Errorf("%s: write frame %d: %v", c.ch, fr.GetMessage().GetID(), err)
	}
}

func (c *frameCodec) Close() {}

type link struct {
	ch   mav.Channel
	mode Mode
	port *lockedPort

	// codec encodes outgoing traffic in every mode.
	codec codec

	// ModeProtocol
	events <-chan gomavlib.Event

	// raw modes
	chunks chan []byte
	wake   func()
	gps    *gps.Parser
	debug  lineBuffer
}

func (l *link) Name() string {
	return l.ch.String()
}

// Run implements sched.Runnable.
func (l *link) Run(ctx context.Context) error {
	if l.mode == ModeProtocol {
		<-ctx.Done()
		l.codec.Close()
		return ctx.Err()
	}
	return sched.RunWithContextCloser(ctx, l.port, l.readLoop)
}

func (l *link) readLoop() error {
	for {
		buf := make([]byte, readChunkSize)
		n, err := l.port.Read(buf)
		if n > 0 {
			select {
			case l.chunks <- buf[:n]:
				if l.wake != nil {
					l.wake()
				}
			default:
				glog.V(1).Infof("%s: receive queue full, %d bytes dropped", l.ch, n)
			}
		}
		if err != nil {
			if err == io.EOF {
				glog.Warningf("%s: port closed", l.ch)
			}
			return err
		}
	}
}

// Manager owns both links. Open, Poll and the Outlet methods must be
// called from the scheduler goroutine, Run starts the transport readers.
type Manager struct {
	State *vehicle.State
	// SystemID and ComponentID identify outgoing frames.
	SystemID    uint8
	ComponentID uint8
	// GPSDebug logs raw GPS lines.
	GPSDebug bool
	// Indicator toggles on forwarded traffic, may be nil.
	Indicator Indicator
	// Wake is called after raw bytes are queued, may be nil.
	Wake func()

	links [mav.NumChannels]*link
}

// NewManager creates a Manager.
func NewManager(state *vehicle.State, systemID, componentID uint8) *Manager {
	return &Manager{State: state, SystemID: systemID, ComponentID: componentID}
}

// Open attaches port to ch in the given mode.
func (m *Manager) Open(ch mav.Channel, mode Mode, port io.ReadWriteCloser) error {
	if !mode.Supported(ch) {
		return ErrModeNotSupported
	}
	if m.links[ch] != nil {
		return ErrAlreadyOpen
	}
	lp := &lockedPort{ReadWriteCloser: port}
	if mode != ModeProtocol {
		c, err := newFrameCodec(ch, lp, m.SystemID, m.ComponentID)
		if err != nil {
			return err
		}
		m.attachRaw(ch, mode, lp, c)
		return nil
	}
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints: []gomavlib.EndpointConf{
			gomavlib.EndpointCustom{ReadWriteCloser: lp},
		},
		Dialect:          mav.Dialect,
		OutVersion:       gomavlib.V1,
		OutSystemID:      m.SystemID,
		OutComponentID:   m.ComponentID,
		HeartbeatDisable: true,
	})
	if err != nil {
		return err
	}
	m.attachProtocol(ch, lp, nodeCodec{node: node}, node.Events())
	return nil
}

func (m *Manager) attachProtocol(ch mav.Channel, port *lockedPort, c codec, events <-chan gomavlib.Event) {
	m.links[ch] = &link{ch: ch, mode: ModeProtocol, port: port, codec: c, events: events}
	glog.Infof("%s: %s", ch, ModeProtocol)
}

func (m *Manager) attachRaw(ch mav.Channel, mode Mode, port *lockedPort, c codec) {
	l := &link{ch: ch, mode: mode, port: port, codec: c, chunks: make(chan []byte, chunkQueueLen)}
	if mode == ModeRawGPS {
		l.gps = gps.NewParser()
	}
	m.links[ch] = l
	glog.Infof("%s: %s", ch, mode)
}

// Mode returns the mode of ch and whether it is open.
func (m *Manager) Mode(ch mav.Channel) (Mode, bool) {
	if l := m.links[ch]; l != nil {
		return l.mode, true
	}
	return ModeProtocol, false
}

// Name implements sched.Named.
func (m *Manager) Name() string {
	return "links"
}

// Run reads from all open links until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	runner := sched.NewRunnerWith(ctx)
	for _, l := range m.links {
		if l != nil {
			l.wake = m.Wake
			runner.Go(l)
		}
	}
	if len(runner.Runners) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	return runner.Wait()
}

// PollAll drains Channel1 completely, then Channel2.
func (m *Manager) PollAll(d Dispatcher) {
	for _, ch := range mav.Channels {
		m.Poll(ch, d)
	}
}

// Poll handles everything already received on ch without blocking.
func (m *Manager) Poll(ch mav.Channel, d Dispatcher) {
	l := m.links[ch]
	if l == nil {
		return
	}
	if l.mode == ModeProtocol {
		m.pollProtocol(l, d)
		return
	}
	for {
		select {
		case chunk := <-l.chunks:
			m.handleRaw(l, chunk)
		default:
			return
		}
	}
}

func (m *Manager) pollProtocol(l *link, d Dispatcher) {
	stats := &m.State.Comm.Links[l.ch]
	for {
		var evt gomavlib.Event
		select {
		case e, ok := <-l.events:
			if !ok {
				return
			}
			evt = e
		default:
			return
		}
		switch e := evt.(type) {
		case *gomavlib.EventFrame:
			stats.Successes++
			glog.V(4).Infof("%s: recv %d from %d/%d", l.ch, e.Message().GetID(), e.SystemID(), e.ComponentID())
			d.Dispatch(&mav.Envelope{
				Channel:     l.ch,
				SystemID:    e.SystemID(),
				ComponentID: e.ComponentID(),
				Message:     e.Message(),
				Frame:       e.Frame,
			})
		case *gomavlib.EventParseError:
			stats.Drops++
			glog.V(2).Infof("%s: %v", l.ch, e.Error)
		case *gomavlib.EventChannelOpen:
			glog.Infof("%s: open", l.ch)
		case *gomavlib.EventChannelClose:
			glog.Warningf("%s: closed", l.ch)
		}
	}
}

func (m *Manager) handleRaw(l *link, chunk []byte) {
	switch l.mode {
	case ModeForward:
		if other := m.links[l.ch.Other()]; other != nil {
			if _, err := other.port.Write(chunk); err != nil {
				glog.Errorf("%s: forward to %s: %v", l.ch, other.ch, err)
			}
		}
		if m.Indicator != nil {
			m.Indicator.Toggle()
		}
	case ModeRawGPS:
		for _, c := range chunk {
			if m.GPSDebug {
				if line, ok := l.debug.feed(c); ok {
					glog.Infof("gps: %s", line)
				}
			}
			if l.gps.Feed(c) {
				fix := l.gps.Fix()
				m.State.GPSOK = fix.Latitude != 0
				glog.V(2).Infof("gps: fix %.6f, %.6f", fix.Latitude, fix.Longitude)
			}
		}
	}
}

// WriteMessage implements core.Outlet. Links in raw modes transmit the
// encoded message as well.
func (m *Manager) WriteMessage(ch mav.Channel, msg message.Message) {
	if l := m.links[ch]; l != nil && l.codec != nil {
		l.codec.WriteMessage(msg)
	}
}

// WriteFrame implements core.Outlet.
func (m *Manager) WriteFrame(ch mav.Channel, fr frame.Frame) {
	if l := m.links[ch]; l != nil && l.codec != nil {
		l.codec.WriteFrame(fr)
	}
}
