package link

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialect"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

type fakeCodec struct {
	msgs   []message.Message
	frames []frame.Frame
	closed bool
}

func (c *fakeCodec) WriteMessage(msg message.Message) { c.msgs = append(c.msgs, msg) }
func (c *fakeCodec) WriteFrame(fr frame.Frame)        { c.frames = append(c.frames, fr) }
func (c *fakeCodec) Close()                           { c.closed = true }

type bufPort struct {
	bytes.Buffer
	closed bool
}

func (p *bufPort) Close() error {
	p.closed = true
	return nil
}

type recorder struct {
	envs []*mav.Envelope
}

func (r *recorder) Dispatch(env *mav.Envelope) {
	r.envs = append(r.envs, env)
}

type countIndicator struct {
	toggles int
}

func (i *countIndicator) Toggle()      { i.toggles++ }
func (i *countIndicator) Close() error { return nil }

func frameEvent(msg message.Message) gomavlib.Event {
	return &gomavlib.EventFrame{Frame: &frame.V1Frame{SystemID: 255, ComponentID: 190, Message: msg}}
}

func decodeFrames(t *testing.T, data []byte) (frames []frame.Frame) {
	rw, err := dialect.NewReadWriter(mav.Dialect)
	require.NoError(t, err)
	r, err := frame.NewReader(frame.ReaderConf{Reader: bytes.NewReader(data), DialectRW: rw})
	require.NoError(t, err)
	for {
		fr, err := r.Read()
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
		frames = append(frames, fr)
	}
}

// wireFrame returns msg as a frame decoded off the wire.
func wireFrame(t *testing.T, systemID, componentID uint8, msg message.Message) frame.Frame {
	rw, err := dialect.NewReadWriter(mav.Dialect)
	require.NoError(t, err)
	var buf bytes.Buffer
	w, err := frame.NewWriter(frame.WriterConf{
		Writer:         &buf,
		DialectRW:      rw,
		OutVersion:     frame.V1,
		OutSystemID:    systemID,
		OutComponentID: componentID,
	})
	require.NoError(t, err)
	require.NoError(t, w.WriteMessage(msg))
	frames := decodeFrames(t, buf.Bytes())
	require.Len(t, frames, 1)
	return frames[0]
}

func protocolLink(m *Manager, ch mav.Channel) (chan gomavlib.Event, *fakeCodec) {
	events := make(chan gomavlib.Event, 16)
	c := &fakeCodec{}
	m.attachProtocol(ch, &lockedPort{ReadWriteCloser: &bufPort{}}, c, events)
	return events, c
}

func TestOpenModes(t *testing.T) {
	m := NewManager(vehicle.NewState(), 42, 200)
	require.Equal(t, ErrModeNotSupported, m.Open(mav.Channel1, ModeRawGPS, &bufPort{}))
	require.NoError(t, m.Open(mav.Channel2, ModeRawGPS, &bufPort{}))
	require.Equal(t, ErrAlreadyOpen, m.Open(mav.Channel2, ModeForward, &bufPort{}))
	require.NoError(t, m.Open(mav.Channel1, ModeForward, &bufPort{}))

	mode, ok := m.Mode(mav.Channel2)
	require.True(t, ok)
	require.Equal(t, ModeRawGPS, mode)
	_, ok = NewManager(vehicle.NewState(), 1, 1).Mode(mav.Channel1)
	require.False(t, ok)
}

func TestPollProtocol(t *testing.T) {
	state := vehicle.NewState()
	m := NewManager(state, 42, 200)
	ev1, _ := protocolLink(m, mav.Channel1)
	ev2, _ := protocolLink(m, mav.Channel2)

	ping := &common.MessagePing{Seq: 1}
	ev2 <- frameEvent(&common.MessagePing{Seq: 2})
	ev1 <- frameEvent(ping)
	ev1 <- &gomavlib.EventParseError{Error: errors.New("invalid checksum")}
	ev1 <- frameEvent(&common.MessagePing{Seq: 3})

	r := &recorder{}
	m.PollAll(r)
	require.Len(t, r.envs, 3)
	// Channel1 is drained before Channel2
	require.Equal(t, mav.Channel1, r.envs[0].Channel)
	require.Same(t, ping, r.envs[0].Message)
	require.Equal(t, uint8(255), r.envs[0].SystemID)
	require.Equal(t, uint8(190), r.envs[0].ComponentID)
	require.NotNil(t, r.envs[0].Frame)
	require.Equal(t, mav.Channel1, r.envs[1].Channel)
	require.Equal(t, mav.Channel2, r.envs[2].Channel)

	require.Equal(t, vehicle.LinkStats{Drops: 1, Successes: 2}, state.Comm.Links[mav.Channel1])
	require.Equal(t, vehicle.LinkStats{Successes: 1}, state.Comm.Links[mav.Channel2])

	r.envs = nil
	m.PollAll(r)
	require.Empty(t, r.envs)
}

func TestOutlet(t *testing.T) {
	m := NewManager(vehicle.NewState(), 42, 200)
	_, c1 := protocolLink(m, mav.Channel1)
	require.NoError(t, m.Open(mav.Channel2, ModeRawGPS, &bufPort{}))

	msg := &common.MessagePing{Seq: 9}
	fr := wireFrame(t, 255, 190, msg)
	m.WriteMessage(mav.Channel1, msg)
	m.WriteFrame(mav.Channel1, fr)
	m.WriteMessage(mav.Channel2, msg)
	m.WriteFrame(mav.Channel2, fr)

	require.Equal(t, []message.Message{msg}, c1.msgs)
	require.Equal(t, []frame.Frame{fr}, c1.frames)
	raw := m.links[mav.Channel2].port.ReadWriteCloser.(*bufPort)
	frames := decodeFrames(t, raw.Bytes())
	require.Len(t, frames, 2)
	for _, f := range frames {
		require.Equal(t, msg, f.GetMessage())
	}
}

func TestBroadcastOnForwardLink(t *testing.T) {
	m := NewManager(vehicle.NewState(), 42, 200)
	port := &bufPort{}
	require.NoError(t, m.Open(mav.Channel1, ModeForward, port))
	protocolLink(m, mav.Channel2)

	hb := &minimal.MessageHeartbeat{Type: 2, BaseMode: 0x80, SystemStatus: 3, MavlinkVersion: 3}
	m.WriteMessage(mav.Channel1, hb)
	ping := &common.MessagePing{Seq: 5}
	fr := wireFrame(t, 255, 190, ping)
	received := fr.GetMessage()
	m.WriteFrame(mav.Channel1, fr)

	frames := decodeFrames(t, port.Bytes())
	require.Len(t, frames, 2)
	require.Equal(t, uint8(42), frames[0].GetSystemID())
	require.Equal(t, uint8(200), frames[0].GetComponentID())
	require.Equal(t, hb, frames[0].GetMessage())
	require.Equal(t, uint8(255), frames[1].GetSystemID())
	require.Equal(t, uint8(190), frames[1].GetComponentID())
	require.Equal(t, ping, frames[1].GetMessage())
	// the dispatched frame is left untouched
	require.Same(t, received, fr.GetMessage())
}

func TestForward(t *testing.T) {
	m := NewManager(vehicle.NewState(), 42, 200)
	ind := &countIndicator{}
	m.Indicator = ind
	target := &bufPort{}
	_, c1 := protocolLink(m, mav.Channel1)
	m.links[mav.Channel1].port = &lockedPort{ReadWriteCloser: target}
	require.NoError(t, m.Open(mav.Channel2, ModeForward, &bufPort{}))

	l := m.links[mav.Channel2]
	l.chunks <- []byte("hello ")
	l.chunks <- []byte("world")
	r := &recorder{}
	m.Poll(mav.Channel2, r)

	require.Equal(t, "hello world", target.String())
	require.Equal(t, 2, ind.toggles)
	require.Empty(t, r.envs)
	require.Empty(t, c1.msgs)
	require.Empty(t, c1.frames)
}

func nmea(payload string) string {
	var ck byte
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", payload, ck)
}

func TestRawGPS(t *testing.T) {
	state := vehicle.NewState()
	m := NewManager(state, 42, 200)
	require.NoError(t, m.Open(mav.Channel2, ModeRawGPS, &bufPort{}))
	l := m.links[mav.Channel2]

	l.chunks <- []byte(nmea("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	m.Poll(mav.Channel2, &recorder{})
	require.True(t, state.GPSOK)

	l.chunks <- []byte(nmea("GPGGA,123520,0000.000,N,00000.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	m.Poll(mav.Channel2, &recorder{})
	require.False(t, state.GPSOK)
}

func TestRunRawReader(t *testing.T) {
	pr, pw := io.Pipe()
	m := NewManager(vehicle.NewState(), 42, 200)
	woken := make(chan struct{}, 4)
	m.Wake = func() { woken <- struct{}{} }
	require.NoError(t, m.Open(mav.Channel1, ModeForward, struct {
		io.Reader
		io.Writer
		io.Closer
	}{pr, io.Discard, pr}))
	target := &bufPort{}
	_, c2 := protocolLink(m, mav.Channel2)
	m.links[mav.Channel2].port = &lockedPort{ReadWriteCloser: target}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	_, err := pw.Write([]byte("abc"))
	require.NoError(t, err)
	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("reader did not wake the loop")
	}
	m.Poll(mav.Channel1, &recorder{})
	require.Equal(t, "abc", target.String())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
	require.True(t, c2.closed)
}
