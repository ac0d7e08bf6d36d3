package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/params"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

const (
	gcsSystemID    = 255
	gcsComponentID = 190
)

type sentItem struct {
	ch  mav.Channel
	msg message.Message
	fr  frame.Frame
}

type fakeOutlet struct {
	sent []sentItem
}

func (o *fakeOutlet) WriteMessage(ch mav.Channel, msg message.Message) {
	o.sent = append(o.sent, sentItem{ch: ch, msg: msg})
}

func (o *fakeOutlet) WriteFrame(ch mav.Channel, fr frame.Frame) {
	o.sent = append(o.sent, sentItem{ch: ch, fr: fr})
}

func (o *fakeOutlet) messages(ch mav.Channel) (msgs []message.Message) {
	for _, item := range o.sent {
		if item.ch == ch && item.msg != nil {
			msgs = append(msgs, item.msg)
		}
	}
	return
}

func (o *fakeOutlet) frames(ch mav.Channel) (frames []frame.Frame) {
	for _, item := range o.sent {
		if item.ch == ch && item.fr != nil {
			frames = append(frames, item.fr)
		}
	}
	return
}

func (o *fakeOutlet) paramValues(ch mav.Channel) (values []*common.MessageParamValue) {
	for _, msg := range o.messages(ch) {
		if v, ok := msg.(*common.MessageParamValue); ok {
			values = append(values, v)
		}
	}
	return
}

func (o *fakeOutlet) reset() {
	o.sent = nil
}

type fakeClock struct {
	now  uint64
	loop uint64
}

func (c *fakeClock) Micros() uint64    { return c.now }
func (c *fakeClock) LoopStart() uint64 { return c.loop }

type fakeStorage struct {
	loads, saves int
	err          error
}

func (s *fakeStorage) Load(*params.Table) error {
	s.loads++
	return s.err
}

func (s *fakeStorage) Save(*params.Table) error {
	s.saves++
	return s.err
}

type fakeCalibrator struct {
	started int
}

func (c *fakeCalibrator) StartGyroCalibration() { c.started++ }

type fakeShutter struct {
	interval, exposure uint16
	trigger            *bool
}

func (s *fakeShutter) SetShutter(interval, exposure uint16) {
	s.interval, s.exposure = interval, exposure
}

func (s *fakeShutter) EnableTrigger(enable bool) {
	s.trigger = &enable
}

type testEnv struct {
	*Dispatcher
	out     *fakeOutlet
	clock   *fakeClock
	storage *fakeStorage
	cal     *fakeCalibrator
	shutter *fakeShutter
}

func newTestEnv() *testEnv {
	env := &testEnv{
		out:     &fakeOutlet{},
		clock:   &fakeClock{now: 1000, loop: 900},
		storage: &fakeStorage{},
		cal:     &fakeCalibrator{},
		shutter: &fakeShutter{},
	}
	state := vehicle.NewState()
	ctx := &Context{
		Params:     params.NewTable(),
		State:      state,
		Clock:      env.clock,
		Out:        env.out,
		Storage:    env.storage,
		Calibrator: env.cal,
		Vision:     &StateVision{State: state, Clock: env.clock},
		Shutter:    env.shutter,
	}
	env.Dispatcher = NewDispatcher(ctx)
	return env
}

func (e *testEnv) receive(ch mav.Channel, msg message.Message) {
	e.Dispatch(envelope(ch, msg))
}

func envelope(ch mav.Channel, msg message.Message) *mav.Envelope {
	return &mav.Envelope{
		Channel:     ch,
		SystemID:    gcsSystemID,
		ComponentID: gcsComponentID,
		Message:     msg,
		Frame: &frame.V1Frame{
			SystemID:    gcsSystemID,
			ComponentID: gcsComponentID,
			Message:     msg,
		},
	}
}
