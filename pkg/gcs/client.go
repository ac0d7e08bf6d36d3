// Package gcs is a ground station client talking to the flight
// controller over MAVLink.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/link"
	"github.com/robotalks/fc.go/pkg/mav"
)

// Errors
var (
	ErrTimeout = errors.New("gcs: no reply from vehicle")
	ErrClosed  = errors.New("gcs: client closed")
)

// Config defines how to reach the vehicle.
type Config struct {
	// Endpoint is tcp://host:port, udp://host:port or
	// serial:///dev/tty?baud=N.
	Endpoint        string
	SystemID        uint8
	ComponentID     uint8
	TargetSystem    uint8
	TargetComponent uint8
	Timeout         time.Duration
}

// DefaultConfig addresses the default vehicle as a ground station.
var DefaultConfig = Config{
	SystemID:        255,
	ComponentID:     190,
	TargetSystem:    42,
	TargetComponent: 200,
	Timeout:         time.Second,
}

// Param is a parameter reported by the vehicle.
type Param struct {
	Name  string  `json:"name"`
	Index int     `json:"index"`
	Count int     `json:"count"`
	Value float32 `json:"value"`
}

// VehicleStatus is the latest heartbeat and system status.
type VehicleStatus struct {
	Heartbeat *minimal.MessageHeartbeat
	SysStatus *common.MessageSysStatus
	Received  time.Time
}

type waiter struct {
	match func(message.Message) bool
	ch    chan message.Message
}

// Client sends requests to the vehicle and waits for replies.
type Client struct {
	Config Config

	write     func(message.Message)
	closer    func()
	closeOnce sync.Once

	lock    sync.Mutex
	waiters map[*waiter]struct{}
	status  VehicleStatus
	seq     uint32
	done    chan struct{}
}

// EndpointConf converts an endpoint URL into a gomavlib endpoint.
func EndpointConf(endpoint string) (gomavlib.EndpointConf, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return gomavlib.EndpointTCPClient{Address: u.Host}, nil
	case "udp":
		return gomavlib.EndpointUDPClient{Address: u.Host}, nil
	case "serial":
		baud := link.DefaultBaud
		if s := u.Query().Get("baud"); s != "" {
			if baud, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("gcs: invalid baud %q", s)
			}
		}
		return gomavlib.EndpointSerial{Device: u.Path, Baud: baud}, nil
	}
	return nil, fmt.Errorf("gcs: unsupported endpoint %q", endpoint)
}

// Dial connects to the vehicle.
func Dial(conf Config) (*Client, error) {
	ep, err := EndpointConf(conf.Endpoint)
	if err != nil {
		return nil, err
	}
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:      []gomavlib.EndpointConf{ep},
		Dialect:        mav.Dialect,
		OutVersion:     gomavlib.V1,
		OutSystemID:    conf.SystemID,
		OutComponentID: conf.ComponentID,
	})
	if err != nil {
		return nil, err
	}
	c := newClient(conf, func(msg message.Message) { node.WriteMessageAll(msg) }, node.Close)
	go c.run(node.Events())
	return c, nil
}

func newClient(conf Config, write func(message.Message), closer func()) *Client {
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultConfig.Timeout
	}
	return &Client{
		Config:  conf,
		write:   write,
		closer:  closer,
		waiters: make(map[*waiter]struct{}),
		done:    make(chan struct{}),
	}
}

// Close disconnects from the vehicle.
func (c *Client) Close() error {
	c.closeOnce.Do(c.closer)
	return nil
}

func (c *Client) run(events <-chan gomavlib.Event) {
	defer close(c.done)
	for evt := range events {
		if fr, ok := evt.(*gomavlib.EventFrame); ok {
			if fr.SystemID() == c.Config.TargetSystem {
				c.deliver(fr.Message())
			}
		}
	}
}

func (c *Client) deliver(msg message.Message) {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch m := msg.(type) {
	case *minimal.MessageHeartbeat:
		c.status.Heartbeat, c.status.Received = m, time.Now()
	case *common.MessageSysStatus:
		c.status.SysStatus = m
	}
	for w := range c.waiters {
		if w.match(msg) {
			select {
			case w.ch <- msg:
			default:
				glog.V(2).Infof("gcs: waiter full, reply %d dropped", msg.GetID())
			}
		}
	}
}

// Status returns the latest heartbeat and system status.
func (c *Client) Status() VehicleStatus {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.status
}

func (c *Client) subscribe(match func(message.Message) bool, size int) *waiter {
	w := &waiter{match: match, ch: make(chan message.Message, size)}
	c.lock.Lock()
	c.waiters[w] = struct{}{}
	c.lock.Unlock()
	return w
}

func (c *Client) unsubscribe(w *waiter) {
	c.lock.Lock()
	delete(c.waiters, w)
	c.lock.Unlock()
}

func (c *Client) request(ctx context.Context, msg message.Message, match func(message.Message) bool) (message.Message, error) {
	w := c.subscribe(match, 1)
	defer c.unsubscribe(w)
	c.write(msg)
	ctx, cancel := context.WithTimeout(ctx, c.Config.Timeout)
	defer cancel()
	select {
	case reply := <-w.ch:
		return reply, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// Send writes a message without waiting.
func (c *Client) Send(msg message.Message) {
	c.write(msg)
}

// Ping measures the round trip time.
func (c *Client) Ping(ctx context.Context) (time.Duration, uint64, error) {
	c.lock.Lock()
	c.seq++
	seq := c.seq
	c.lock.Unlock()
	start := time.Now()
	reply, err := c.request(ctx, &common.MessagePing{
		TimeUsec: uint64(start.UnixNano() / 1000),
		Seq:      seq,
	}, func(msg message.Message) bool {
		m, ok := msg.(*common.MessagePing)
		return ok && m.Seq == seq && m.TargetSystem == c.Config.SystemID
	})
	if err != nil {
		return 0, 0, err
	}
	return time.Since(start), reply.(*common.MessagePing).TimeUsec, nil
}

func paramOf(m *common.MessageParamValue) Param {
	return Param{Name: m.ParamId, Index: int(m.ParamIndex), Count: int(m.ParamCount), Value: m.ParamValue}
}

// ReadParam reads a parameter by name.
func (c *Client) ReadParam(ctx context.Context, name string) (Param, error) {
	reply, err := c.request(ctx, &common.MessageParamRequestRead{
		TargetSystem:    c.Config.TargetSystem,
		TargetComponent: c.Config.TargetComponent,
		ParamId:         name,
		ParamIndex:      -1,
	}, func(msg message.Message) bool {
		m, ok := msg.(*common.MessageParamValue)
		return ok && m.ParamId == name
	})
	if err != nil {
		return Param{}, err
	}
	return paramOf(reply.(*common.MessageParamValue)), nil
}

// ReadParamAt reads a parameter by index.
func (c *Client) ReadParamAt(ctx context.Context, index int) (Param, error) {
	reply, err := c.request(ctx, &common.MessageParamRequestRead{
		TargetSystem:    c.Config.TargetSystem,
		TargetComponent: c.Config.TargetComponent,
		ParamIndex:      int16(index),
	}, func(msg message.Message) bool {
		m, ok := msg.(*common.MessageParamValue)
		return ok && int(m.ParamIndex) == index
	})
	if err != nil {
		return Param{}, err
	}
	return paramOf(reply.(*common.MessageParamValue)), nil
}

// ListParams requests the whole table and collects it in index order.
// Each reply restarts the timeout.
func (c *Client) ListParams(ctx context.Context) ([]Param, error) {
	w := c.subscribe(func(msg message.Message) bool {
		_, ok := msg.(*common.MessageParamValue)
		return ok
	}, 256)
	defer c.unsubscribe(w)
	c.write(&common.MessageParamRequestList{
		TargetSystem:    c.Config.TargetSystem,
		TargetComponent: c.Config.TargetComponent,
	})

	var params []Param
	received := 0
	for {
		select {
		case msg := <-w.ch:
			p := paramOf(msg.(*common.MessageParamValue))
			if params == nil {
				params = make([]Param, p.Count)
			}
			if p.Index < len(params) && params[p.Index].Name == "" {
				params[p.Index] = p
				received++
			}
			if received == len(params) {
				return params, nil
			}
		case <-c.done:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Config.Timeout):
			return nil, ErrTimeout
		}
	}
}

// SetParam writes a parameter. The vehicle only echoes changed values, so
// the value is read back when no echo arrives.
func (c *Client) SetParam(ctx context.Context, name string, value float32) (Param, error) {
	reply, err := c.request(ctx, &common.MessageParamSet{
		TargetSystem:    c.Config.TargetSystem,
		TargetComponent: c.Config.TargetComponent,
		ParamId:         name,
		ParamValue:      value,
		ParamType:       common.MAV_PARAM_TYPE_REAL32,
	}, func(msg message.Message) bool {
		m, ok := msg.(*common.MessageParamValue)
		return ok && m.ParamId == name && m.ParamValue == value
	})
	switch err {
	case nil:
		return paramOf(reply.(*common.MessageParamValue)), nil
	case ErrTimeout:
		return c.ReadParam(ctx, name)
	}
	return Param{}, err
}

// SendSetpoint requests a local position setpoint, yaw in degrees.
func (c *Client) SendSetpoint(x, y, z, yaw float32) {
	c.write(&mav.MessageSetLocalPositionSetpoint{
		TargetSystem:    c.Config.TargetSystem,
		TargetComponent: c.Config.TargetComponent,
		X:               x,
		Y:               y,
		Z:               z,
		Yaw:             yaw,
	})
}

func (c *Client) command(cmd common.MAV_CMD, param1 float32) {
	c.write(&common.MessageCommandLong{
		TargetSystem:    c.Config.TargetSystem,
		TargetComponent: c.Config.TargetComponent,
		Command:         cmd,
		Param1:          param1,
	})
}

// Storage loads (save=false) or saves the parameters on the vehicle.
func (c *Client) Storage(save bool) {
	var p float32
	if save {
		p = 1
	}
	c.command(common.MAV_CMD_PREFLIGHT_STORAGE, p)
}

// Calibrate starts the gyro calibration.
func (c *Client) Calibrate() {
	c.command(common.MAV_CMD_PREFLIGHT_CALIBRATION, 1)
}

// Stream enables or disables a telemetry stream.
func (c *Client) Stream(id uint8, on bool) {
	var startStop uint8
	if on {
		startStop = 1
	}
	c.write(&common.MessageRequestDataStream{
		TargetSystem:    c.Config.TargetSystem,
		TargetComponent: c.Config.TargetComponent,
		ReqStreamId:     id,
		ReqMessageRate:  1,
		StartStop:       startStop,
	})
}

// SetMode sends a new base mode and waits for the heartbeat showing it.
func (c *Client) SetMode(ctx context.Context, baseMode uint8) error {
	_, err := c.request(ctx, &common.MessageSetMode{
		TargetSystem: c.Config.TargetSystem,
		BaseMode:     common.MAV_MODE(baseMode),
	}, func(msg message.Message) bool {
		m, ok := msg.(*minimal.MessageHeartbeat)
		return ok && uint8(m.BaseMode) == baseMode
	})
	return err
}

// SyncTime sends the ground UNIX time to the vehicle.
func (c *Client) SyncTime(now time.Time) {
	c.write(&common.MessageSystemTime{TimeUnixUsec: uint64(now.UnixNano() / 1000)})
}
