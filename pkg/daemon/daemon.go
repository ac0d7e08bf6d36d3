// Package daemon assembles the flight controller core from a Config.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/config"
	"github.com/robotalks/fc.go/pkg/core"
	"github.com/robotalks/fc.go/pkg/link"
	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/mirror"
	"github.com/robotalks/fc.go/pkg/params"
	"github.com/robotalks/fc.go/pkg/sched"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

// Daemon is the assembled flight controller core.
type Daemon struct {
	Config     *config.Config
	Params     *params.Table
	State      *vehicle.State
	Clock      *vehicle.MonotonicClock
	Links      *link.Manager
	Dispatcher *core.Dispatcher
	Calibrator *core.StatusCalibrator
	// Mirror is nil unless a broker is configured.
	Mirror *mirror.Mirror
}

// New creates the Daemon, loading stored parameters. Links are not opened.
func New(conf *config.Config) (*Daemon, error) {
	d := &Daemon{
		Config: conf,
		Params: params.NewTable(),
		State:  vehicle.NewState(),
		Clock:  vehicle.NewMonotonicClock(),
	}

	var storage params.Storage
	if conf.ParamFile != "" {
		store := &params.FileStore{Path: conf.ParamFile}
		if err := store.Load(d.Params); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			glog.Infof("params: %s not found, using defaults", conf.ParamFile)
		}
		storage = store
	}

	d.State.SetpointBounds = conf.SetpointBounds
	d.Calibrator = &core.StatusCalibrator{
		State:    d.State,
		Clock:    d.Clock,
		Duration: uint64(conf.CalibrationTime.Microseconds()),
	}

	sysID := uint8(d.Params.Get(params.SystemID))
	d.Links = link.NewManager(d.State, sysID, uint8(d.Params.Get(params.ComponentID)))
	d.Dispatcher = core.NewDispatcher(&core.Context{
		Params:     d.Params,
		State:      d.State,
		Clock:      d.Clock,
		Out:        d.Links,
		Storage:    storage,
		Calibrator: d.Calibrator,
		Vision:     &core.StateVision{State: d.State, Clock: d.Clock},
		Shutter:    core.LogShutter{},
	})
	d.Dispatcher.SyncParams()

	if conf.MQTTBrokerURL != "" {
		m, err := newMirror(conf, sysID)
		if err != nil {
			return nil, err
		}
		d.Mirror = m
	}

	d.State.Status = vehicle.StatusStandby
	return d, nil
}

func newMirror(conf *config.Config, sysID uint8) (*mirror.Mirror, error) {
	ref := mirror.Ref{Type: conf.VehicleType, ID: conf.VehicleID}
	if ref.ID == "" {
		id, err := mirror.DefaultID()
		if err != nil {
			return nil, fmt.Errorf("mirror: machine id: %w", err)
		}
		ref.ID = id
	}
	meta := mirror.Meta{Description: "Flight Controller", SystemID: sysID}
	if conf.Announce != "" {
		meta.Labels = map[string]string{mirror.LabelEndpoint: conf.Announce}
	}
	return mirror.New(conf.MQTTBrokerURL, ref, meta)
}

// LinkMode resolves the mode of ch. A non-zero GPS_MODE turns Channel2
// into the raw GPS receiver.
func (d *Daemon) LinkMode(ch mav.Channel) link.Mode {
	if ch == mav.Channel2 && d.Params.Get(params.GPSMode) > 0 {
		return link.ModeRawGPS
	}
	return d.Config.LinkMode(ch)
}

// OpenLinks opens the configured links and the forwarding indicator.
func (d *Daemon) OpenLinks() error {
	d.Links.GPSDebug = d.Params.Get(params.GPSMode) == params.GPSModeDebug
	if pin := d.Config.IndicatorPin; pin > 0 {
		ind, err := link.OpenIndicator(pin)
		if err != nil {
			glog.Warningf("indicator on pin %d: %v", pin, err)
		} else {
			d.Links.Indicator = ind
		}
	}
	for _, ch := range mav.Channels {
		endpoint := d.Config.LinkEndpoint(ch)
		if endpoint == "" {
			continue
		}
		port, err := link.OpenPort(endpoint)
		if err != nil {
			return fmt.Errorf("%s: %w", ch, err)
		}
		if err := d.Links.Open(ch, d.LinkMode(ch), port); err != nil {
			port.Close()
			return fmt.Errorf("%s: %w", ch, err)
		}
	}
	return nil
}

// AddToLoop implements sched.LoopAdder.
func (d *Daemon) AddToLoop(l *sched.Loop) {
	conf := d.Config
	d.Links.Wake = l.TriggerNext
	l.AddTask(sched.PrLvTop, 1, sched.TaskFunc(func(sched.TickContext) error {
		d.Clock.MarkLoopStart()
		return nil
	}))
	l.AddTask(sched.PrLvReceive, 1, sched.TaskFunc(func(sched.TickContext) error {
		d.Links.PollAll(d.Dispatcher)
		return nil
	}))
	l.AddTask(sched.PrLvProcess, 1, sched.TaskFunc(func(sched.TickContext) error {
		d.Calibrator.Update()
		return nil
	}))
	l.AddTask(sched.PrLvTelemetry, conf.ParamPumpEvery, sched.TaskFunc(func(sched.TickContext) error {
		d.Dispatcher.ParamServer.Pump()
		return nil
	}))
	l.AddTask(sched.PrLvTelemetry, conf.HeartbeatEvery, sched.TaskFunc(func(sched.TickContext) error {
		d.Dispatcher.SendSystemState()
		return nil
	}))
	l.AddRunnable(d.Links)
	if d.Mirror != nil {
		l.AddTask(sched.PrLvIdle, uint64(conf.MirrorInterval/conf.Interval), sched.TaskFunc(func(sched.TickContext) error {
			return d.Mirror.Publish(mirror.Snapshot(d.State, d.Dispatcher.UnixTime()))
		}))
		l.AddRunnable(d.Mirror)
	}
}

// Run runs the scheduler loop until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.OpenLinks(); err != nil {
		return err
	}
	if d.Links.Indicator != nil {
		defer d.Links.Indicator.Close()
	}
	glog.Infof("flight controller running, system %d", d.Dispatcher.SystemID())
	return sched.NewLoop(d.Config.Interval).Add(d).Run(ctx)
}
