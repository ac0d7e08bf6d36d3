// Package core implements the message handling of the flight controller:
// dispatching, parameters, commands, setpoints and sensor ingestion.
//
// Everything in this package runs on the single scheduler goroutine which
// owns the Context. Nothing here is safe for concurrent use.
package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/params"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

// Outlet transmits on the vehicle links.
type Outlet interface {
	// WriteMessage encodes msg and queues it on ch.
	WriteMessage(ch mav.Channel, msg message.Message)
	// WriteFrame queues fr on ch unchanged.
	WriteFrame(ch mav.Channel, fr frame.Frame)
}

// Calibrator starts onboard calibration routines.
type Calibrator interface {
	StartGyroCalibration()
}

// VisionBuffer consumes vision position estimates.
type VisionBuffer interface {
	HandleVision(*common.MessageVisionPositionEstimate)
	HandleGlobalVision(*common.MessageGlobalVisionPositionEstimate)
}

// Shutter drives the camera trigger hardware.
type Shutter interface {
	SetShutter(interval, exposure uint16)
	EnableTrigger(enable bool)
}

// Context is the state shared by all handlers.
type Context struct {
	Params *params.Table
	State  *vehicle.State
	Clock  vehicle.TimeSource
	Out    Outlet

	// Collaborators, any of them may be nil.
	Storage    params.Storage
	Calibrator Calibrator
	Vision     VisionBuffer
	Shutter    Shutter
}

// SystemID returns the configured system id.
func (c *Context) SystemID() uint8 {
	return uint8(c.Params.Get(params.SystemID))
}

// ComponentID returns the configured component id.
func (c *Context) ComponentID() uint8 {
	return uint8(c.Params.Get(params.ComponentID))
}

// SyncParams refreshes the state fields configured by parameters.
func (c *Context) SyncParams() {
	c.State.EstimationMode = vehicle.EstimationMode(c.Params.Get(params.PositionEstimationMode))
}

func (c *Context) addressed(system, component uint8) bool {
	return system == c.SystemID() && component == c.ComponentID()
}

// UnixTime returns the current UNIX time (usec) derived from the local clock.
func (c *Context) UnixTime() uint64 {
	return c.State.UnixTime(c.Clock.Micros())
}

func (c *Context) broadcast(msg message.Message) {
	for _, ch := range mav.Channels {
		c.Out.WriteMessage(ch, msg)
	}
}
