package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/vehicle"
)

// StateVision is a VisionBuffer keeping the latest estimates in the
// vehicle state.
type StateVision struct {
	State *vehicle.State
	Clock vehicle.TimeSource
}

// HandleVision implements VisionBuffer.
func (v *StateVision) HandleVision(m *common.MessageVisionPositionEstimate) {
	v.State.Vision = vehicle.Estimate{
		Vec3:      vehicle.Vec3{X: m.X, Y: m.Y, Z: m.Z},
		LastValid: v.Clock.Micros(),
	}
	v.State.VisionOK = true
}

// HandleGlobalVision implements VisionBuffer.
func (v *StateVision) HandleGlobalVision(m *common.MessageGlobalVisionPositionEstimate) {
	v.State.GlobalVision = vehicle.Estimate{
		Vec3:      vehicle.Vec3{X: m.X, Y: m.Y, Z: m.Z},
		LastValid: v.Clock.Micros(),
	}
}

// LogShutter is a Shutter for vehicles without camera trigger hardware.
type LogShutter struct{}

// SetShutter implements Shutter.
func (LogShutter) SetShutter(interval, exposure uint16) {
	glog.V(1).Infof("no shutter hardware, interval %d exposure %d ignored", interval, exposure)
}

// EnableTrigger implements Shutter.
func (LogShutter) EnableTrigger(enable bool) {
	glog.V(1).Infof("no shutter hardware, trigger %v ignored", enable)
}

// StatusCalibrator reports CALIBRATING for Duration after a calibration
// request while the sampling runs outside this package.
type StatusCalibrator struct {
	State    *vehicle.State
	Clock    vehicle.TimeSource
	Duration uint64

	prev  vehicle.Status
	start uint64
	busy  bool
}

// StartGyroCalibration implements Calibrator.
func (c *StatusCalibrator) StartGyroCalibration() {
	if c.busy {
		return
	}
	c.prev, c.start, c.busy = c.State.Status, c.Clock.Micros(), true
	c.State.Status = vehicle.StatusCalibrating
}

// Update restores the previous status once Duration has elapsed.
func (c *StatusCalibrator) Update() {
	if c.busy && c.Clock.Micros()-c.start >= c.Duration {
		c.State.Status, c.busy = c.prev, false
		glog.Info("gyro calibration finished")
	}
}
