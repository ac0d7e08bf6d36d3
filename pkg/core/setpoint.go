package core

import (
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/flight"
	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/params"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

func (d *Dispatcher) handleSetpoint(m *mav.MessageSetLocalPositionSetpoint) {
	if m.TargetSystem != d.SystemID() {
		return
	}
	tbl := d.Context.Params
	if tbl.Get(params.PositionSetpointAccept) != 1 {
		glog.Warning("setpoint refused, setpoints not accepted")
		return
	}
	s := d.State
	req := vehicle.Vec3{X: m.X, Y: m.Y, Z: m.Z}
	res := flight.Transition(s.Fly, s.Status, s.Armed(), req, s.SetpointBounds)
	if !res.Accepted {
		glog.Warningf("setpoint refused, (%.2f, %.2f, %.2f) out of range", m.X, m.Y, m.Z)
		return
	}

	s.Setpoint.Position = vehicle.Vec3{X: m.X, Y: m.Y, Z: res.Z}
	if tbl.Get(params.PositionYawTracking) == 0 {
		s.Setpoint.Yaw = vehicle.DegreesToRadians(m.Yaw)
	}
	if res.Changed(s.Fly) {
		glog.Infof("flight phase %s -> %s, z-setpoint %.2f", s.Fly, res.Phase, res.Z)
		s.Fly = res.Phase
	}
	glog.V(1).Infof("setpoint accepted (%.2f, %.2f, %.2f)", m.X, m.Y, res.Z)
}
