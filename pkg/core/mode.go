package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/params"
)

func (d *Dispatcher) handleSetMode(m *common.MessageSetMode) {
	if m.TargetSystem != d.SystemID() {
		return
	}
	mode := uint8(m.BaseMode)
	if mode != d.State.MavMode {
		glog.Infof("mode 0x%02x -> 0x%02x", d.State.MavMode, mode)
	}
	d.State.MavMode = mode
	d.SendSystemState()
}

func (d *Dispatcher) handlePositionControlOffset(m *mav.MessageSetPositionControlOffset) {
	tbl := d.Context.Params
	if tbl.Get(params.PositionSetpointAccept) != 1 || tbl.Get(params.PositionYawTracking) != 1 {
		return
	}
	d.State.Setpoint.Yaw = d.State.Attitude.Z + m.Yaw
	glog.V(2).Infof("yaw tracking offset %.3f", m.Yaw)
}

func (d *Dispatcher) handleCamShutter(m *mav.MessageSetCamShutter) {
	glog.Infof("camera shutter interval %d exposure %d", m.Interval, m.Exposure)
	if d.Shutter != nil {
		d.Shutter.SetShutter(m.Interval, m.Exposure)
	}
}

func (d *Dispatcher) handleImageTrigger(m *mav.MessageImageTriggerControl) {
	enable := m.Enable != 0
	if enable {
		glog.Info("camera hardware trigger enabled")
	} else {
		glog.Info("camera hardware trigger disabled")
	}
	if d.Shutter != nil {
		d.Shutter.EnableTrigger(enable)
	}
}
