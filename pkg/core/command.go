package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/golang/glog"
)

// ExecuteCommand runs a long command. Results are not reported back over
// the link.
func (d *Dispatcher) ExecuteCommand(cmd *common.MessageCommandLong) {
	switch cmd.Command {
	case common.MAV_CMD_PREFLIGHT_STORAGE:
		switch cmd.Param1 {
		case 0:
			glog.Info("loading parameters")
			d.loadParams()
		case 1:
			glog.Info("saving parameters")
			d.saveParams()
		}
	case common.MAV_CMD_PREFLIGHT_CALIBRATION:
		if cmd.Param1 == 1 {
			glog.Info("starting gyro calibration")
			if d.Calibrator != nil {
				d.Calibrator.StartGyroCalibration()
			}
			d.ParamServer.RequestList()
		}
	default:
		glog.Warningf("rejected unknown command %d", uint32(cmd.Command))
	}
}

func (d *Dispatcher) loadParams() {
	if d.Storage == nil {
		glog.Warning("no parameter storage configured")
		return
	}
	if err := d.Storage.Load(d.Context.Params); err != nil {
		glog.Errorf("load parameters: %v", err)
	}
	d.SyncParams()
}

func (d *Dispatcher) saveParams() {
	if d.Storage == nil {
		glog.Warning("no parameter storage configured")
		return
	}
	if err := d.Storage.Save(d.Context.Params); err != nil {
		glog.Errorf("save parameters: %v", err)
	}
}
