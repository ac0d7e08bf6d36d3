package core

import (
	"math"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"

	"github.com/robotalks/fc.go/pkg/params"
)

const (
	autopilotPX4   = 12
	mavlinkVersion = 3
)

// SendSystemState emits a heartbeat and the system status on both links.
func (d *Dispatcher) SendSystemState() {
	s := d.State
	d.broadcast(&minimal.MessageHeartbeat{
		Type:           minimal.MAV_TYPE(d.Context.Params.Get(params.SystemType)),
		Autopilot:      autopilotPX4,
		BaseMode:       minimal.MAV_MODE_FLAG(s.MavMode),
		CustomMode:     uint32(s.MavMode),
		SystemStatus:   minimal.MAV_STATE(s.Status),
		MavlinkVersion: mavlinkVersion,
	})

	rate := s.Comm.DropRate()
	if rate > math.MaxUint16 {
		rate = math.MaxUint16
	}
	d.broadcast(&common.MessageSysStatus{
		OnboardControlSensorsPresent: common.MAV_SYS_STATUS_SENSOR(s.Sensors.Present),
		OnboardControlSensorsEnabled: common.MAV_SYS_STATUS_SENSOR(s.Sensors.Enabled),
		OnboardControlSensorsHealth:  common.MAV_SYS_STATUS_SENSOR(s.Sensors.Health),
		Load:                         s.CPUUsage,
		VoltageBattery:               s.BatteryMV,
		CurrentBattery:               -1,
		BatteryRemaining:             -1,
		DropRateComm:                 uint16(rate),
		ErrorsCount1:                 s.I2C0Errs,
		ErrorsCount2:                 s.I2C1Errs,
		ErrorsCount3:                 s.SPIErrs,
		ErrorsCount4:                 s.SPIErrs,
	})
}
