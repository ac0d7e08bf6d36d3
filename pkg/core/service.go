package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/params"
)

// streamSlots maps telemetry stream ids to the parameters enabling them.
var streamSlots = map[uint8]params.Index{
	1:  params.SendSlotRawIMU,
	2:  params.SendSlotAttitude,
	3:  params.SendSlotRemoteControl,
	4:  params.SendSlotControllerOutput,
	6:  params.SendSlotDebug5,
	10: params.SendSlotDebug2,
	11: params.SendSlotDebug4,
	12: params.SendSlotDebug6,
}

func (d *Dispatcher) handleSystemTime(m *common.MessageSystemTime) {
	offset := int64(m.TimeUnixUsec) - int64(d.Clock.Micros())
	if d.State.SetUnixOffset(offset) {
		glog.Infof("UNIX offset set to %d usec", offset)
	}
}

func (d *Dispatcher) handlePing(env *mav.Envelope, m *common.MessagePing) {
	if m.TargetSystem != 0 || m.TargetComponent != 0 {
		return
	}
	d.Out.WriteMessage(env.Channel, &common.MessagePing{
		TimeUsec:        d.UnixTime(),
		Seq:             m.Seq,
		TargetSystem:    env.SystemID,
		TargetComponent: env.ComponentID,
	})
}

func (d *Dispatcher) handleRequestDataStream(m *common.MessageRequestDataStream) {
	idx, ok := streamSlots[m.ReqStreamId]
	if !ok {
		return
	}
	glog.Infof("stream %d enabled=%d", m.ReqStreamId, m.StartStop)
	d.Context.Params.Set(idx, float32(m.StartStop))
}
