package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/mav"
)

// Messages arriving on a channel that are never forwarded to the other one.
var forwardExclusions = [mav.NumChannels]map[uint32]bool{
	mav.Channel1: {
		mav.IDVisionPositionEstimate: true,
		mav.IDMocapPositionEstimate:  true,
		mav.IDImageTriggerControl:    true,
		mav.IDOpticalFlow:            true,
	},
	mav.Channel2: {
		mav.IDVisionPositionEstimate: true,
		mav.IDMocapPositionEstimate:  true,
		mav.IDImageTriggerControl:    true,
	},
}

// Forwardable reports whether a message with msgID arriving on ch is
// copied to the other channel.
func Forwardable(ch mav.Channel, msgID uint32) bool {
	return !forwardExclusions[ch][msgID]
}

// Dispatcher routes decoded messages to their handlers.
type Dispatcher struct {
	*Context
	ParamServer *ParamProtocol
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(ctx *Context) *Dispatcher {
	return &Dispatcher{Context: ctx, ParamServer: &ParamProtocol{Context: ctx}}
}

// Dispatch forwards env across links when allowed and invokes the handler
// for its message type. Unrecognized messages are ignored.
func (d *Dispatcher) Dispatch(env *mav.Envelope) {
	if env.Frame != nil && Forwardable(env.Channel, env.ID()) {
		d.Out.WriteFrame(env.Channel.Other(), env.Frame)
	}

	switch msg := env.Message.(type) {
	case *minimal.MessageHeartbeat, *common.MessageSysStatus, *common.MessageParamValue:
		// only forwarded
	case *common.MessageSetMode:
		d.handleSetMode(msg)
	case *common.MessageCommandLong:
		d.ExecuteCommand(msg)
	case *common.MessageSystemTime:
		d.handleSystemTime(msg)
	case *common.MessageRequestDataStream:
		d.handleRequestDataStream(msg)
	case *common.MessageParamRequestRead:
		d.ParamServer.RequestRead(env.Channel, msg)
	case *common.MessageParamRequestList:
		d.ParamServer.RequestList()
	case *common.MessageParamSet:
		d.ParamServer.Set(msg)
	case *mav.MessageSetPositionControlOffset:
		d.handlePositionControlOffset(msg)
	case *mav.MessageSetCamShutter:
		d.handleCamShutter(msg)
	case *mav.MessageImageTriggerControl:
		d.handleImageTrigger(msg)
	case *common.MessageVisionPositionEstimate:
		if d.Vision != nil {
			d.Vision.HandleVision(msg)
		}
	case *common.MessageGlobalVisionPositionEstimate:
		if d.Vision != nil {
			d.Vision.HandleGlobalVision(msg)
		}
	case *common.MessageViconPositionEstimate:
		d.handleMocap(env.Channel, msg)
	case *common.MessageOpticalFlow:
		d.handleOpticalFlow(msg)
	case *common.MessagePing:
		d.handlePing(env, msg)
	case *mav.MessageSetLocalPositionSetpoint:
		d.handleSetpoint(msg)
	default:
		glog.V(4).Infof("%s: ignore message %d", env.Channel, env.ID())
	}
}
