// Package mav defines the MAVLink dialect spoken on the vehicle links and
// the envelope handed from links to the dispatcher.
package mav

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialect"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// MessageSetLocalPositionSetpoint requests a new local position setpoint.
type MessageSetLocalPositionSetpoint struct {
	TargetSystem    uint8
	TargetComponent uint8
	CoordinateFrame uint8
	X               float32
	Y               float32
	Z               float32
	// Yaw in degrees.
	Yaw float32
}

// GetID implements message.Message.
func (*MessageSetLocalPositionSetpoint) GetID() uint32 { return 50 }

// MessageSetCamShutter configures the camera shutter.
type MessageSetCamShutter struct {
	CamNo      uint8
	CamMode    uint8
	TriggerPin uint8
	Interval   uint16
	Exposure   uint16
	Gain       float32
}

// GetID implements message.Message.
func (*MessageSetCamShutter) GetID() uint32 { return 151 }

// MessageImageTriggerControl enables or disables the camera trigger.
type MessageImageTriggerControl struct {
	Enable uint8
}

// GetID implements message.Message.
func (*MessageImageTriggerControl) GetID() uint32 { return 153 }

// MessageSetPositionControlOffset shifts the position controller.
type MessageSetPositionControlOffset struct {
	TargetSystem    uint8
	TargetComponent uint8
	X               float32
	Y               float32
	Z               float32
	Yaw             float32
}

// GetID implements message.Message.
func (*MessageSetPositionControlOffset) GetID() uint32 { return 160 }

// Dialect contains every message recognized on the vehicle links.
var Dialect = &dialect.Dialect{
	Version: 3,
	Messages: []message.Message{
		&minimal.MessageHeartbeat{},
		&common.MessageSysStatus{},
		&common.MessageSystemTime{},
		&common.MessagePing{},
		&common.MessageSetMode{},
		&common.MessageParamRequestRead{},
		&common.MessageParamRequestList{},
		&common.MessageParamValue{},
		&common.MessageParamSet{},
		&MessageSetLocalPositionSetpoint{},
		&common.MessageRequestDataStream{},
		&common.MessageCommandLong{},
		&common.MessageOpticalFlow{},
		&common.MessageGlobalVisionPositionEstimate{},
		&common.MessageVisionPositionEstimate{},
		&common.MessageViconPositionEstimate{},
		&MessageSetCamShutter{},
		&MessageImageTriggerControl{},
		&MessageSetPositionControlOffset{},
	},
}

// Message IDs used for routing decisions.
var (
	IDVisionPositionEstimate = (&common.MessageVisionPositionEstimate{}).GetID()
	IDMocapPositionEstimate  = (&common.MessageViconPositionEstimate{}).GetID()
	IDImageTriggerControl    = (&MessageImageTriggerControl{}).GetID()
	IDOpticalFlow            = (&common.MessageOpticalFlow{}).GetID()
)
