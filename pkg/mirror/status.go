package mirror

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/fc.go/pkg/vehicle"
)

// Status is the periodic vehicle snapshot published by the mirror.
type Status struct {
	TimeUsec  uint64  `protobuf:"varint,1,opt,name=time_usec,proto3" json:"time_usec,omitempty"`
	Status    string  `protobuf:"bytes,2,opt,name=status,proto3" json:"status,omitempty"`
	Phase     string  `protobuf:"bytes,3,opt,name=phase,proto3" json:"phase,omitempty"`
	MavMode   uint32  `protobuf:"varint,4,opt,name=mav_mode,proto3" json:"mav_mode,omitempty"`
	Armed     bool    `protobuf:"varint,5,opt,name=armed,proto3" json:"armed,omitempty"`
	Position  *Vector `protobuf:"bytes,6,opt,name=position,proto3" json:"position,omitempty"`
	Setpoint  *Vector `protobuf:"bytes,7,opt,name=setpoint,proto3" json:"setpoint,omitempty"`
	Yaw       float32 `protobuf:"fixed32,8,opt,name=yaw,proto3" json:"yaw,omitempty"`
	GpsOk     bool    `protobuf:"varint,9,opt,name=gps_ok,proto3" json:"gps_ok,omitempty"`
	VisionOk  bool    `protobuf:"varint,10,opt,name=vision_ok,proto3" json:"vision_ok,omitempty"`
	MocapOk   bool    `protobuf:"varint,11,opt,name=mocap_ok,proto3" json:"mocap_ok,omitempty"`
	DropRate  uint32  `protobuf:"varint,12,opt,name=drop_rate,proto3" json:"drop_rate,omitempty"`
	BatteryMv uint32  `protobuf:"varint,13,opt,name=battery_mv,proto3" json:"battery_mv,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// Vector is a 3-D vector.
type Vector struct {
	X float32 `protobuf:"fixed32,1,opt,name=x,proto3" json:"x,omitempty"`
	Y float32 `protobuf:"fixed32,2,opt,name=y,proto3" json:"y,omitempty"`
	Z float32 `protobuf:"fixed32,3,opt,name=z,proto3" json:"z,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Vector) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Vector) Reset() { *m = Vector{} }

// String implements proto.Message.
func (m *Vector) String() string { return proto.CompactTextString(m) }

func vector(v vehicle.Vec3) *Vector {
	return &Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// Snapshot copies the reportable part of s.
func Snapshot(s *vehicle.State, unixUsec uint64) *Status {
	return &Status{
		TimeUsec:  unixUsec,
		Status:    s.Status.String(),
		Phase:     s.Fly.String(),
		MavMode:   uint32(s.MavMode),
		Armed:     s.Armed(),
		Position:  vector(s.Position),
		Setpoint:  vector(s.Setpoint.Position),
		Yaw:       s.Setpoint.Yaw,
		GpsOk:     s.GPSOK,
		VisionOk:  s.VisionOK,
		MocapOk:   s.MocapOK,
		DropRate:  s.Comm.DropRate(),
		BatteryMv: uint32(s.BatteryMV),
	}
}
