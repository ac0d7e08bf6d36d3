package params

// Index identifies a well-known entry in the Table.
type Index int

// Well-known parameters. The declaration order is the wire index.
const (
	SystemID Index = iota
	ComponentID
	SystemType
	GPSMode
	PositionSetpointAccept
	PositionYawTracking
	PositionEstimationMode
	SendSlotRawIMU
	SendSlotAttitude
	SendSlotRemoteControl
	SendSlotControllerOutput
	SendSlotDebug2
	SendSlotDebug4
	SendSlotDebug5
	SendSlotDebug6
	SendDebugChannel
	GyroOffsetX
	GyroOffsetY
	GyroOffsetZ
	AttitudeKP
	AttitudeKI
	AttitudeKD
	PositionKP
	PositionKI
	PositionKD

	numEntries
)

// Count is the number of entries in every Table.
const Count = int(numEntries)

// GPSModeDebug makes the raw GPS link print received lines instead of parsing.
const GPSModeDebug = 10

var defaults = [Count]struct {
	name  string
	value float32
}{
	SystemID:                 {"SYS_ID", 42},
	ComponentID:              {"SYS_COMP_ID", 200},
	SystemType:               {"SYS_TYPE", 2},
	GPSMode:                  {"GPS_MODE", 0},
	PositionSetpointAccept:   {"POS_SP_ACCEPT", 0},
	PositionYawTracking:      {"POS_YAW_TRACK", 0},
	PositionEstimationMode:   {"POS_EST_MODE", 2},
	SendSlotRawIMU:           {"SLOT_RAW_IMU", 0},
	SendSlotAttitude:         {"SLOT_ATTITUDE", 1},
	SendSlotRemoteControl:    {"SLOT_RC", 0},
	SendSlotControllerOutput: {"SLOT_CTRL_OUT", 0},
	SendSlotDebug2:           {"SLOT_DEBUG_2", 0},
	SendSlotDebug4:           {"SLOT_DEBUG_4", 0},
	SendSlotDebug5:           {"SLOT_DEBUG_5", 0},
	SendSlotDebug6:           {"SLOT_DEBUG_6", 0},
	SendDebugChannel:         {"DEBUG_CHAN", 0},
	GyroOffsetX:              {"CAL_GYRO_X", 0},
	GyroOffsetY:              {"CAL_GYRO_Y", 0},
	GyroOffsetZ:              {"CAL_GYRO_Z", 0},
	AttitudeKP:               {"ATT_KP", 0.8},
	AttitudeKI:               {"ATT_KI", 0.02},
	AttitudeKD:               {"ATT_KD", 0.3},
	PositionKP:               {"POS_KP", 0.5},
	PositionKI:               {"POS_KI", 0},
	PositionKD:               {"POS_KD", 0.2},
}
