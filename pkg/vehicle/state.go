package vehicle

// Status is the supervisory system status, numerically equal to MAV_STATE.
type Status uint8

// Statuses.
const (
	StatusUninit Status = iota
	StatusBoot
	StatusCalibrating
	StatusStandby
	StatusActive
	StatusCritical
	StatusEmergency
	StatusPoweroff
)

var statusNames = [...]string{
	"UNINIT", "BOOT", "CALIBRATING", "STANDBY", "ACTIVE", "CRITICAL", "EMERGENCY", "POWEROFF",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// ModeFlagSafetyArmed is the armed bit of the mode bitmask.
const ModeFlagSafetyArmed uint8 = 0x80

// EstimationMode selects the position estimation strategy.
type EstimationMode int

// Estimation modes.
const (
	EstimationFlowUltrasonic EstimationMode = iota
	EstimationFlowUltrasonicIntegrating
	EstimationFlowUltrasonicMocapOffset
	EstimationGlobalVision
)

// Vec3 is a 3-D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Bounds is an axis aligned box, inclusive on both ends.
type Bounds struct {
	Min, Max Vec3
}

// Contains reports whether p lies within the bounds.
func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Setpoint is the commanded position and yaw (radians).
type Setpoint struct {
	Position Vec3
	Yaw      float32
}

// Estimate is an externally supplied measurement.
type Estimate struct {
	Vec3
	// LastValid is the local time (usec) of the last accepted update.
	LastValid uint64
}

// LinkStats counts frames received on one link.
type LinkStats struct {
	Drops     uint32
	Successes uint32
}

// DropRate returns the per-mille style drop metric of the link.
func (s LinkStats) DropRate() uint32 {
	return (s.Drops*1000 + 1) / (s.Successes + 1)
}

// CommStats holds statistics for both links.
type CommStats struct {
	Links [2]LinkStats
}

// DropRate sums the drop metric of both links.
func (c *CommStats) DropRate() uint32 {
	var rate uint32
	for _, l := range c.Links {
		rate += l.DropRate()
	}
	return rate
}

// Sensors describes onboard sensors as MAV_SYS_STATUS_SENSOR bitmasks.
type Sensors struct {
	Present uint32
	Enabled uint32
	Health  uint32
}

// State is the shared vehicle state. It is owned by the scheduler task and
// is never accessed concurrently.
type State struct {
	MavMode uint8
	Status  Status
	Fly     Phase

	Attitude Vec3
	Position Vec3

	Vision       Estimate
	GlobalVision Estimate
	VisionOK     bool
	Mocap        Estimate
	MocapOK      bool
	OptFlow      Estimate
	GPSOK        bool

	// MocapNewData and MocapAttitudeNewData signal a fresh motion-capture
	// sample to the estimators.
	MocapNewData         bool
	MocapAttitudeNewData bool
	MocapMagReplacement  Vec3
	VisionMagReplacement Vec3

	GroundDistance   float32
	EstimationMode   EstimationMode
	SetpointOffset   Vec3
	SetpointBounds   Bounds
	Setpoint         Setpoint
	unixOffset       int64
	unixOffsetLocked bool

	Comm      CommStats
	Sensors   Sensors
	CPUUsage  uint16
	BatteryMV uint16
	I2C0Errs  uint16
	I2C1Errs  uint16
	SPIErrs   uint16
}

// NewState creates the power-on state.
func NewState() *State {
	return &State{
		Status: StatusBoot,
		Fly:    PhaseGrounded,
		SetpointBounds: Bounds{
			Min: Vec3{X: -5, Y: -5, Z: -3},
			Max: Vec3{X: 5, Y: 5, Z: 0},
		},
	}
}

// Armed reports whether the armed bit is set.
func (s *State) Armed() bool {
	return s.MavMode&ModeFlagSafetyArmed != 0
}

// SetUnixOffset records the UNIX time offset. Only the first call has any
// effect, it returns false afterwards.
func (s *State) SetUnixOffset(offset int64) bool {
	if s.unixOffsetLocked {
		return false
	}
	s.unixOffset, s.unixOffsetLocked = offset, true
	return true
}

// UnixOffset returns the offset and whether it has been set.
func (s *State) UnixOffset() (int64, bool) {
	return s.unixOffset, s.unixOffsetLocked
}

// UnixTime converts a local timestamp into UNIX time (usec).
func (s *State) UnixTime(local uint64) uint64 {
	return uint64(int64(local) + s.unixOffset)
}
