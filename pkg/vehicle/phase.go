package vehicle

// Phase is the flight phase.
type Phase int

// Flight phases.
const (
	PhaseGrounded Phase = iota
	PhaseWaitMotors
	PhaseRampUp
	PhaseStarting
	PhaseFlying
	PhaseSinking
	PhaseWaitLanding
	PhaseLanding
	PhaseRampDown
)

var phaseNames = [...]string{
	"GROUNDED", "WAIT_MOTORS", "RAMP_UP", "STARTING", "FLYING",
	"SINKING", "WAIT_LANDING", "LANDING", "RAMP_DOWN",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "UNKNOWN"
}
