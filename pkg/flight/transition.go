// Package flight holds the flight-phase state machine driven by position
// setpoints.
package flight

import (
	"github.com/robotalks/fc.go/pkg/vehicle"
)

// Heights on the z axis (NED, negative is up).
const (
	// LandingThreshold: requests above it ask for landing.
	LandingThreshold = -0.1
	// PreLandingZ is the z-setpoint used while descending for landing.
	PreLandingZ float32 = -0.2
	// TakeoffThreshold: requests below it ask a grounded vehicle to start.
	TakeoffThreshold = -0.50
	// SafetyDescentZ is forced on CRITICAL and EMERGENCY.
	SafetyDescentZ float32 = -0.7
)

// Result is the outcome of a setpoint request.
type Result struct {
	// Accepted is false when the request lies outside the bounds.
	Accepted bool
	Phase    vehicle.Phase
	// Z is the effective z-setpoint to store.
	Z float32
}

// Changed reports whether the phase differs from prev.
func (r Result) Changed(prev vehicle.Phase) bool {
	return r.Phase != prev
}

// Transition evaluates a position setpoint request against the current
// phase. It is pure, the caller applies the Result.
func Transition(phase vehicle.Phase, status vehicle.Status, armed bool, req vehicle.Vec3, bounds vehicle.Bounds) Result {
	if !bounds.Contains(req) {
		return Result{Phase: phase, Z: req.Z}
	}
	res := Result{Accepted: true, Phase: phase, Z: req.Z}
	z := float64(req.Z)
	if status == vehicle.StatusActive || status == vehicle.StatusCritical {
		switch {
		case z > LandingThreshold && !landingOrGrounded(phase):
			res.Phase, res.Z = vehicle.PhaseSinking, PreLandingZ
		case z > LandingThreshold && phase != vehicle.PhaseGrounded:
			res.Z = PreLandingZ
		case z > LandingThreshold:
		case phase == vehicle.PhaseGrounded && z < TakeoffThreshold && armed:
			res.Phase = vehicle.PhaseWaitMotors
		}
	}
	if status == vehicle.StatusEmergency || status == vehicle.StatusCritical {
		res.Z = SafetyDescentZ
	}
	return res
}

func landingOrGrounded(p vehicle.Phase) bool {
	switch p {
	case vehicle.PhaseGrounded,
		vehicle.PhaseSinking,
		vehicle.PhaseWaitLanding,
		vehicle.PhaseLanding,
		vehicle.PhaseRampDown:
		return true
	}
	return false
}
