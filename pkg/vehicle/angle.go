package vehicle

import "math"

// Angle is an angle in radians within (-Pi, Pi].
type Angle float64

// AngleFromRadians creates a normalized Angle.
func AngleFromRadians(r float64) Angle {
	return Angle(normalizeRadians(r))
}

// AngleFromDegrees creates a normalized Angle from degrees.
func AngleFromDegrees(d float64) Angle {
	return AngleFromRadians(d * math.Pi / 180.0)
}

// Radians gets angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Cos wraps math.Cos.
func (a Angle) Cos() float64 {
	return math.Cos(float64(a))
}

// Sin wraps math.Sin.
func (a Angle) Sin() float64 {
	return math.Sin(float64(a))
}

// HeadingReference returns the synthetic magnetometer vector for a yaw,
// used when an external system provides the heading.
func (a Angle) HeadingReference() Vec3 {
	return Vec3{
		X: float32(230 * a.Cos()),
		Y: float32(-230 * a.Sin()),
		Z: 480,
	}
}

// DegreesToRadians converts without normalizing.
func DegreesToRadians(d float32) float32 {
	return d / 180 * math.Pi
}

func normalizeRadians(r float64) float64 {
	if r >= 2*math.Pi || r <= -2*math.Pi {
		r = math.Remainder(r, 2*math.Pi)
	}
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r < -math.Pi {
		r += 2 * math.Pi
	}
	return r
}
