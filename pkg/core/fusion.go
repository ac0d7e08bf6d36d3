package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

const (
	// FlowQualityThreshold is the optical flow quality above which a
	// sample refreshes the flow validity timestamp.
	FlowQualityThreshold = 20

	offsetFilterKeep = 0.8
	offsetFilterGain = 0.2
)

func (d *Dispatcher) handleMocap(ch mav.Channel, m *common.MessageViconPositionEstimate) {
	s := d.State
	s.Mocap.Vec3 = vehicle.Vec3{X: m.X, Y: m.Y, Z: m.Z}
	s.Mocap.LastValid = d.Clock.Micros()
	s.MocapNewData = true
	s.MocapOK = true
	s.MocapAttitudeNewData = true

	yaw := vehicle.AngleFromRadians(float64(m.Yaw))
	s.MocapMagReplacement = yaw.HeadingReference()
	if !s.VisionOK {
		ref := yaw.HeadingReference()
		ref.Z = 0
		s.VisionMagReplacement = ref
	}

	if s.EstimationMode == vehicle.EstimationFlowUltrasonicMocapOffset {
		s.SetpointOffset.X = s.SetpointOffset.X*offsetFilterKeep + offsetFilterGain*(s.Position.X-s.Mocap.X)
		s.SetpointOffset.Y = s.SetpointOffset.Y*offsetFilterKeep + offsetFilterGain*(s.Position.Y-s.Mocap.Y)
		s.SetpointOffset.Z = 0
	}

	glog.V(3).Infof("%s: mocap (%.3f, %.3f, %.3f) yaw %.1f", ch, m.X, m.Y, m.Z, yaw.Degrees())

	if ch != mav.Channel1 {
		d.Out.WriteMessage(mav.Channel1, &common.MessageViconPositionEstimate{
			Usec:  s.UnixTime(d.Clock.LoopStart()),
			X:     m.X,
			Y:     m.Y,
			Z:     m.Z,
			Roll:  m.Roll,
			Pitch: m.Pitch,
			Yaw:   m.Yaw,
		})
	}
}

func (d *Dispatcher) handleOpticalFlow(m *common.MessageOpticalFlow) {
	s := d.State
	// the sensor is mounted rotated, swap into body axes
	s.OptFlow.X = -m.FlowCompMY
	s.OptFlow.Y = m.FlowCompMX
	s.OptFlow.Z = float32(m.Quality)
	s.GroundDistance = m.GroundDistance
	if m.Quality > FlowQualityThreshold {
		s.OptFlow.LastValid = d.Clock.Micros()
	}
}
