package spatial

import (
	"math"

	"github.com/cwbudde/algo-webaudio/dsp/core"
)

// Pose is a listener's position and orientation. Forward and Up need not be
// unit length but must not be parallel.
type Pose struct {
	Position Vec3
	Forward  Vec3
	Up       Vec3
}

// DefaultPose faces -Z with +Y up at the origin.
func DefaultPose() Pose {
	return Pose{Forward: Vec3{Z: -1}, Up: Vec3{Y: 1}}
}

// Valid reports whether the orientation spans a frame.
func (p Pose) Valid() bool {
	if !p.Position.IsFinite() || !p.Forward.IsFinite() || !p.Up.IsFinite() {
		return false
	}
	return !p.Forward.Cross(p.Up).IsZero()
}

// AzimuthElevation returns the direction of source as seen by the listener,
// in degrees. Azimuth is in [-180, 180] with positive values to the right;
// elevation is in [-90, 90]. A source at the listener position yields (0, 0).
func AzimuthElevation(source Vec3, listener Pose) (azimuth, elevation float64) {
	toSource, ok := source.Sub(listener.Position).Normalize()
	if !ok {
		return 0, 0
	}

	front, ok := listener.Forward.Normalize()
	if !ok {
		return 0, 0
	}
	right, ok := front.Cross(listener.Up).Normalize()
	if !ok {
		return 0, 0
	}
	up := right.Cross(front)

	// Project onto the horizontal plane of the listener.
	upProj := toSource.Dot(up)
	horiz, ok := toSource.Sub(up.Scale(upProj)).Normalize()
	if ok {
		azimuth = degrees(math.Acos(clampUnit(horiz.Dot(right))))
		if horiz.Dot(front) < 0 {
			azimuth = 360 - azimuth
		}
		// Rotate so 0 is straight ahead and positive is to the right.
		if azimuth <= 270 {
			azimuth = 90 - azimuth
		} else {
			azimuth = 450 - azimuth
		}
	}

	elevation = 90 - degrees(math.Acos(clampUnit(upProj)))

	return azimuth, elevation
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clampUnit(x float64) float64 {
	return core.Clamp(x, -1, 1)
}
