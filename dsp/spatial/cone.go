package spatial

import (
	"fmt"
	"math"
)

// ConeEffect attenuates a directional source when the listener is outside
// its emission cone. Angles are full cone widths in degrees.
type ConeEffect struct {
	InnerAngle float64
	OuterAngle float64
	OuterGain  float64
}

// DefaultConeEffect is omnidirectional.
func DefaultConeEffect() ConeEffect {
	return ConeEffect{InnerAngle: 360, OuterAngle: 360, OuterGain: 0}
}

// Validate checks 0 <= inner <= outer <= 360 and 0 <= outerGain <= 1.
func (c ConeEffect) Validate() error {
	if !(c.InnerAngle >= 0 && c.InnerAngle <= c.OuterAngle && c.OuterAngle <= 360) {
		return fmt.Errorf("%w: need 0 <= inner (%v) <= outer (%v) <= 360", ErrInvalidCone, c.InnerAngle, c.OuterAngle)
	}
	if !(c.OuterGain >= 0 && c.OuterGain <= 1) {
		return fmt.Errorf("%w: outer gain %v outside [0, 1]", ErrInvalidCone, c.OuterGain)
	}
	return nil
}

// Gain returns the cone attenuation for a source at sourcePos facing
// orientation, heard from listenerPos. A zero orientation or a full 360
// degree cone yields 1.
func (c ConeEffect) Gain(sourcePos, orientation, listenerPos Vec3) float64 {
	if orientation.IsZero() || (c.InnerAngle == 360 && c.OuterAngle == 360) {
		return 1
	}

	toListener, ok := listenerPos.Sub(sourcePos).Normalize()
	if !ok {
		return 1
	}
	facing, _ := orientation.Normalize()

	angle := degrees(math.Acos(clampUnit(toListener.Dot(facing))))

	innerHalf := c.InnerAngle / 2
	outerHalf := c.OuterAngle / 2

	switch {
	case angle <= innerHalf:
		return 1
	case angle >= outerHalf:
		return c.OuterGain
	default:
		x := (angle - innerHalf) / (outerHalf - innerHalf)
		return (1 - x) + c.OuterGain*x
	}
}
