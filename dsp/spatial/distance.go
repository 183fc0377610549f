package spatial

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-webaudio/dsp/core"
)

// Errors returned by parameter validation.
var (
	ErrInvalidDistance = errors.New("spatial: invalid distance parameters")
	ErrInvalidCone     = errors.New("spatial: invalid cone parameters")
	ErrUnknownModel    = errors.New("spatial: unknown model")
)

// DistanceModel selects the attenuation curve.
type DistanceModel int

const (
	// Inverse attenuates as ref / (ref + rolloff*(d-ref)).
	Inverse DistanceModel = iota
	// Linear attenuates linearly between ref and max distance.
	Linear
	// Exponential attenuates as (d/ref)^-rolloff.
	Exponential
)

func (m DistanceModel) String() string {
	switch m {
	case Linear:
		return "linear"
	case Inverse:
		return "inverse"
	case Exponential:
		return "exponential"
	default:
		return fmt.Sprintf("DistanceModel(%d)", int(m))
	}
}

// ParseDistanceModel parses "linear", "inverse" or "exponential".
func ParseDistanceModel(s string) (DistanceModel, error) {
	switch strings.ToLower(s) {
	case "linear":
		return Linear, nil
	case "inverse":
		return Inverse, nil
	case "exponential":
		return Exponential, nil
	default:
		return 0, fmt.Errorf("%w: distance model %q", ErrUnknownModel, s)
	}
}

// DistanceEffect maps source-listener distance to a gain.
type DistanceEffect struct {
	Model         DistanceModel
	RefDistance   float64
	MaxDistance   float64
	RolloffFactor float64
}

// DefaultDistanceEffect returns inverse attenuation with ref 1, max 10000
// and rolloff 1.
func DefaultDistanceEffect() DistanceEffect {
	return DistanceEffect{
		Model:         Inverse,
		RefDistance:   1,
		MaxDistance:   10000,
		RolloffFactor: 1,
	}
}

// Validate checks ref > 0, max >= ref and rolloff >= 0.
func (d DistanceEffect) Validate() error {
	switch {
	case d.Model < Inverse || d.Model > Exponential:
		return fmt.Errorf("%w: %v", ErrUnknownModel, d.Model)
	case !(d.RefDistance > 0) || math.IsInf(d.RefDistance, 0):
		return fmt.Errorf("%w: refDistance must be > 0, got %v", ErrInvalidDistance, d.RefDistance)
	case !(d.MaxDistance >= d.RefDistance):
		return fmt.Errorf("%w: maxDistance %v < refDistance %v", ErrInvalidDistance, d.MaxDistance, d.RefDistance)
	case !(d.RolloffFactor >= 0) || math.IsInf(d.RolloffFactor, 0):
		return fmt.Errorf("%w: rolloffFactor must be >= 0, got %v", ErrInvalidDistance, d.RolloffFactor)
	}
	return nil
}

// Gain returns the attenuation for distance. The result is non-increasing in
// distance and never negative.
func (d DistanceEffect) Gain(distance float64) float64 {
	switch d.Model {
	case Linear:
		return d.linearGain(distance)
	case Exponential:
		return d.exponentialGain(distance)
	default:
		return d.inverseGain(distance)
	}
}

func (d DistanceEffect) linearGain(distance float64) float64 {
	span := d.MaxDistance - d.RefDistance
	var x float64
	switch {
	case span <= 0:
		if distance > d.RefDistance {
			x = 1
		}
	default:
		x = core.Clamp((distance-d.RefDistance)/span, 0, 1)
	}
	return math.Max(0, 1-d.RolloffFactor*x)
}

func (d DistanceEffect) inverseGain(distance float64) float64 {
	return d.RefDistance / (d.RefDistance + d.RolloffFactor*math.Max(distance-d.RefDistance, 0))
}

func (d DistanceEffect) exponentialGain(distance float64) float64 {
	distance = math.Max(distance, d.RefDistance)
	return math.Pow(distance/d.RefDistance, -d.RolloffFactor)
}
