// Package hrtf renders mono audio binaurally from a grid of measured
// head-related impulse responses.
//
// A Database holds one stereo impulse response per grid point: 24 azimuths
// spaced 15 degrees apart times 10 elevations from -45 to +90 degrees. Grid
// azimuths follow the IRCAM convention (counter-clockwise seen from above,
// 90 is the left ear); the lookup methods take listener azimuths (positive to
// the right) and convert. Responses between grid points are interpolated
// bilinearly in the time domain.
package hrtf

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-webaudio/dsp/core"
)

// Grid layout.
const (
	AzimuthSpacing   = 15
	NumAzimuths      = 360 / AzimuthSpacing
	ElevationSpacing = 15
	MinElevation     = -45
	MaxElevation     = 90
	NumElevations    = (MaxElevation-MinElevation)/ElevationSpacing + 1

	// DatasetSampleRate is the rate the IRCAM responses are recorded at.
	DatasetSampleRate = 44100
	// DefaultKernelLength is the response length at DatasetSampleRate.
	DefaultKernelLength = 256
)

// Errors returned by database construction and loading.
var (
	ErrDataset = errors.New("hrtf: invalid dataset")
	ErrOption  = errors.New("hrtf: invalid option")
)

// maxElevations is the highest measured elevation per grid azimuth.
var maxElevations = [NumAzimuths]int{
	90, 45, 60, 45, 75, 45, 60, 45, 75, 45, 60, 45,
	75, 45, 60, 45, 75, 45, 60, 45, 75, 45, 60, 45,
}

// MeasuredElevation clamps elevation to the highest measured elevation of
// the grid azimuth index.
func MeasuredElevation(azimuthIndex, elevation int) int {
	return min(elevation, maxElevations[azimuthIndex%NumAzimuths])
}

// Response is the impulse response pair of one direction.
type Response struct {
	Left, Right []float64
}

// ResponseFunc supplies the response measured at a grid azimuth (IRCAM
// convention, degrees) and elevation (degrees, already clamped with
// MeasuredElevation).
type ResponseFunc func(azimuth, elevation int) (Response, error)

// Database is an immutable, fully loaded response grid at one sample rate.
// It is safe for concurrent use.
type Database struct {
	sampleRate float64
	kernelLen  int
	grid       [NumElevations][NumAzimuths]Response
}

// KernelLengthFor scales DefaultKernelLength to sampleRate.
func KernelLengthFor(sampleRate float64) int {
	return max(1, int(math.Round(DefaultKernelLength*sampleRate/DatasetSampleRate)))
}

// NewDatabase builds a database by querying source for every grid point.
// Responses are truncated or zero-padded to kernelLen.
func NewDatabase(sampleRate float64, kernelLen int, source ResponseFunc) (*Database, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate %v", ErrOption, sampleRate)
	}
	if kernelLen <= 0 {
		return nil, fmt.Errorf("%w: kernel length %d", ErrOption, kernelLen)
	}

	db := &Database{sampleRate: sampleRate, kernelLen: kernelLen}

	for ei := range NumElevations {
		elevation := MinElevation + ei*ElevationSpacing
		for ai := range NumAzimuths {
			r, err := source(ai*AzimuthSpacing, MeasuredElevation(ai, elevation))
			if err != nil {
				return nil, err
			}
			if len(r.Left) == 0 || len(r.Right) == 0 {
				return nil, fmt.Errorf("%w: empty response at azimuth %d elevation %d", ErrDataset, ai*AzimuthSpacing, elevation)
			}
			db.grid[ei][ai] = Response{
				Left:  fitLength(r.Left, kernelLen),
				Right: fitLength(r.Right, kernelLen),
			}
		}
	}

	return db, nil
}

func fitLength(src []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, src)
	return out
}

// SampleRate returns the rate the responses are stored at.
func (db *Database) SampleRate() float64 { return db.sampleRate }

// KernelLength returns the response length in samples.
func (db *Database) KernelLength() int { return db.kernelLen }

// GridResponse returns a copy of the response stored at a grid index.
func (db *Database) GridResponse(azimuthIndex, elevationIndex int) (Response, bool) {
	if azimuthIndex < 0 || azimuthIndex >= NumAzimuths || elevationIndex < 0 || elevationIndex >= NumElevations {
		return Response{}, false
	}
	r := db.grid[elevationIndex][azimuthIndex]
	return Response{
		Left:  append([]float64(nil), r.Left...),
		Right: append([]float64(nil), r.Right...),
	}, true
}

// Kernels writes the interpolated responses for a listener-relative
// direction into left and right, which must have KernelLength() samples.
// Azimuth is in degrees with positive values to the right; elevation is
// clamped to [MinElevation, MaxElevation].
func (db *Database) Kernels(azimuth, elevation float64, left, right []float64) {
	// Listener azimuth runs clockwise, the grid counter-clockwise.
	gridAz := math.Mod(-azimuth, 360)
	if gridAz < 0 {
		gridAz += 360
	}

	fa := gridAz / AzimuthSpacing
	a0 := int(fa) % NumAzimuths
	a1 := (a0 + 1) % NumAzimuths
	xa := fa - math.Floor(fa)

	elevation = core.Clamp(elevation, MinElevation, MaxElevation)
	fe := (elevation - MinElevation) / ElevationSpacing
	e0 := min(int(fe), NumElevations-1)
	e1 := min(e0+1, NumElevations-1)
	xe := fe - float64(e0)

	w00 := (1 - xe) * (1 - xa)
	w01 := (1 - xe) * xa
	w10 := xe * (1 - xa)
	w11 := xe * xa

	r00, r01 := &db.grid[e0][a0], &db.grid[e0][a1]
	r10, r11 := &db.grid[e1][a0], &db.grid[e1][a1]

	for i := range db.kernelLen {
		left[i] = w00*r00.Left[i] + w01*r01.Left[i] + w10*r10.Left[i] + w11*r11.Left[i]
		right[i] = w00*r00.Right[i] + w01*r01.Right[i] + w10*r10.Right[i] + w11*r11.Right[i]
	}
}
