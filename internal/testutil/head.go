package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-webaudio/dsp/hrtf"
)

// SphericalHead returns an HRTF database from a crude spherical head: each
// ear hears a delayed impulse whose delay and gain depend on how far the
// ear is turned away from the source. Responses change smoothly with
// direction, which is all rendering tests need.
func SphericalHead(t testing.TB, sampleRate float64, kernelLen int) *hrtf.Database {
	t.Helper()

	const maxDelay = 8

	db, err := hrtf.NewDatabase(sampleRate, kernelLen, func(azimuth, elevation int) (hrtf.Response, error) {
		az := float64(azimuth) * math.Pi / 180
		el := float64(elevation) * math.Pi / 180
		// Grid azimuths put the left ear at 90; +1 is the right ear.
		lateral := -math.Sin(az) * math.Cos(el)

		ear := func(side float64) []float64 {
			facing := 0.5 * (1 + side*lateral)
			ir := make([]float64, maxDelay+2)
			pos := maxDelay * (1 - facing)
			i := int(pos)
			frac := pos - float64(i)
			gain := 0.3 + 0.7*facing
			ir[i] = gain * (1 - frac)
			ir[i+1] = gain * frac
			return ir
		}

		return hrtf.Response{Left: ear(-1), Right: ear(1)}, nil
	})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	return db
}
