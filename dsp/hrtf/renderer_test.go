package hrtf

import (
	"math"
	"testing"
)

// delayDatabase delays the left ear by one sample and scales the right ear
// by half, independent of direction.
func delayDatabase(t *testing.T, kernelLen int) *Database {
	t.Helper()

	db, err := NewDatabase(44100, kernelLen, func(int, int) (Response, error) {
		return Response{Left: []float64{0, 1}, Right: []float64{0.5}}, nil
	})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	return db
}

func TestRendererAppliesResponses(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(delayDatabase(t, 8), 16)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	in := make([]float64, 64)
	for i := range in {
		in[i] = math.Sin(float64(i) * 0.3)
	}

	outL := make([]float64, 16)
	outR := make([]float64, 16)
	prev := 0.0
	for b := range 4 {
		block := in[b*16 : (b+1)*16]
		// Direction changes every block; identical responses make the
		// crossfade invisible.
		if err := r.Process(outL, outR, [][]float64{block}, float64(b*40), float64(b*10)); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		for i := range 16 {
			wantL := prev
			if i > 0 {
				wantL = block[i-1]
			}
			if math.Abs(outL[i]-wantL) > 1e-9 || math.Abs(outR[i]-0.5*block[i]) > 1e-9 {
				t.Fatalf("block %d frame %d = (%v, %v), want (%v, %v)", b, i, outL[i], outR[i], wantL, 0.5*block[i])
			}
		}
		prev = block[15]
	}
}

func TestRendererDownmixesStereo(t *testing.T) {
	t.Parallel()

	r, _ := NewRenderer(delayDatabase(t, 4), 4)
	outL := make([]float64, 4)
	outR := make([]float64, 4)

	if err := r.Process(outL, outR, [][]float64{{1, 1, 1, 1}, {0, 0, 0, 0}}, 0, 0); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if math.Abs(outR[0]-0.25) > 1e-9 {
		t.Fatalf("outR[0] = %v, want 0.25", outR[0])
	}
}

func TestRendererCrossfadeIsContinuous(t *testing.T) {
	t.Parallel()

	db, err := NewDatabase(44100, 16, func(az, _ int) (Response, error) {
		g := 0.2 + 0.8*float64(az)/345
		return Response{Left: []float64{g}, Right: []float64{1 - g}}, nil
	})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}

	r, _ := NewRenderer(db, 128)
	outL := make([]float64, 128)
	outR := make([]float64, 128)
	in := make([]float64, 128)
	for i := range in {
		in[i] = 1
	}

	last := math.NaN()
	for b := range 20 {
		az := -float64(b) * 15
		if err := r.Process(outL, outR, [][]float64{in}, az, 0); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if !math.IsNaN(last) && math.Abs(outL[0]-last) > 0.01 {
			t.Fatalf("block %d jumps from %v to %v", b, last, outL[0])
		}
		for i := 1; i < 128; i++ {
			if math.Abs(outL[i]-outL[i-1]) > 0.01 {
				t.Fatalf("block %d frame %d jumps from %v to %v", b, i, outL[i-1], outL[i])
			}
		}
		last = outL[127]
	}
}

func TestRendererRejectsBadOutput(t *testing.T) {
	t.Parallel()

	if _, err := NewRenderer(nil, 4); err == nil {
		t.Fatal("NewRenderer(nil) error = nil")
	}
	r, _ := NewRenderer(delayDatabase(t, 4), 4)
	if err := r.Process(make([]float64, 3), make([]float64, 4), [][]float64{make([]float64, 4)}, 0, 0); err == nil {
		t.Fatal("Process(short output) error = nil")
	}
}
