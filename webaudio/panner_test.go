package webaudio

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-webaudio/dsp/spatial"
	"github.com/cwbudde/algo-webaudio/internal/testutil"
	timestats "github.com/cwbudde/algo-webaudio/stats/time"
)

func TestPannerDistanceAttenuation(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	osc, _ := c.NewOscillator()
	p, _ := c.NewPanner()
	if err := p.SetPosition(0, 0, -295); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	mustConnect(t, c, osc, p, c.Destination())
	if err := osc.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	out := mustRender(t, c, testRate)
	if out.Length() != testRate {
		t.Fatalf("Length() = %d, want %d", out.Length(), testRate)
	}

	// Sine RMS 1/sqrt2, inverse distance 1/295, centre pan cos(pi/4).
	want := 0.5 / 295
	for ch := range 2 {
		got := timestats.RMS(channel(t, out, ch))
		if math.Abs(got-want)/want > 1e-3 {
			t.Fatalf("channel %d RMS = %v, want %v", ch, got, want)
		}
	}
}

func TestPannerEqualPowerSides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		x         float64
		louderCh  int
		quieterCh int
	}{
		{name: "right", x: 1, louderCh: 1, quieterCh: 0},
		{name: "left", x: -1, louderCh: 0, quieterCh: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newTestContext(t)
			p, _ := c.NewPanner()
			if err := p.SetPosition(tc.x, 0, 0); err != nil {
				t.Fatalf("SetPosition() error = %v", err)
			}
			mustConnect(t, c, playing(t, c, testutil.DeterministicSine(440, testRate, 1, 1024)), p, c.Destination())

			out := mustRender(t, c, 1024)
			loud := timestats.RMS(channel(t, out, tc.louderCh))
			quiet := timestats.RMS(channel(t, out, tc.quieterCh))
			if quiet > 1e-9 || loud < 0.5 {
				t.Fatalf("RMS louder/quieter = %v/%v, want hard pan", loud, quiet)
			}
		})
	}
}

func TestPannerConfigValidation(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	p, _ := c.NewPanner()

	tests := []struct {
		name string
		set  func() error
	}{
		{name: "ref distance zero", set: func() error { return p.SetRefDistance(0) }},
		{name: "max below ref", set: func() error { return p.SetMaxDistance(0.5) }},
		{name: "negative rolloff", set: func() error { return p.SetRolloffFactor(-1) }},
		{name: "outer gain above one", set: func() error { return p.SetConeOuterGain(2) }},
		{name: "unknown distance model", set: func() error { return p.SetDistanceModel(spatial.DistanceModel(9)) }},
		{name: "unknown panning model", set: func() error { return p.SetPanningModel(PanningModel(9)) }},
		{name: "hrtf without database", set: func() error { return p.SetPanningModel(HRTF) }},
		{name: "nan position", set: func() error { return p.SetPosition(math.NaN(), 0, 0) }},
	}

	for _, tc := range tests {
		if err := tc.set(); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: error = %v, want ErrConfiguration", tc.name, err)
		}
	}
	if got := p.Config(); got != DefaultPannerConfig() {
		t.Fatalf("Config() = %+v after rejected updates, want defaults", got)
	}

	if err := p.SetDistanceModel(spatial.Linear); err != nil {
		t.Fatalf("SetDistanceModel() error = %v", err)
	}
	if err := p.SetConeInnerAngle(90); err != nil {
		t.Fatalf("SetConeInnerAngle() error = %v", err)
	}
	if got := p.Config(); got.Distance.Model != spatial.Linear || got.Cone.InnerAngle != 90 {
		t.Fatalf("Config() = %+v, want linear model and inner angle 90", got)
	}
}

func TestPannerPosePrecedence(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	p, _ := c.NewPanner()

	if err := p.SetPosition(1, 2, 3); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	if err := p.PositionX().SetValue(5); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if got, want := p.Position(), (spatial.Vec3{X: 5, Y: 2, Z: 3}); got != want {
		t.Fatalf("Position() = %v, want %v", got, want)
	}
	if err := p.SetPosition(7, 8, 9); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	if got, want := p.Position(), (spatial.Vec3{X: 7, Y: 8, Z: 9}); got != want {
		t.Fatalf("Position() = %v, want %v", got, want)
	}

	l := c.Listener()
	if err := l.SetPosition(1, 1, 1); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	if err := l.PositionZ().SetValue(-4); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if got, want := l.Pose().Position, (spatial.Vec3{X: 1, Y: 1, Z: -4}); got != want {
		t.Fatalf("listener position = %v, want %v", got, want)
	}
	if err := l.SetOrientation(1, 0, 0, 1, 0, 0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("parallel SetOrientation() error = %v, want ErrConfiguration", err)
	}
}

func hrtfContext(t *testing.T) *Context {
	t.Helper()
	return newTestContext(t, WithHRTFDatabase(testutil.SphericalHead(t, testRate, 32)))
}

func TestPannerHRTFContinuity(t *testing.T) {
	t.Parallel()

	c := hrtfContext(t)
	p, _ := c.NewPanner()
	if err := p.SetPanningModel(HRTF); err != nil {
		t.Fatalf("SetPanningModel() error = %v", err)
	}
	if err := p.SetPosition(1, 0, -1); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	mustConnect(t, c, playing(t, c, testutil.DeterministicSine(440, testRate, 1, 8192)), p, c.Destination())

	out := mustRender(t, c, 8192)
	for ch := range 2 {
		data := channel(t, out, ch)
		testutil.RequireFinite(t, data)
		testutil.RequireContinuous(t, data[:8000], 0.1)
	}
}

func TestPannerHRTFMovingSourceContinuity(t *testing.T) {
	t.Parallel()

	c := hrtfContext(t)
	p, _ := c.NewPanner()
	if err := p.SetPanningModel(HRTF); err != nil {
		t.Fatalf("SetPanningModel() error = %v", err)
	}
	mustConnect(t, c, playing(t, c, testutil.DeterministicSine(440, testRate, 1, 8192)), p, c.Destination())

	var left, right []float64
	for k := range 62 {
		angle := float64(k) * 3 * math.Pi / 180
		if err := p.SetPosition(math.Sin(angle), 0, -math.Cos(angle)); err != nil {
			t.Fatalf("SetPosition() error = %v", err)
		}
		out := mustRender(t, c, 128)
		left = append(left, channel(t, out, 0)...)
		right = append(right, channel(t, out, 1)...)
	}
	testutil.RequireContinuous(t, left, 0.1)
	testutil.RequireContinuous(t, right, 0.1)
}

func TestPannerHRTFFavoursNearEar(t *testing.T) {
	t.Parallel()

	c := hrtfContext(t)
	p, _ := c.NewPanner()
	if err := p.SetPanningModel(HRTF); err != nil {
		t.Fatalf("SetPanningModel() error = %v", err)
	}
	if err := p.SetPosition(1, 0, 0); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	mustConnect(t, c, playing(t, c, testutil.DeterministicSine(440, testRate, 1, 4096)), p, c.Destination())

	out := mustRender(t, c, 4096)
	left := timestats.RMS(channel(t, out, 0))
	right := timestats.RMS(channel(t, out, 1))
	if right < 2*left {
		t.Fatalf("RMS left/right = %v/%v, want the right ear clearly louder", left, right)
	}
}

func TestPannerModelSwitch(t *testing.T) {
	t.Parallel()

	c := hrtfContext(t)
	p, _ := c.NewPanner()
	mustConnect(t, c, playing(t, c, testutil.DeterministicSine(440, testRate, 1, 4096)), p, c.Destination())

	mustRender(t, c, 1024)
	if err := p.SetPanningModel(HRTF); err != nil {
		t.Fatalf("SetPanningModel(HRTF) error = %v", err)
	}
	mustRender(t, c, 1024)
	if err := p.SetPanningModel(EqualPower); err != nil {
		t.Fatalf("SetPanningModel(EqualPower) error = %v", err)
	}
	out := mustRender(t, c, 1024)
	testutil.RequireFinite(t, channel(t, out, 0))
	if got := p.Config().PanningModel; got != EqualPower {
		t.Fatalf("PanningModel = %v, want %v", got, EqualPower)
	}
}

func TestParsePanningModel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]PanningModel{"equalpower": EqualPower, "equal-power": EqualPower, "HRTF": HRTF} {
		got, err := ParsePanningModel(in)
		if err != nil || got != want {
			t.Fatalf("ParsePanningModel(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParsePanningModel("vbap"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("ParsePanningModel(vbap) error = %v, want ErrConfiguration", err)
	}
}
