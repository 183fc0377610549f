package buffer

import "testing"

func busFrom(channels ...[]float64) *Bus {
	b := NewBus(len(channels), len(channels[0]))
	for i, ch := range channels {
		copy(b.Channel(i), ch)
	}
	return b
}

func TestBusSumFromChannelMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dst     int
		src     [][]float64
		wantOut [][]float64
	}{
		{
			name:    "mono to stereo duplicates",
			dst:     2,
			src:     [][]float64{{1, 2}},
			wantOut: [][]float64{{1, 2}, {1, 2}},
		},
		{
			name:    "stereo to stereo",
			dst:     2,
			src:     [][]float64{{1, 2}, {3, 4}},
			wantOut: [][]float64{{1, 2}, {3, 4}},
		},
		{
			name:    "stereo to quad is discrete",
			dst:     4,
			src:     [][]float64{{1, 2}, {3, 4}},
			wantOut: [][]float64{{1, 2}, {3, 4}, {0, 0}, {0, 0}},
		},
		{
			name:    "mono to quad duplicates",
			dst:     4,
			src:     [][]float64{{5, 6}},
			wantOut: [][]float64{{5, 6}, {5, 6}, {5, 6}, {5, 6}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dst := NewBus(tt.dst, 2)
			dst.SumFrom(busFrom(tt.src...))

			for ch, want := range tt.wantOut {
				for i, w := range want {
					if got := dst.Channel(ch)[i]; got != w {
						t.Fatalf("channel %d frame %d = %v, want %v", ch, i, got, w)
					}
				}
			}
		})
	}
}

func TestBusSumIsCommutative(t *testing.T) {
	t.Parallel()

	a := busFrom([]float64{0.1, 0.2, 0.3})
	b := busFrom([]float64{1, 2, 3}, []float64{-1, -2, -3})
	c := busFrom([]float64{0.5, 0.5, 0.5}, []float64{0.25, 0.25, 0.25})

	orders := [][]*Bus{{a, b, c}, {c, b, a}, {b, a, c}}
	var results []*Bus
	for _, order := range orders {
		out := NewBus(2, 3)
		for _, src := range order {
			out.SumFrom(src)
		}
		results = append(results, out)
	}

	for r := 1; r < len(results); r++ {
		for ch := range 2 {
			for i := range 3 {
				got := results[r].Channel(ch)[i]
				want := results[0].Channel(ch)[i]
				if diff := got - want; diff > 1e-12 || diff < -1e-12 {
					t.Fatalf("order %d channel %d frame %d = %v, want %v", r, ch, i, got, want)
				}
			}
		}
	}
}

func TestBusSetChannelCountSilencesNewChannels(t *testing.T) {
	t.Parallel()

	b := NewBus(2, 4)
	b.Channel(1)[0] = 3
	b.SetChannelCount(1)
	b.SetChannelCount(2)

	if got := b.Channel(1)[0]; got != 0 {
		t.Fatalf("reactivated channel sample = %v, want 0", got)
	}
	if len(b.Channels()) != 2 {
		t.Fatalf("len(Channels()) = %d, want 2", len(b.Channels()))
	}
}

func TestBusCopyFromAndScale(t *testing.T) {
	t.Parallel()

	dst := NewBus(2, 2)
	dst.Channel(0)[0] = 9
	dst.CopyFrom(busFrom([]float64{1, 2}))
	dst.Scale(0.5)

	if dst.Channel(0)[0] != 0.5 || dst.Channel(1)[1] != 1 {
		t.Fatalf("channels = %v", dst.Channels())
	}
	if dst.IsSilent() {
		t.Fatal("IsSilent() = true, want false")
	}
	dst.Zero()
	if !dst.IsSilent() {
		t.Fatal("IsSilent() after Zero() = false, want true")
	}
}

func BenchmarkBusSumFrom(b *testing.B) {
	dst := NewBus(2, 128)
	src := NewBus(1, 128)
	for i := range src.Channel(0) {
		src.Channel(0)[i] = float64(i)
	}

	b.ReportAllocs()
	for b.Loop() {
		dst.SumFrom(src)
	}
}
