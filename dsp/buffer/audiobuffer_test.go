package buffer

import (
	"errors"
	"math"
	"testing"
)

func TestNewValidatesShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		length   int
		rate     float64
		want     error
	}{
		{name: "ok", channels: 2, length: 16, rate: 44100},
		{name: "empty ok", channels: 1, length: 0, rate: 44100},
		{name: "zero channels", channels: 0, length: 16, rate: 44100, want: ErrInvalidChannels},
		{name: "negative length", channels: 1, length: -1, rate: 44100, want: ErrInvalidLength},
		{name: "zero rate", channels: 1, length: 4, rate: 0, want: ErrInvalidSampleRate},
		{name: "nan rate", channels: 1, length: 4, rate: math.NaN(), want: ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := New(tt.channels, tt.length, tt.rate)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("New() error = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if b.NumberOfChannels() != tt.channels || b.Length() != tt.length {
				t.Fatalf("shape = %dx%d, want %dx%d", b.NumberOfChannels(), b.Length(), tt.channels, tt.length)
			}
		})
	}
}

func TestFromChannelsCopiesInput(t *testing.T) {
	t.Parallel()

	left := []float64{1, 2, 3}
	right := []float64{4, 5, 6}

	b, err := FromChannels(8000, left, right)
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}

	left[0] = 99

	got, _ := b.ChannelData(0)
	if got[0] != 1 {
		t.Fatalf("channel 0 sample 0 = %v, want 1 (input aliased)", got[0])
	}

	got[1] = 77
	again, _ := b.ChannelData(0)
	if again[1] != 2 {
		t.Fatalf("ChannelData aliases storage: got %v, want 2", again[1])
	}
}

func TestFromChannelsRejectsRagged(t *testing.T) {
	t.Parallel()

	if _, err := FromChannels(8000, []float64{1, 2}, []float64{1}); !errors.Is(err, ErrRaggedChannels) {
		t.Fatalf("error = %v, want ErrRaggedChannels", err)
	}
	if _, err := FromChannels(8000); !errors.Is(err, ErrInvalidChannels) {
		t.Fatalf("error = %v, want ErrInvalidChannels", err)
	}
}

func TestFromInterleavedDeinterleaves(t *testing.T) {
	t.Parallel()

	b, err := FromInterleaved(44100, 2, []float32{1, -1, 0.5, -0.5, 0.25})
	if err != nil {
		t.Fatalf("FromInterleaved() error = %v", err)
	}
	if b.Length() != 2 {
		t.Fatalf("Length() = %d, want 2", b.Length())
	}

	l, _ := b.ChannelData(0)
	r, _ := b.ChannelData(1)
	if l[0] != 1 || l[1] != 0.5 || r[0] != -1 || r[1] != -0.5 {
		t.Fatalf("channels = %v %v", l, r)
	}

	inter := b.Interleaved()
	want := []float32{1, -1, 0.5, -0.5}
	for i := range want {
		if inter[i] != want[i] {
			t.Fatalf("Interleaved()[%d] = %v, want %v", i, inter[i], want[i])
		}
	}
}

func TestCopyToAndFromChannel(t *testing.T) {
	t.Parallel()

	b, _ := New(2, 5, 44100)

	n, err := b.CopyToChannel([]float64{1, 2, 3, 4}, 1, 3)
	if err != nil {
		t.Fatalf("CopyToChannel() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyToChannel() wrote %d, want 2", n)
	}

	dst := make([]float64, 4)
	n, err = b.CopyFromChannel(dst, 1, 2)
	if err != nil {
		t.Fatalf("CopyFromChannel() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("CopyFromChannel() read %d, want 3", n)
	}
	if dst[0] != 0 || dst[1] != 1 || dst[2] != 2 || dst[3] != 0 {
		t.Fatalf("dst = %v, want [0 1 2 0]", dst)
	}

	if _, err := b.CopyFromChannel(dst, 2, 0); !errors.Is(err, ErrChannelIndex) {
		t.Fatalf("bad channel error = %v, want ErrChannelIndex", err)
	}
	if _, err := b.CopyToChannel(dst, 0, 6); !errors.Is(err, ErrFrameIndex) {
		t.Fatalf("bad frame error = %v, want ErrFrameIndex", err)
	}
}

func TestFreezeRejectsWrites(t *testing.T) {
	t.Parallel()

	b, _ := New(1, 4, 44100)
	b.Freeze()

	if _, err := b.CopyToChannel([]float64{1}, 0, 0); !errors.Is(err, ErrFrozen) {
		t.Fatalf("CopyToChannel() on frozen error = %v, want ErrFrozen", err)
	}

	c := b.Clone()
	if c.Frozen() {
		t.Fatal("Clone() is frozen")
	}
	if _, err := c.CopyToChannel([]float64{1}, 0, 0); err != nil {
		t.Fatalf("Clone().CopyToChannel() error = %v", err)
	}
	if b.Sample(0, 0) != 0 {
		t.Fatalf("write to clone leaked into original")
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	b, _ := New(1, 22050, 44100)
	if got := b.Duration(); got != 0.5 {
		t.Fatalf("Duration() = %v, want 0.5", got)
	}
	if got := b.Sample(3, 0); got != 0 {
		t.Fatalf("Sample(out of range) = %v, want 0", got)
	}
}
