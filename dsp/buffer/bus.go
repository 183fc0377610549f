package buffer

// Bus is a planar block of samples for one render quantum. Its channel
// storage is allocated once and reused; changing the active channel count
// within the allocated capacity does not allocate.
type Bus struct {
	frames   int
	active   int
	channels [][]float64
}

// NewBus allocates a bus with the given channel count and frame length.
func NewBus(numberOfChannels, frames int) *Bus {
	if numberOfChannels < 1 {
		numberOfChannels = 1
	}
	if frames < 0 {
		frames = 0
	}

	b := &Bus{frames: frames}
	b.SetChannelCount(numberOfChannels)
	return b
}

// Length returns the number of frames per channel.
func (b *Bus) Length() int { return b.frames }

// NumberOfChannels returns the active channel count.
func (b *Bus) NumberOfChannels() int { return b.active }

// Channel returns the writable samples of channel i.
func (b *Bus) Channel(i int) []float64 { return b.channels[i] }

// Channels returns the active channels.
func (b *Bus) Channels() [][]float64 { return b.channels[:b.active] }

// SetChannelCount changes the active channel count. Newly activated channels
// are silent. Storage only grows when n exceeds every count used before.
func (b *Bus) SetChannelCount(n int) {
	if n < 1 {
		n = 1
	}

	for len(b.channels) < n {
		b.channels = append(b.channels, make([]float64, b.frames))
	}

	for i := b.active; i < n; i++ {
		clear(b.channels[i])
	}

	b.active = n
}

// Zero silences all active channels.
func (b *Bus) Zero() {
	for _, ch := range b.channels[:b.active] {
		clear(ch)
	}
}

// IsSilent reports whether every active sample is zero.
func (b *Bus) IsSilent() bool {
	for _, ch := range b.channels[:b.active] {
		for _, v := range ch {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// CopyFrom overwrites b with src, mapped onto b's channel count.
func (b *Bus) CopyFrom(src *Bus) {
	b.Zero()
	b.SumFrom(src)
}

// SumFrom adds src into b, mapped onto b's channel count.
//
// Channel mapping: equal counts map one to one; a mono source is added to
// every channel; otherwise source channel i is added to channel i and
// channels without a counterpart are left unchanged. Source channels beyond
// b's count are ignored.
func (b *Bus) SumFrom(src *Bus) {
	n := min(b.frames, src.frames)

	if src.active == 1 {
		in := src.channels[0][:n]
		for _, out := range b.channels[:b.active] {
			addTo(out[:n], in)
		}
		return
	}

	for i := range min(b.active, src.active) {
		addTo(b.channels[i][:n], src.channels[i][:n])
	}
}

// Scale multiplies every active sample by g.
func (b *Bus) Scale(g float64) {
	for _, ch := range b.channels[:b.active] {
		for i := range ch {
			ch[i] *= g
		}
	}
}

func addTo(dst, src []float64) {
	for i, v := range src {
		dst[i] += v
	}
}
