package device

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	ringBuffer "github.com/dh1tw/golang-ring"
	"github.com/dh1tw/gosamplerate"
)

// ErrDevice reports a sound card that cannot be opened or configured.
var ErrDevice = errors.New("device: audio device error")

// DefaultQueueBlocks is the number of captured blocks a CaptureQueue keeps
// before the oldest one is overwritten.
const DefaultQueueBlocks = 32

// CaptureQueue hands interleaved audio from a capture callback to the
// render thread. Write appends a block, ReadQuantum drains it
// de-interleaved. When the queue is full the oldest block is dropped.
//
// A queue created with a device rate different from the context rate
// converts every block with libsamplerate on the writing side.
type CaptureQueue struct {
	channels int
	ratio    float64

	mu      sync.Mutex
	ring    ringBuffer.Ring
	pending []float32

	// wmu serializes writers against each other and against Close.
	wmu    sync.Mutex
	src    *gosamplerate.Src
	closed bool

	overruns atomic.Uint64
}

// NewCaptureQueue returns a queue for channels interleaved channels
// captured at deviceRate and rendered at contextRate.
func NewCaptureQueue(channels int, deviceRate, contextRate float64, blocks int) (*CaptureQueue, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d capture channels", ErrDevice, channels)
	}
	if !(deviceRate > 0) || !(contextRate > 0) {
		return nil, fmt.Errorf("%w: capture rates %v -> %v", ErrDevice, deviceRate, contextRate)
	}
	if blocks < 1 {
		blocks = DefaultQueueBlocks
	}

	q := &CaptureQueue{
		channels: channels,
		ratio:    contextRate / deviceRate,
		ring:     ringBuffer.Ring{},
	}
	q.ring.SetCapacity(blocks)

	if deviceRate != contextRate {
		src, err := gosamplerate.New(gosamplerate.SRC_SINC_FASTEST, channels, 65536)
		if err != nil {
			return nil, fmt.Errorf("%w: resampler: %w", ErrDevice, err)
		}
		q.src = &src
	}
	return q, nil
}

// ChannelCount returns the number of captured channels.
func (q *CaptureQueue) ChannelCount() int { return q.channels }

// Overruns counts the blocks dropped because the reader fell behind.
func (q *CaptureQueue) Overruns() uint64 { return q.overruns.Load() }

// Buffered returns the number of whole blocks waiting.
func (q *CaptureQueue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length()
}

// Write queues one interleaved block. data is copied. Writing to a closed
// queue fails.
func (q *CaptureQueue) Write(data []float32) error {
	if len(data)%q.channels != 0 {
		return fmt.Errorf("%w: block of %d samples is not a multiple of %d channels", ErrDevice, len(data), q.channels)
	}

	q.wmu.Lock()
	defer q.wmu.Unlock()
	if q.closed {
		return fmt.Errorf("%w: capture queue closed", ErrDevice)
	}

	block := make([]float32, len(data))
	copy(block, data)

	if q.src != nil {
		out, err := q.src.Process(block, q.ratio, false)
		if err != nil {
			return fmt.Errorf("%w: resample: %w", ErrDevice, err)
		}
		block = out
	}
	if len(block) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ring.Length() == q.ring.Capacity() {
		q.overruns.Add(1)
	}
	q.ring.Enqueue(block)
	return nil
}

// ReadQuantum fills dst with up to len(dst[0]) frames and returns how many
// it wrote. It never waits for the writer.
func (q *CaptureQueue) ReadQuantum(dst [][]float64) int {
	if len(dst) == 0 {
		return 0
	}
	frames := len(dst[0])

	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for n < frames {
		if len(q.pending) == 0 {
			v := q.ring.Dequeue()
			if v == nil {
				break
			}
			q.pending = v.([]float32)
		}

		take := min(frames-n, len(q.pending)/q.channels)
		for i := range take {
			frame := q.pending[i*q.channels : (i+1)*q.channels]
			for ch := range dst {
				if ch < q.channels {
					dst[ch][n+i] = float64(frame[ch])
				}
			}
		}
		q.pending = q.pending[take*q.channels:]
		n += take
	}
	return n
}

// Close releases the resampler. Buffered blocks stay readable.
func (q *CaptureQueue) Close() error {
	q.wmu.Lock()
	defer q.wmu.Unlock()
	q.closed = true
	if q.src == nil {
		return nil
	}
	err := gosamplerate.Delete(*q.src)
	q.src = nil
	return err
}
