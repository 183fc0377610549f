package buffer

import "sync"

// Pool provides sync.Pool-based AudioBuffer reuse for producers that create
// one buffer per block, such as capture taps feeding a relay queue.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &AudioBuffer{}
			},
		},
	}
}

// Get returns a silent, unfrozen buffer with the requested shape.
// Callers should return it via Put once no node references it.
func (p *Pool) Get(numberOfChannels, length int, sampleRate float64) (*AudioBuffer, error) {
	if err := validateShape(numberOfChannels, length, sampleRate); err != nil {
		return nil, err
	}

	b := p.pool.Get().(*AudioBuffer)
	b.reset(numberOfChannels, length, sampleRate)
	return b, nil
}

// Put returns a buffer to the pool for reuse.
// The caller must not use the buffer after calling Put.
func (p *Pool) Put(b *AudioBuffer) {
	if b == nil {
		return
	}
	p.pool.Put(b)
}
