package webaudio

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/core"
)

const never = math.MaxInt64

// frameAt converts a context time in seconds to a frame index. Times past
// the last representable frame map to never.
func (c *Context) frameAt(when float64) (int64, error) {
	if !core.IsFinite(when) || when < 0 {
		return 0, configError("time must be finite and >= 0, got %v", when)
	}
	f := math.Round(when * c.sampleRate)
	if f >= float64(never) {
		return never, nil
	}
	return int64(f), nil
}

// endedHook holds an onended callback.
type endedHook struct {
	fn atomic.Pointer[func()]
}

func (h *endedHook) set(fn func()) {
	if fn == nil {
		h.fn.Store(nil)
		return
	}
	h.fn.Store(&fn)
}

// fire runs the callback on the render thread. A panic is reported as a
// processing error of n.
func (h *endedHook) fire(n *baseNode, q *quantum) {
	fn := h.fn.Load()
	if fn == nil {
		return
	}
	if err := callSafely(*fn); err != nil {
		n.ctx.reportFault(n, q, err)
	}
}

func callSafely(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	fn()
	return nil
}
