package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// StreamingOverlapSave implements streaming FFT-based convolution using
// overlap-save. It keeps the last kernelLen-1 input samples between blocks so
// consecutive output blocks form one continuous convolution.
//
// Processing and kernel replacement do not allocate, which makes the type
// usable on a real-time render thread.
type StreamingOverlapSave struct {
	kernelFFT []complex128

	kernelLen int // capacity; shorter kernels are zero-padded
	blockSize int
	fftSize   int // power of 2, >= blockSize + kernelLen - 1

	plan *algofft.Plan[complex128]

	inputBuffer  []complex128
	outputBuffer []complex128

	// last kernelLen-1 input samples
	history []float64
}

// NewStreamingOverlapSave creates a streaming overlap-save convolver.
// blockSize is the fixed size of input and output blocks. The kernel length
// fixes the capacity for later SetKernel calls.
func NewStreamingOverlapSave(kernel []float64, blockSize int) (*StreamingOverlapSave, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBlockSize, blockSize)
	}

	kernelLen := len(kernel)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	sos := &StreamingOverlapSave{
		kernelFFT:    make([]complex128, fftSize),
		kernelLen:    kernelLen,
		blockSize:    blockSize,
		fftSize:      fftSize,
		plan:         plan,
		inputBuffer:  make([]complex128, fftSize),
		outputBuffer: make([]complex128, fftSize),
		history:      make([]float64, kernelLen-1),
	}

	if err := sos.SetKernel(kernel); err != nil {
		return nil, err
	}

	return sos, nil
}

// SetKernel replaces the impulse response. The kernel may be shorter than the
// capacity given at construction; it is zero-padded. The input history is
// kept, so the next block continues the stream with the new response.
func (sos *StreamingOverlapSave) SetKernel(kernel []float64) error {
	if len(kernel) == 0 {
		return ErrEmptyKernel
	}
	if len(kernel) > sos.kernelLen {
		return fmt.Errorf("%w: %d > %d", ErrKernelTooLong, len(kernel), sos.kernelLen)
	}

	// outputBuffer doubles as scratch; it is rewritten by every block.
	scratch := sos.outputBuffer
	for i := range scratch {
		scratch[i] = 0
	}
	for i, v := range kernel {
		scratch[i] = complex(v, 0)
	}

	if err := sos.plan.Forward(sos.kernelFFT, scratch); err != nil {
		return fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return nil
}

// ProcessBlockTo convolves one input block into output. Both must have
// length BlockSize().
func (sos *StreamingOverlapSave) ProcessBlockTo(output, input []float64) error {
	if len(input) != sos.blockSize {
		return fmt.Errorf("%w: expected %d input samples, got %d", ErrLengthMismatch, sos.blockSize, len(input))
	}
	if len(output) != sos.blockSize {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrLengthMismatch, sos.blockSize, len(output))
	}

	hist := sos.kernelLen - 1

	for i := range sos.inputBuffer {
		sos.inputBuffer[i] = 0
	}
	for i, v := range sos.history {
		sos.inputBuffer[i] = complex(v, 0)
	}
	for i, v := range input {
		sos.inputBuffer[hist+i] = complex(v, 0)
	}

	if err := sos.plan.Forward(sos.inputBuffer, sos.inputBuffer); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range sos.outputBuffer {
		sos.outputBuffer[i] = sos.inputBuffer[i] * sos.kernelFFT[i]
	}

	if err := sos.plan.Inverse(sos.outputBuffer, sos.outputBuffer); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	// The first kernelLen-1 samples carry circular wrap-around.
	for i := range output {
		output[i] = real(sos.outputBuffer[hist+i])
	}

	if sos.blockSize >= hist {
		copy(sos.history, input[sos.blockSize-hist:])
	} else {
		copy(sos.history, sos.history[sos.blockSize:])
		copy(sos.history[hist-sos.blockSize:], input)
	}

	return nil
}

// CopyHistoryFrom replaces the input history with that of src. Both
// convolvers must have the same kernel capacity.
func (sos *StreamingOverlapSave) CopyHistoryFrom(src *StreamingOverlapSave) error {
	if src.kernelLen != sos.kernelLen {
		return fmt.Errorf("%w: kernel capacity %d vs %d", ErrLengthMismatch, src.kernelLen, sos.kernelLen)
	}
	copy(sos.history, src.history)
	return nil
}

// Reset clears the input history.
func (sos *StreamingOverlapSave) Reset() {
	for i := range sos.history {
		sos.history[i] = 0
	}
}

// BlockSize returns the block size.
func (sos *StreamingOverlapSave) BlockSize() int {
	return sos.blockSize
}

// KernelLen returns the kernel capacity.
func (sos *StreamingOverlapSave) KernelLen() int {
	return sos.kernelLen
}

// FFTSize returns the FFT size.
func (sos *StreamingOverlapSave) FFTSize() int {
	return sos.fftSize
}
