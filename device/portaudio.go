package device

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	ringBuffer "github.com/dh1tw/golang-ring"
	pa "github.com/gordonklaus/portaudio"
)

// Options selects and shapes a PortAudio stream.
type Options struct {
	HostAPI         string
	DeviceName      string
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	Latency         time.Duration
	// QueueBlocks is the depth of the block queue between the stream
	// callback and the render thread.
	QueueBlocks int
	Logger      *slog.Logger
}

// Option configures Options.
type Option func(*Options)

// HostAPI selects a PortAudio host API by name, e.g. "alsa" or "wasapi".
func HostAPI(name string) Option { return func(o *Options) { o.HostAPI = name } }

// DeviceName selects a device of the host API by name.
func DeviceName(name string) Option { return func(o *Options) { o.DeviceName = name } }

// Channels sets the stream channel count.
func Channels(n int) Option { return func(o *Options) { o.Channels = n } }

// SampleRate sets the capture rate. Output streams always run at the
// context rate.
func SampleRate(rate float64) Option { return func(o *Options) { o.SampleRate = rate } }

// FramesPerBuffer sets the PortAudio callback block size.
func FramesPerBuffer(n int) Option { return func(o *Options) { o.FramesPerBuffer = n } }

// Latency sets the suggested device latency.
func Latency(d time.Duration) Option { return func(o *Options) { o.Latency = d } }

// QueueBlocks sets how many blocks are buffered between callback and render.
func QueueBlocks(n int) Option { return func(o *Options) { o.QueueBlocks = n } }

// Logger sets the logger for stream events.
func Logger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

func defaultOptions(channels int) Options {
	return Options{
		HostAPI:         "default",
		DeviceName:      "default",
		Channels:        channels,
		SampleRate:      48000,
		FramesPerBuffer: 480,
		Latency:         10 * time.Millisecond,
		QueueBlocks:     DefaultQueueBlocks,
		Logger:          slog.Default(),
	}
}

// Input captures from a sound card into a CaptureQueue. Pass the queue to
// Context.NewMediaStreamSource.
type Input struct {
	options Options
	device  *pa.DeviceInfo
	stream  *pa.Stream
	queue   *CaptureQueue
}

// OpenInput opens a capture stream whose audio is delivered at
// contextRate. Call Start to begin capturing.
func OpenInput(contextRate float64, opts ...Option) (*Input, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDevice, err)
	}

	in := &Input{options: defaultOptions(1)}
	for _, opt := range opts {
		opt(&in.options)
	}

	host, err := lookupHostAPI(in.options.HostAPI)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}
	in.device = host.DefaultInputDevice
	if in.options.DeviceName != "default" {
		if in.device, err = lookupDevice(in.options.DeviceName, host); err != nil {
			_ = pa.Terminate()
			return nil, err
		}
	}
	if in.device == nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("%w: host API %s has no input device", ErrDevice, host.Name)
	}

	in.queue, err = NewCaptureQueue(in.options.Channels, in.options.SampleRate, contextRate, in.options.QueueBlocks)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}

	params := pa.StreamParameters{
		Input: pa.StreamDeviceParameters{
			Device:   in.device,
			Channels: in.options.Channels,
			Latency:  in.options.Latency,
		},
		SampleRate:      in.options.SampleRate,
		FramesPerBuffer: in.options.FramesPerBuffer,
	}
	in.stream, err = pa.OpenStream(params, in.callback)
	if err != nil {
		_ = in.queue.Close()
		_ = pa.Terminate()
		return nil, fmt.Errorf("%w: open capture stream on %s: %w", ErrDevice, in.device.Name, err)
	}

	in.options.Logger.Info("input device opened",
		slog.String("device", in.device.Name),
		slog.String("host_api", in.device.HostApi.Name),
		slog.Float64("rate", in.options.SampleRate),
		slog.Int("channels", in.options.Channels))
	return in, nil
}

// Queue returns the capture queue fed by the stream.
func (in *Input) Queue() *CaptureQueue { return in.queue }

// Start begins capturing.
func (in *Input) Start() error { return in.stream.Start() }

// Stop halts capturing.
func (in *Input) Stop() error { return in.stream.Stop() }

// Close stops the stream and releases PortAudio.
func (in *Input) Close() error {
	err := in.stream.Close()
	_ = in.queue.Close()
	_ = pa.Terminate()
	return err
}

// callback runs on the PortAudio thread. PortAudio reuses buf.
func (in *Input) callback(buf []float32, _ pa.StreamCallbackTimeInfo, flags pa.StreamCallbackFlags) {
	if flags&pa.InputOverflow != 0 {
		in.options.Logger.Warn("input overflow", slog.String("device", in.device.Name))
	}
	if err := in.queue.Write(buf); err != nil {
		in.options.Logger.Error("capture", slog.Any("error", err))
	}
}

// Output plays rendered quanta on a sound card through PortAudio. It
// implements webaudio.Sink.
type Output struct {
	sync.Mutex

	options Options
	device  *pa.DeviceInfo
	stream  *pa.Stream
	ring    ringBuffer.Ring
	stash   []float32
	filling bool
	space   chan struct{}
}

// OpenOutput opens a playback stream at the context rate.
func OpenOutput(contextRate float64, opts ...Option) (*Output, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDevice, err)
	}

	out := &Output{
		options: defaultOptions(2),
		ring:    ringBuffer.Ring{},
		filling: true,
		space:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(&out.options)
	}
	out.options.SampleRate = contextRate

	host, err := lookupHostAPI(out.options.HostAPI)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}
	out.device = host.DefaultOutputDevice
	if out.options.DeviceName != "default" {
		if out.device, err = lookupDevice(out.options.DeviceName, host); err != nil {
			_ = pa.Terminate()
			return nil, err
		}
	}
	if out.device == nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("%w: host API %s has no output device", ErrDevice, host.Name)
	}

	out.ring.SetCapacity(out.options.QueueBlocks)

	params := pa.StreamParameters{
		Output: pa.StreamDeviceParameters{
			Device:   out.device,
			Channels: out.options.Channels,
			Latency:  out.options.Latency,
		},
		SampleRate:      out.options.SampleRate,
		FramesPerBuffer: out.options.FramesPerBuffer,
	}
	out.stream, err = pa.OpenStream(params, out.callback)
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("%w: open playback stream on %s: %w", ErrDevice, out.device.Name, err)
	}

	out.options.Logger.Info("output device opened",
		slog.String("device", out.device.Name),
		slog.String("host_api", out.device.HostApi.Name),
		slog.Float64("rate", out.options.SampleRate),
		slog.Int("channels", out.options.Channels))
	return out, nil
}

// Start begins playback.
func (out *Output) Start() error { return out.stream.Start() }

// Close stops the stream and releases PortAudio.
func (out *Output) Close() error {
	err := out.stream.Close()
	_ = pa.Terminate()
	return err
}

// Write interleaves block, cuts it into device buffers and queues them.
// It waits while the queue is full so the renderer runs at device pace.
func (out *Output) Write(block [][]float64) error {
	data := append(out.stash, Interleave(block, out.options.Channels)...)
	size := out.options.FramesPerBuffer * out.options.Channels

	for len(data) >= size {
		for {
			out.Lock()
			full := out.ring.Length() >= out.ring.Capacity()
			if !full {
				out.ring.Enqueue(data[:size:size])
			}
			out.Unlock()
			if !full {
				break
			}
			<-out.space
		}
		data = data[size:]
	}
	out.stash = append(out.stash[:0:0], data...)
	return nil
}

// callback runs on the PortAudio thread and must not block. While the queue
// refills after running dry it plays silence until half the queue is
// buffered.
func (out *Output) callback(buf []float32, _ pa.StreamCallbackTimeInfo, flags pa.StreamCallbackFlags) {
	if flags&pa.OutputUnderflow != 0 {
		out.options.Logger.Warn("output underflow", slog.String("device", out.device.Name))
	}

	var data any
	out.Lock()
	length := out.ring.Length()
	if out.filling && length >= out.ring.Capacity()/2 {
		out.filling = false
	}
	if !out.filling {
		data = out.ring.Dequeue()
		if data == nil {
			out.filling = true
		}
	}
	out.Unlock()

	select {
	case out.space <- struct{}{}:
	default:
	}

	if data == nil {
		clear(buf)
		return
	}
	copy(buf, data.([]float32))
}

// lookupHostAPI resolves a host API name. "default" prefers WASAPI on
// Windows.
func lookupHostAPI(name string) (*pa.HostApiInfo, error) {
	if name == "" || name == "default" {
		if runtime.GOOS == "windows" {
			if h, err := pa.HostApi(pa.WASAPI); err == nil {
				return h, nil
			}
		}
		h, err := pa.DefaultHostApi()
		if err != nil {
			return nil, fmt.Errorf("%w: no default host API: %w", ErrDevice, err)
		}
		return h, nil
	}

	types := map[string]pa.HostApiType{
		"directsound": pa.DirectSound,
		"mme":         pa.MME,
		"asio":        pa.ASIO,
		"coreaudio":   pa.CoreAudio,
		"oss":         pa.OSS,
		"alsa":        pa.ALSA,
		"jack":        pa.JACK,
		"wasapi":      pa.WASAPI,
		"wdmks":       pa.WDMkS,
	}
	t, ok := types[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown host API %q", ErrDevice, name)
	}
	h, err := pa.HostApi(t)
	if err != nil {
		return nil, fmt.Errorf("%w: host API %s: %w", ErrDevice, name, err)
	}
	return h, nil
}

func lookupDevice(name string, host *pa.HostApiInfo) (*pa.DeviceInfo, error) {
	for _, d := range host.Devices {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown audio device %q", ErrDevice, name)
}
