package device

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/ebitengine/oto/v3"
)

// Interleave packs planar channels into frames of channels samples. Planar
// channels beyond channels are dropped; missing ones are silent, except a
// single planar channel which is copied to every output channel.
func Interleave(block [][]float64, channels int) []float32 {
	if len(block) == 0 || channels < 1 {
		return nil
	}
	frames := len(block[0])
	out := make([]float32, frames*channels)
	for ch := range channels {
		src := ch
		if len(block) == 1 {
			src = 0
		} else if ch >= len(block) {
			continue
		}
		for i, v := range block[src] {
			out[i*channels+ch] = float32(v)
		}
	}
	return out
}

// PutPCM16 writes samples as signed 16-bit little-endian PCM into dst,
// clipping to [-1, 1]. dst must hold 2*len(samples) bytes.
func PutPCM16(dst []byte, samples []float32) {
	for i, v := range samples {
		v = math32.Max(-1, math32.Min(1, v))
		s := int16(math32.Floor(v*32767 + 0.5))
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(s))
	}
}

// OtoSink plays rendered quanta through oto. Write blocks while the
// player's buffer is full, so a render loop writing to it runs at device
// pace. It implements webaudio.Sink.
type OtoSink struct {
	channels int
	logger   *slog.Logger

	ctx    *oto.Context
	player *oto.Player
	pr     *io.PipeReader
	pw     *io.PipeWriter
	pcm    []byte
}

// NewOtoSink opens the default output device. oto allows one context per
// process.
func NewOtoSink(sampleRate, channels int, logger *slog.Logger) (*OtoSink, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: oto plays 1 or 2 channels, got %d", ErrDevice, channels)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: oto context: %w", ErrDevice, err)
	}
	<-ready

	s := &OtoSink{channels: channels, logger: logger, ctx: ctx}
	s.pr, s.pw = io.Pipe()
	s.player = ctx.NewPlayer(s.pr)
	s.player.Play()

	logger.Info("oto output opened", slog.Int("rate", sampleRate), slog.Int("channels", channels))
	return s, nil
}

// Write converts block to 16-bit PCM and feeds the player.
func (s *OtoSink) Write(block [][]float64) error {
	samples := Interleave(block, s.channels)
	if cap(s.pcm) < 2*len(samples) {
		s.pcm = make([]byte, 2*len(samples))
	}
	s.pcm = s.pcm[:2*len(samples)]
	PutPCM16(s.pcm, samples)

	if _, err := s.pw.Write(s.pcm); err != nil {
		return fmt.Errorf("%w: oto write: %w", ErrDevice, err)
	}
	return nil
}

// Close stops playback.
func (s *OtoSink) Close() error {
	_ = s.pw.Close()
	err := s.player.Close()
	_ = s.pr.Close()
	if serr := s.ctx.Suspend(); err == nil {
		err = serr
	}
	return err
}
