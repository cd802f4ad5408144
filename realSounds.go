//go:build !noaudio
// +build !noaudio

package main

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

func init() {
	features = append(features, "audio")
}

// portaudioSink runs a callback stream on the default output device
type portaudioSink struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	src    audioStream
	buf    []byte
}

func newPortaudioSink() (*portaudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrapf(errIO, "portaudio: %v", err)
	}
	return &portaudioSink{}, nil
}

func (ps *portaudioSink) processAudio(out []int16) {
	need := len(out) * bytesPerSample
	if len(ps.buf) < need {
		ps.buf = make([]byte, need)
	}
	n, _ := ps.src.Read(ps.buf[:need])
	for i := range out {
		if i*bytesPerSample+1 < n {
			out[i] = int16(binary.LittleEndian.Uint16(ps.buf[i*bytesPerSample:]))
		} else {
			// past the end of the asset, silence
			out[i] = 0
		}
	}
}

func (ps *portaudioSink) start(s audioStream) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.stream != nil {
		return nil
	}
	rate, channels := s.format()
	ps.src = s
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), 0, ps.processAudio)
	if err != nil {
		return errors.Wrapf(errIO, "portaudio open: %v", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return errors.Wrapf(errIO, "portaudio start: %v", err)
	}
	ps.stream = stream
	return nil
}

func (ps *portaudioSink) stop() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.stream == nil {
		return nil
	}
	err := ps.stream.Stop()
	ps.stream.Close()
	ps.stream = nil
	if err != nil {
		return errors.Wrapf(errIO, "portaudio stop: %v", err)
	}
	return nil
}

func (ps *portaudioSink) close() error {
	err := ps.stop()
	portaudio.Terminate()
	return err
}

// otoSink plays through an oto player reading straight from the stream.
// oto allows one context per process, the first stream picks its format
type otoSink struct {
	mu       sync.Mutex
	ctx      *oto.Context
	rate     int
	channels int
	player   *oto.Player
	src      audioStream
}

func newOtoSink() *otoSink {
	return &otoSink{}
}

// newHardwareSink picks the output named by the audioOutput setting
func newHardwareSink(kind string) (audioSink, error) {
	switch kind {
	case "portaudio":
		ps, err := newPortaudioSink()
		if err != nil {
			return nil, err
		}
		return ps, nil
	case "oto":
		return newOtoSink(), nil
	}
	return nil, errors.Errorf("unknown audio output '%s'", kind)
}

func (osk *otoSink) start(s audioStream) error {
	osk.mu.Lock()
	defer osk.mu.Unlock()
	if osk.player != nil {
		return nil
	}
	rate, channels := s.format()
	if osk.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			return errors.Wrapf(errIO, "oto: %v", err)
		}
		<-ready
		osk.ctx, osk.rate, osk.channels = ctx, rate, channels
	} else if rate != osk.rate || channels != osk.channels {
		return errors.Wrapf(errIO, "oto: context is %d Hz/%d, stream is %d Hz/%d", osk.rate, osk.channels, rate, channels)
	}
	osk.src = s
	osk.player = osk.ctx.NewPlayer(s)
	osk.player.Play()
	return nil
}

func (osk *otoSink) stop() error {
	osk.mu.Lock()
	defer osk.mu.Unlock()
	if osk.player == nil {
		return nil
	}
	// the player reads ahead, give back what it buffered but never played
	buffered := osk.player.BufferedSize()
	osk.player.Pause()
	err := osk.player.Close()
	osk.player = nil
	if ps, ok := osk.src.(*pcmStream); ok {
		ps.skip(-buffered)
	}
	if err != nil {
		return errors.Wrapf(errIO, "oto: %v", err)
	}
	return nil
}

// buffered is the audio the player has read but not played yet
func (osk *otoSink) buffered() time.Duration {
	osk.mu.Lock()
	defer osk.mu.Unlock()
	if osk.player == nil {
		return 0
	}
	frames := int64(osk.player.BufferedSize() / (osk.channels * bytesPerSample))
	return time.Duration(frames * int64(time.Second) / int64(osk.rate))
}

// seek goes through the player so its buffer is dropped with the old position
func (osk *otoSink) seek(pos time.Duration) error {
	osk.mu.Lock()
	defer osk.mu.Unlock()
	if osk.player == nil {
		return errors.Wrap(errIO, "oto seek: not playing")
	}
	frames := int64(pos) * int64(osk.rate) / int64(time.Second)
	if _, err := osk.player.Seek(frames*int64(osk.channels*bytesPerSample), io.SeekStart); err != nil {
		return errors.Wrapf(errIO, "oto seek: %v", err)
	}
	return nil
}

func (osk *otoSink) close() error {
	return osk.stop()
}
