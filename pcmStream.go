package main

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const bytesPerSample = 2 // signed 16 bit

// pcmClip is a decoded asset, shared by every stream opened on it
type pcmClip struct {
	data     []byte
	rate     int
	channels int
}

func (c *pcmClip) frameSize() int {
	return c.channels * bytesPerSample
}

func (c *pcmClip) bytesAt(pos time.Duration) int {
	frames := int64(pos) * int64(c.rate) / int64(time.Second)
	return int(frames) * c.frameSize()
}

func (c *pcmClip) timeAt(offset int) time.Duration {
	frames := int64(offset / c.frameSize())
	return time.Duration(frames * int64(time.Second) / int64(c.rate))
}

// pcmStream is a read cursor over a clip, safe for a sink reading on its
// own goroutine while commands seek
type pcmStream struct {
	mu     sync.Mutex
	clip   *pcmClip
	offset int
	closed bool
}

func newPCMStream(clip *pcmClip) *pcmStream {
	return &pcmStream{clip: clip}
}

func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if s.offset >= len(s.clip.data) {
		return 0, io.EOF
	}
	// hand out whole frames only
	n := len(p) - len(p)%s.clip.frameSize()
	n = copy(p[:n], s.clip.data[s.offset:])
	s.offset += n
	return n, nil
}

func (s *pcmStream) format() (int, int) {
	return s.clip.rate, s.clip.channels
}

func (s *pcmStream) seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("seek on closed stream")
	}
	s.setOffset(s.clip.bytesAt(clamp(pos, 0, s.clip.timeAt(len(s.clip.data)))))
	return nil
}

// Seek takes byte offsets so players that buffer (oto) can reset through it
func (s *pcmStream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("seek on closed stream")
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += int64(s.offset)
	case io.SeekEnd:
		offset += int64(len(s.clip.data))
	default:
		return 0, errors.Errorf("bad whence %d", whence)
	}
	if offset < 0 {
		return 0, errors.Errorf("negative offset %d", offset)
	}
	s.setOffset(int(offset))
	return int64(s.offset), nil
}

// setOffset lands on a whole frame inside the clip, callers hold mu
func (s *pcmStream) setOffset(off int) {
	off -= off % s.clip.frameSize()
	if off < 0 {
		off = 0
	}
	if off > len(s.clip.data) {
		off = len(s.clip.data)
	}
	s.offset = off
}

// skip moves the cursor forward (or back, for n < 0) by whole frames
func (s *pcmStream) skip(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n -= n % s.clip.frameSize()
	s.setOffset(s.offset + n)
}

func (s *pcmStream) position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip.timeAt(s.offset)
}

func (s *pcmStream) duration() time.Duration {
	return s.clip.timeAt(len(s.clip.data))
}

func (s *pcmStream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
