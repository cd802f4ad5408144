package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type playStatus int

const (
	statusStopped playStatus = iota
	statusPaused
	statusPlaying
)

func (s playStatus) String() string {
	switch s {
	case statusStopped:
		return "STOPPED"
	case statusPaused:
		return "PAUSED"
	case statusPlaying:
		return "PLAYING"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// playbackState is only ever handed out as a copy
type playbackState struct {
	status   playStatus
	position time.Duration
	duration time.Duration
}

// playbackController is the only owner of the playback state. Every command
// holds the lock to completion, so transitions never overlap
type playbackController struct {
	mu      sync.Mutex
	rt      runtimeConfig
	decoder audioDecoder
	sink    audioSink
	asset   string
	stream  audioStream
	state   playbackState
}

func newPlaybackController(rt runtimeConfig, decoder audioDecoder, sink audioSink, asset string) *playbackController {
	return &playbackController{
		rt:      rt.withLogger("Playback"),
		decoder: decoder,
		sink:    sink,
		asset:   asset,
		state:   playbackState{status: statusStopped},
	}
}

// open (re)opens the asset and puts the cursor at the stored position
func (pc *playbackController) open() error {
	stream, err := pc.decoder.openAsset(pc.asset)
	if err != nil {
		if !errors.Is(err, errDecodeUnavailable) {
			err = errors.Wrap(errDecodeUnavailable, err.Error())
		}
		return err
	}
	pc.state.duration = stream.duration()
	pc.state.position = clamp(pc.state.position, 0, pc.state.duration)
	if err := stream.seek(pc.state.position); err != nil {
		stream.close()
		return errors.Wrap(errDecodeUnavailable, err.Error())
	}
	pc.stream = stream
	return nil
}

// livePosition is what is heard while a stream is open: the cursor less
// whatever the sink has read ahead. The stored position otherwise
func (pc *playbackController) livePosition() time.Duration {
	if pc.stream == nil {
		return pc.state.position
	}
	pos := pc.stream.position()
	if bs, ok := pc.sink.(bufferingSink); ok && pc.state.status == statusPlaying {
		pos = clamp(pos-bs.buffered(), 0, pos)
	}
	return pos
}

// seekStream moves the cursor, through the sink when it holds read-ahead
func (pc *playbackController) seekStream(target time.Duration) error {
	if bs, ok := pc.sink.(bufferingSink); ok && pc.state.status == statusPlaying {
		return bs.seek(target)
	}
	return pc.stream.seek(target)
}

func (pc *playbackController) setStatus(s playStatus) {
	if pc.state.status != s {
		pc.rt.logger.Printf("%s -> %s at %v", pc.state.status, s, pc.state.position)
	}
	pc.state.status = s
}

func (pc *playbackController) play() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.playLocked()
}

func (pc *playbackController) playLocked() error {
	switch pc.state.status {
	case statusPlaying:
		return nil
	case statusStopped:
		if err := pc.open(); err != nil {
			return err
		}
	}
	return pc.startSink()
}

// startSink moves to PLAYING, a STOPPED controller that can't start stays
// STOPPED with nothing open
func (pc *playbackController) startSink() error {
	if err := pc.sink.start(pc.stream); err != nil {
		if pc.state.status == statusStopped {
			pc.state.position = pc.stream.position()
			pc.stream.close()
			pc.stream = nil
		}
		return err
	}
	pc.setStatus(statusPlaying)
	return nil
}

func (pc *playbackController) pause() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.pauseLocked()
}

func (pc *playbackController) pauseLocked() error {
	if pc.state.status != statusPlaying {
		return nil
	}
	err := pc.sink.stop()
	if err != nil {
		pc.rt.logger.Println(err.Error())
	}
	pc.state.position = pc.stream.position()
	pc.setStatus(statusPaused)
	return err
}

// togglePlayPause pauses when playing, anything else starts or resumes
func (pc *playbackController) togglePlayPause() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.state.status == statusPlaying {
		return pc.pauseLocked()
	}
	return pc.playLocked()
}

// seekRelative always ends up PLAYING, from STOPPED it opens the asset first
func (pc *playbackController) seekRelative(delta time.Duration) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.stream == nil {
		if err := pc.open(); err != nil {
			return err
		}
	}
	target := clamp(pc.livePosition()+delta, 0, pc.state.duration)
	if err := pc.seekStream(target); err != nil {
		if !errors.Is(err, errIO) {
			err = errors.Wrap(errDecodeUnavailable, err.Error())
		}
		return err
	}
	pc.state.position = target
	pc.rt.logger.Printf("seek %v to %v", delta, target)

	if pc.state.status == statusPlaying {
		return nil
	}
	return pc.startSink()
}

// stop keeps the position, a later play picks up from there
func (pc *playbackController) stop() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.stopLocked()
}

func (pc *playbackController) stopLocked() error {
	var err error
	if pc.state.status == statusPlaying {
		err = pc.sink.stop()
	}
	if pc.stream != nil {
		pc.state.position = pc.stream.position()
		pc.stream.close()
		pc.stream = nil
	}
	pc.setStatus(statusStopped)
	return err
}

// finishIfDone stops at the end of the asset and rewinds to the top,
// true if it did
func (pc *playbackController) finishIfDone() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.state.status != statusPlaying || pc.stream == nil {
		return false
	}
	if pc.livePosition() < pc.state.duration {
		return false
	}
	pc.rt.logger.Println("end of asset")
	pc.stopLocked()
	pc.state.position = 0
	return true
}

// snapshot is a read only copy with the live position
func (pc *playbackController) snapshot() playbackState {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	s := pc.state
	s.position = pc.livePosition()
	return s
}

func (pc *playbackController) shutdown() {
	if err := pc.stop(); err != nil {
		pc.rt.logger.Println(err.Error())
	}
	if err := pc.sink.close(); err != nil {
		pc.rt.logger.Println(err.Error())
	}
}
