package main

import (
	"io"
	"io/ioutil"
	"sync"
	"time"
)

// clockSink plays nothing, it consumes PCM at the stream's rate off the
// runtime clock so position moves the way it would on a speaker
type clockSink struct {
	rt     runtimeConfig
	mu     sync.Mutex
	src    audioStream
	stopCh chan struct{}
	done   chan struct{}
	starts int
	stops  int
}

func newClockSink(rt runtimeConfig) *clockSink {
	return &clockSink{rt: rt.withLogger("ClockSink")}
}

func (cs *clockSink) start(s audioStream) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.stopCh != nil {
		return nil
	}
	cs.src = s
	cs.stopCh = make(chan struct{})
	cs.done = make(chan struct{})
	cs.starts++
	go cs.run(s, cs.stopCh, cs.done)
	return nil
}

func (cs *clockSink) run(s audioStream, stop chan struct{}, done chan struct{}) {
	defer close(done)
	rate, channels := s.format()
	frameSize := int64(channels * bytesPerSample)
	last := cs.rt.clock.Now()
	for {
		select {
		case <-stop:
			return
		case <-cs.rt.clock.After(dSinkTick):
		}
		now := cs.rt.clock.Now()
		frames := int64(now.Sub(last)) * int64(rate) / int64(time.Second)
		last = now
		if frames <= 0 {
			continue
		}
		if _, err := io.CopyN(ioutil.Discard, s, frames*frameSize); err != nil {
			// end of the asset, the watcher notices
			return
		}
	}
}

func (cs *clockSink) stop() error {
	cs.mu.Lock()
	stop, done := cs.stopCh, cs.done
	cs.stopCh = nil
	if stop != nil {
		cs.stops++
	}
	cs.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (cs *clockSink) close() error {
	return cs.stop()
}

func (cs *clockSink) counts() (int, int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.starts, cs.stops
}
