package main

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

const dErrorPrint = 2 * time.Second

// playbackWatcher samples the playback state and fans read only copies
// out to the LED and the display
type playbackWatcher struct {
	rt       runtimeConfig
	pc       *playbackController
	ledPin   string // empty without a status LED
	display  bool   // effects loop is running
	position bool   // display follows the position
	last     playbackState
	first    bool
	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newPlaybackWatcher(rt runtimeConfig, pc *playbackController, ledPin string, haveDisplay bool) *playbackWatcher {
	return &playbackWatcher{
		rt:       rt.withLogger("Watcher"),
		pc:       pc,
		ledPin:   ledPin,
		display:  haveDisplay,
		position: haveDisplay && rt.settings.GetString(sDisplayMode) == modePosition,
		first:    true,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (pw *playbackWatcher) sendLED(e ledEffect) bool {
	select {
	case pw.rt.comms.leds <- e:
		return true
	case <-pw.stop:
	case <-pw.rt.comms.quit:
	}
	return false
}

func (pw *playbackWatcher) sendEffect(e displayEffect) bool {
	select {
	case pw.rt.comms.effects <- e:
		return true
	case <-pw.stop:
	case <-pw.rt.comms.quit:
	}
	return false
}

// check runs one watch cycle
func (pw *playbackWatcher) check() {
	pw.pc.finishIfDone()
	st := pw.pc.snapshot()

	// last starts out STOPPED, the LED keeps its power on flash until something happens
	changed := st.status != pw.last.status
	if changed && pw.ledPin != "" {
		pw.sendLED(ledForStatus(pw.ledPin, st.status))
	}
	if pw.position && (pw.first || changed || st.position/time.Second != pw.last.position/time.Second) {
		pw.sendEffect(positionEffect(st))
	}
	pw.last = st
	pw.first = false

	// decode failures get an "Err" on the display and a flicker on the LED
	for {
		select {
		case err := <-pw.rt.comms.errors:
			if !errors.Is(err, errDecodeUnavailable) {
				continue
			}
			if pw.ledPin != "" {
				pw.sendLED(ledForError(pw.ledPin, dErrorPrint))
			}
			if pw.display {
				pw.sendEffect(printEffect("Err", dErrorPrint))
			}
		default:
			return
		}
	}
}

func (pw *playbackWatcher) start() {
	pw.started = true
	go pw.runPlaybackWatcher()
}

func (pw *playbackWatcher) runPlaybackWatcher() {
	defer close(pw.done)
	defer func() {
		pw.rt.logger.Println("exiting runPlaybackWatcher")
	}()

	for {
		pw.check()
		select {
		case <-pw.stop:
			return
		case <-pw.rt.comms.quit:
			return
		case <-pw.rt.clock.After(dPlaybackWatch):
		}
	}
}

func (pw *playbackWatcher) shutdown() {
	pw.stopOnce.Do(func() {
		close(pw.stop)
	})
	if pw.started {
		<-pw.done
	}
}
