package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio"
)

type buttonID int

const (
	btnPlayPause buttonID = iota
	btnRewind
	btnFastForward
)

func (b buttonID) String() string {
	switch b {
	case btnPlayPause:
		return "PLAY_PAUSE"
	case btnRewind:
		return "REWIND"
	case btnFastForward:
		return "FAST_FORWARD"
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// pressEvent is one accepted press, releases are not reported
type pressEvent struct {
	id   buttonID
	when time.Time
}

// debounce state for one button
type pressState struct {
	pressed bool      // accepted (stable) state
	raw     bool      // last sample
	start   time.Time // when the last sample changed
}

type button struct {
	id     buttonID
	button buttonMap
	pin    pinHandle
	state  pressState
	active bool // false once the pin is lost
}

type buttonsController struct {
	rt       runtimeConfig
	bus      peripheralBus
	buttons  []*button
	debounce time.Duration
	interval time.Duration
	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newButtonsController(rt runtimeConfig, bus peripheralBus) *buttonsController {
	return &buttonsController{
		rt:       rt.withLogger("Buttons"),
		bus:      bus,
		debounce: rt.settings.GetDuration(sDebounce),
		interval: rt.settings.GetDuration(sPollInterval),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// buttonPins is the binding table from the settings
func buttonPins(settings configSettings) map[buttonID]buttonMap {
	return map[buttonID]buttonMap{
		btnPlayPause:   settings.GetButtonMap(sPlayPauseBtn),
		btnRewind:      settings.GetButtonMap(sRewindBtn),
		btnFastForward: settings.GetButtonMap(sFastFwdBtn),
	}
}

// interpret the high/low state based on the pullup value
func isPressed(bm buttonMap, level rpio.State) bool {
	if bm.pullup {
		// 0 is pressed, 1 is not
		return level == rpio.Low
	}
	// 1 is pressed, 0 is not
	return level == rpio.High
}

// setupButtons opens every pin it can. A binding that fails is reported and
// left out, only a dead bus or no binding at all fails the setup
func (bc *buttonsController) setupButtons(pins map[buttonID]buttonMap) error {
	now := bc.rt.clock.Now()
	ids := []buttonID{btnPlayPause, btnRewind, btnFastForward}

	var lastErr error
	for _, id := range ids {
		bm, ok := pins[id]
		if !ok || bm.pin == "" {
			continue
		}
		pin, err := bc.bus.openGpio(bm.pin, dirIn, bm.pullup)
		if err != nil {
			err = errors.Wrapf(err, "button %s", id)
			if errors.Is(err, errBusUnavailable) {
				bc.releaseAll()
				return err
			}
			bc.rt.reportError(err)
			lastErr = err
			continue
		}
		level, err := pin.read()
		if err != nil {
			pin.release()
			err = errors.Wrapf(err, "button %s", id)
			bc.rt.reportError(err)
			lastErr = err
			continue
		}
		// a button held at startup does not fire until it is let go and pressed again
		p := isPressed(bm, level)
		bc.buttons = append(bc.buttons, &button{
			id:     id,
			button: bm,
			pin:    pin,
			state:  pressState{pressed: p, raw: p, start: now},
			active: true,
		})
		bc.rt.logger.Printf("bound %s to %s (pullup %v)", id, bm.pin, bm.pullup)
	}

	if len(bc.buttons) == 0 {
		if lastErr == nil {
			lastErr = errors.Wrap(errPinNotFound, "no buttons configured")
		}
		return errors.Wrap(lastErr, "no button could be bound")
	}
	return nil
}

// checkButtons takes one sample of every active button
func (bc *buttonsController) checkButtons() ([]pressEvent, []error) {
	now := bc.rt.clock.Now()
	var events []pressEvent
	var errs []error

	for _, btn := range bc.buttons {
		if !btn.active {
			continue
		}
		level, err := btn.pin.read()
		if err != nil {
			// this one is done, the others keep going
			btn.active = false
			errs = append(errs, errors.Wrapf(err, "button %s", btn.id))
			continue
		}

		p := isPressed(btn.button, level)
		if p != btn.state.raw {
			// bounce or a real edge, restart the window either way
			btn.state.raw = p
			btn.state.start = now
			continue
		}
		if btn.state.pressed == btn.state.raw || now.Sub(btn.state.start) < bc.debounce {
			continue
		}

		btn.state.pressed = btn.state.raw
		if btn.state.pressed {
			bc.rt.logger.Printf("pressed %s", btn.id)
			events = append(events, pressEvent{id: btn.id, when: now})
		}
	}
	return events, errs
}

func (bc *buttonsController) activeCount() int {
	n := 0
	for _, btn := range bc.buttons {
		if btn.active {
			n++
		}
	}
	return n
}

func (bc *buttonsController) start() {
	bc.started = true
	go bc.runWatchButtons()
}

func (bc *buttonsController) runWatchButtons() {
	defer close(bc.done)
	defer func() {
		bc.rt.logger.Println("exiting runWatchButtons")
	}()

	comms := bc.rt.comms
	for {
		events, errs := bc.checkButtons()
		for _, err := range errs {
			bc.rt.reportError(err)
		}
		for _, e := range events {
			// the queue is never skipped, wait for room
			select {
			case comms.presses <- e:
			case <-bc.stop:
				return
			case <-comms.quit:
				return
			}
		}

		select {
		case <-bc.stop:
			return
		case <-comms.quit:
			bc.rt.logger.Println("quit from runWatchButtons")
			return
		case <-bc.rt.clock.After(bc.interval):
		}
	}
}

func (bc *buttonsController) releaseAll() {
	for _, btn := range bc.buttons {
		btn.pin.release()
	}
	bc.buttons = nil
}

// shutdown stops the poller (if it ran) and gives the pins back
func (bc *buttonsController) shutdown() {
	bc.stopOnce.Do(func() {
		close(bc.stop)
	})
	if bc.started {
		<-bc.done
	}
	bc.releaseAll()
}
