package main

import (
	"sync"
	"time"
)

const (
	modeOff = iota
	modeOn
	modeBlink50 // 50% cycle/sec, paused
	modeBlink90 // 90% off/sec, asset error
	modeUnset   // undetermined state
)

type ledEffect struct {
	pin        string
	mode       int
	duration   time.Duration
	force      bool      // ignore current state, just do it
	curMode    int       // rt setting, on or off
	lastUpdate time.Time // rt setting, last time we changed the state
	startTime  time.Time // rt setting, when we initiated
}

func ledMessage(pin string, mode int, duration time.Duration) ledEffect {
	return ledEffect{pin: pin, mode: mode, duration: duration, startTime: time.Time{}, force: false}
}

func ledMessageForce(pin string, mode int, duration time.Duration) ledEffect {
	return ledEffect{pin: pin, mode: mode, duration: duration, startTime: time.Time{}, force: true}
}

// ledForError flickers the LED for d, then it goes dark
func ledForError(pin string, d time.Duration) ledEffect {
	return ledMessageForce(pin, modeBlink90, d)
}

// ledForStatus is the status LED pattern for a playback state, forced so it
// replaces whatever timed pattern (the power on flash) is running
func ledForStatus(pin string, s playStatus) ledEffect {
	switch s {
	case statusPlaying:
		return ledMessageForce(pin, modeOn, 0)
	case statusPaused:
		return ledMessageForce(pin, modeBlink50, 0)
	}
	return ledMessageForce(pin, modeOff, 0)
}

func diffLEDEffect(effect1 ledEffect, effect2 ledEffect) bool {
	return effect1.mode != effect2.mode || (effect1.duration != effect2.duration && effect1.duration > 0 && effect2.duration > 0) ||
		effect1.pin != effect2.pin || (effect1.startTime != effect2.startTime && effect1.duration > 0 && effect2.duration > 0)
}

func setLEDEffect(effect ledEffect) ledEffect {
	// clear the rt info
	effect.curMode = modeUnset
	effect.lastUpdate = time.Time{}
	effect.force = false // this is not part of the rt, just an indicator in the message
	return effect
}

type ledController struct {
	rt       runtimeConfig
	led      led
	leds     map[string]ledEffect
	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newLEDController(rt runtimeConfig, l led) *ledController {
	return &ledController{
		rt:   rt.withLogger("LEDs"),
		led:  l,
		leds: make(map[string]ledEffect),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (lc *ledController) start() error {
	if err := lc.led.init(lc.rt); err != nil {
		return err
	}
	lc.started = true
	go lc.runLEDController()
	return nil
}

func (lc *ledController) setLED(pin string, on bool) {
	if err := lc.led.set(pin, on); err != nil {
		lc.rt.reportError(err)
	}
}

// receive folds one message into the led table
func (lc *ledController) receive(msg ledEffect) {
	// find in leds, determine if we need to change the state
	if val, ok := lc.leds[msg.pin]; ok {
		// if the state is changed, set the new effect state
		if msg.force || diffLEDEffect(val, msg) {
			lc.rt.logger.Printf("Received led message: %v", msg)
			lc.leds[msg.pin] = setLEDEffect(msg)
		}
		return
	}
	// it's new, add to the leds map?
	// if it's "turn off" assume that we already did that unless it's "force"
	if msg.mode != modeOff || msg.force {
		lc.rt.logger.Printf("Received led message: %v", msg)
		lc.leds[msg.pin] = setLEDEffect(msg)
	}
}

// update toggles whatever is due at now
func (lc *ledController) update(now time.Time) {
	for i, v := range lc.leds {
		// negative duration is "ignore"
		if v.duration < 0 {
			continue
		}

		if v.curMode == modeUnset {
			// transform broader categories of mode to on/off
			if v.mode == modeOff {
				lc.setLED(v.pin, false)
				v.curMode = modeOff
			} else {
				lc.setLED(v.pin, true)
				v.curMode = modeOn
			}
			v.lastUpdate = now
			v.startTime = v.lastUpdate
			// if it's just "off" set the duration to -1 so we never re-check
			if v.mode == modeOff {
				v.duration = -1
			}
			lc.leds[i] = v
			continue
		}

		// duration expired means turn it off
		if v.duration > 0 && now.Sub(v.startTime) >= v.duration {
			if v.curMode != modeOff {
				lc.setLED(v.pin, false)
			}
			// negative duration is expired
			v.duration = -1
			v.curMode = modeOff
			v.lastUpdate = time.Time{}
			v.startTime = time.Time{}
			lc.leds[i] = v
			continue
		}

		timeInState := now.Sub(v.lastUpdate)
		var upTime, downTime time.Duration

		switch v.mode {
		case modeBlink50:
			upTime = 500
		case modeBlink90:
			upTime = 100
		case modeOn:
			upTime = 1000
		default:
			// nothing to do
			continue
		}

		downTime = 1000 - upTime

		if v.curMode == modeOff {
			if timeInState >= downTime*time.Millisecond {
				lc.setLED(v.pin, true)
				v.curMode = modeOn
				v.lastUpdate = now
				lc.leds[i] = v
			}
		} else {
			if upTime < 1000 && timeInState >= upTime*time.Millisecond {
				lc.setLED(v.pin, false)
				v.curMode = modeOff
				v.lastUpdate = now
				lc.leds[i] = v
			}
		}
	}
}

func (lc *ledController) runLEDController() {
	defer close(lc.done)
	defer func() {
		lc.rt.logger.Println("Exiting runLEDController")
	}()

	comms := lc.rt.comms
	for {
		// read all incoming messages at once
		keepReading := true
		for keepReading {
			select {
			case <-lc.stop:
				return
			case <-comms.quit:
				lc.rt.logger.Println("Got a quit signal in runLEDController")
				return
			case msg := <-comms.leds:
				lc.receive(msg)
			default:
				keepReading = false
			}
		}
		// for anything that we're doing blink on, see if it's time to toggle
		// also anything that is modeUnset needs to be initiated
		lc.update(lc.rt.clock.Now())

		// sleep for a bit (1/100s is our lowest resolution)
		select {
		case <-lc.stop:
			return
		case <-comms.quit:
			return
		case <-lc.rt.clock.After(dLEDSleep):
		}
	}
}

func (lc *ledController) shutdown() {
	lc.stopOnce.Do(func() {
		close(lc.stop)
	})
	if lc.started {
		<-lc.done
	}
	lc.led.close()
}
