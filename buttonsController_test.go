package main

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio"
	"gotest.tools/assert"
)

func testButtons(rt runtimeConfig) (*buttonsController, *simBus) {
	bus := newSimBus()
	bc := newButtonsController(rt, bus)
	return bc, bus
}

func pressLevel(pullup bool) rpio.State {
	if pullup {
		return rpio.Low
	}
	return rpio.High
}

func idleLevel(pullup bool) rpio.State {
	if pullup {
		return rpio.High
	}
	return rpio.Low
}

func TestButtonSetupBindsAll(t *testing.T) {
	rt, _, _ := testRuntime()
	bc, bus := testButtons(rt)
	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))
	assert.Equal(t, bc.activeCount(), 3)
	assert.Equal(t, bus.locks.openCount(), 3)

	// idle follows the pull resistor
	assert.Equal(t, bus.pin("BCM21").getLevel(), rpio.High)
	assert.Equal(t, bus.pin("BCM16").getLevel(), rpio.Low)

	bc.shutdown()
	assert.Equal(t, bus.locks.openCount(), 0)
}

func TestButtonSetupSkipsBadPin(t *testing.T) {
	rt, clock, comms := testRuntime()
	bc, bus := testButtons(rt)
	pins := buttonPins(rt.settings)
	bm := pins[btnFastForward]
	bm.pin = "BCM99"
	pins[btnFastForward] = bm

	assert.NilError(t, bc.setupButtons(pins))
	assert.Equal(t, bc.activeCount(), 2)
	assert.Equal(t, bus.locks.openCount(), 2)

	select {
	case err := <-comms.errors:
		assert.Assert(t, errors.Is(err, errPinNotFound))
		assert.ErrorContains(t, err, "FAST_FORWARD")
	default:
		assert.Assert(t, false, "bad pin was not reported")
	}

	// the good ones still press
	bus.pin("BCM21").setLevel(rpio.Low)
	var got []pressEvent
	for i := 0; i < 20; i++ {
		events, _ := bc.checkButtons()
		got = append(got, events...)
		clock.Advance(5 * time.Millisecond)
	}
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].id, btnPlayPause)

	bc.shutdown()
	assert.Equal(t, bus.locks.openCount(), 0)
}

func TestButtonSetupPinInUse(t *testing.T) {
	rt, _, comms := testRuntime()
	bc, bus := testButtons(rt)
	_, err := bus.openGpio("BCM20", dirOut, false)
	assert.NilError(t, err)

	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))
	assert.Equal(t, bc.activeCount(), 2)
	// two buttons and the pin we opened by hand
	assert.Equal(t, bus.locks.openCount(), 3)
	err = <-comms.errors
	assert.Assert(t, errors.Is(err, errPinInUse))

	bc.shutdown()
	assert.Equal(t, bus.locks.openCount(), 1)
}

func TestButtonSetupNoBindings(t *testing.T) {
	rt, _, _ := testRuntime()
	bc, bus := testButtons(rt)
	pins := buttonPins(rt.settings)
	for id, bm := range pins {
		bm.pin = "P1"
		pins[id] = bm
	}

	err := bc.setupButtons(pins)
	assert.Assert(t, errors.Is(err, errPinNotFound))
	assert.Equal(t, bc.activeCount(), 0)
	assert.Equal(t, bus.locks.openCount(), 0)
}

func TestButtonSetupNothingConfigured(t *testing.T) {
	rt, _, _ := testRuntime()
	bc, _ := testButtons(rt)
	err := bc.setupButtons(map[buttonID]buttonMap{})
	assert.ErrorContains(t, err, "no buttons configured")
}

func TestButtonSetupBusUnavailable(t *testing.T) {
	rt, _, _ := testRuntime()
	bc, bus := testButtons(rt)
	bus.noGpio = true

	err := bc.setupButtons(buttonPins(rt.settings))
	assert.Assert(t, errors.Is(err, errBusUnavailable))
	assert.Equal(t, bc.activeCount(), 0)
}

func TestButtonBounceIsIgnored(t *testing.T) {
	rt, clock, _ := testRuntime()
	bc, bus := testButtons(rt)
	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))
	pin := bus.pin("BCM21")

	// flip faster than the window, never stable long enough
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			pin.setLevel(rpio.Low)
		} else {
			pin.setLevel(rpio.High)
		}
		events, errs := bc.checkButtons()
		assert.Equal(t, len(events), 0)
		assert.Equal(t, len(errs), 0)
		clock.Advance(10 * time.Millisecond)
	}
	pin.setLevel(rpio.High)
	for i := 0; i < 10; i++ {
		events, _ := bc.checkButtons()
		assert.Equal(t, len(events), 0)
		clock.Advance(10 * time.Millisecond)
	}
}

func TestButtonShortPressIsIgnored(t *testing.T) {
	rt, clock, _ := testRuntime()
	bc, bus := testButtons(rt)
	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))
	pin := bus.pin("BCM21")

	pin.setLevel(rpio.Low)
	for d := time.Duration(0); d < 25*time.Millisecond; d += 5 * time.Millisecond {
		events, _ := bc.checkButtons()
		assert.Equal(t, len(events), 0)
		clock.Advance(5 * time.Millisecond)
	}
	pin.setLevel(rpio.High)
	for i := 0; i < 10; i++ {
		events, _ := bc.checkButtons()
		assert.Equal(t, len(events), 0)
		clock.Advance(5 * time.Millisecond)
	}
}

func doTestHeldPress(t *testing.T, pullup bool) {
	rt, clock, _ := testRuntime()
	bm := rt.settings.GetButtonMap(sRewindBtn)
	bm.pullup = pullup
	rt.settings.settings[sRewindBtn] = bm

	bc, bus := testButtons(rt)
	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))
	pin := bus.pin(bm.pin)
	assert.Equal(t, pin.getLevel(), idleLevel(pullup))

	// hold for a second, exactly one press comes out
	pin.setLevel(pressLevel(pullup))
	var got []pressEvent
	for d := time.Duration(0); d <= time.Second; d += 5 * time.Millisecond {
		events, _ := bc.checkButtons()
		got = append(got, events...)
		clock.Advance(5 * time.Millisecond)
	}
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].id, btnRewind)

	// the release is silent
	pin.setLevel(idleLevel(pullup))
	for d := time.Duration(0); d <= 100*time.Millisecond; d += 5 * time.Millisecond {
		events, _ := bc.checkButtons()
		assert.Equal(t, len(events), 0)
		clock.Advance(5 * time.Millisecond)
	}

	// and a second press counts again
	pin.setLevel(pressLevel(pullup))
	got = nil
	for d := time.Duration(0); d <= 100*time.Millisecond; d += 5 * time.Millisecond {
		events, _ := bc.checkButtons()
		got = append(got, events...)
		clock.Advance(5 * time.Millisecond)
	}
	assert.Equal(t, len(got), 1)
}

func TestButtonHeldPressPullup(t *testing.T) {
	doTestHeldPress(t, true)
}

func TestButtonHeldPressPulldown(t *testing.T) {
	doTestHeldPress(t, false)
}

func TestButtonPinLostDeactivatesOne(t *testing.T) {
	rt, clock, _ := testRuntime()
	bc, bus := testButtons(rt)
	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))

	bus.pin("BCM20").unplug()
	_, errs := bc.checkButtons()
	assert.Equal(t, len(errs), 1)
	assert.Assert(t, errors.Is(errs[0], errPinLost))
	assert.ErrorContains(t, errs[0], "REWIND")
	assert.Equal(t, bc.activeCount(), 2)

	// lost pins are not read again
	_, errs = bc.checkButtons()
	assert.Equal(t, len(errs), 0)

	// the others still work
	bus.pin("BCM16").setLevel(rpio.High)
	var got []pressEvent
	for i := 0; i < 20; i++ {
		events, errs := bc.checkButtons()
		assert.Equal(t, len(errs), 0)
		got = append(got, events...)
		clock.Advance(5 * time.Millisecond)
	}
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].id, btnFastForward)
}

func TestButtonWatcherQueuesPresses(t *testing.T) {
	rt, clock, comms := testRuntime()
	bc, bus := testButtons(rt)
	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))
	bc.start()

	clock.BlockUntil(1)
	bus.pin("BCM21").setLevel(rpio.Low)

	// first sample sees the edge, then wait out the window
	testBlockDuration(clock, bc.interval, bc.debounce+bc.interval)

	e := pressRead(t, comms.presses)
	assert.Equal(t, e.id, btnPlayPause)
	pressNoRead(t, comms.presses)

	// still held, nothing more
	testBlockDuration(clock, bc.interval, 100*time.Millisecond)
	pressNoRead(t, comms.presses)

	bc.shutdown()
	assert.Equal(t, bus.locks.openCount(), 0)
}

func TestButtonWatcherReportsLostPin(t *testing.T) {
	rt, clock, comms := testRuntime()
	bc, bus := testButtons(rt)
	assert.NilError(t, bc.setupButtons(buttonPins(rt.settings)))

	bus.pin("BCM16").unplug()
	bc.start()
	clock.BlockUntil(1)

	select {
	case err := <-comms.errors:
		assert.Assert(t, errors.Is(err, errPinLost))
	default:
		assert.Assert(t, false, "no error reported")
	}
	bc.shutdown()
}

func TestButtonIDNames(t *testing.T) {
	assert.Equal(t, btnPlayPause.String(), "PLAY_PAUSE")
	assert.Equal(t, btnRewind.String(), "REWIND")
	assert.Equal(t, btnFastForward.String(), "FAST_FORWARD")
	assert.Equal(t, buttonID(7).String(), "button(7)")
}
