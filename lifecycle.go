package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const dPowerOnFlash = time.Second

type release struct {
	name string
	fn   func()
}

// app wires the controllers together. Everything acquired in start() is
// released by shutdown() in reverse order, also when start() fails half way
type app struct {
	rt       runtimeConfig
	bus      peripheralBus
	sim      *simBus
	display  *displayController
	effects  *displayEffects
	leds     *ledController
	ledPin   string
	buttons  *buttonsController
	keys     *keyButtons
	player   *playbackController
	router   *eventRouter
	watcher  *playbackWatcher
	releases []release

	// swapped by the tests
	newBus     func(settings configSettings) peripheralBus
	newLed     func(bus peripheralBus, pin string) led
	newDecoder func() audioDecoder
	newSink    func(rt runtimeConfig) (audioSink, error)
}

func newApp(rt runtimeConfig) *app {
	return &app{
		rt:         rt,
		newBus:     defaultBus,
		newLed:     func(bus peripheralBus, pin string) led { return newPinLed(bus, pin) },
		newDecoder: func() audioDecoder { return newMP3Decoder() },
		newSink:    defaultSink,
	}
}

func defaultBus(settings configSettings) peripheralBus {
	if settings.GetBool(sGPIOSimulated) {
		return newSimBus()
	}
	return newRpioBus(settings)
}

// defaultSink falls back to the clock sink so the buttons still do something
func defaultSink(rt runtimeConfig) (audioSink, error) {
	kind := rt.settings.GetString(sAudioOutput)
	if kind == "none" {
		return newClockSink(rt), nil
	}
	sink, err := newHardwareSink(kind)
	if err != nil {
		rt.logger.Printf("audio output '%s' unavailable, playing silently: %v", kind, err)
		return newClockSink(rt), nil
	}
	return sink, nil
}

func (a *app) push(name string, fn func()) {
	a.releases = append(a.releases, release{name: name, fn: fn})
}

func (a *app) start() (err error) {
	defer func() {
		if err != nil {
			a.shutdown()
		}
	}()

	rt := a.rt
	settings := rt.settings

	a.bus = a.newBus(settings)
	a.sim, _ = a.bus.(*simBus)
	a.push("bus", func() { a.bus.close() })

	// a missing display or LED is not a reason to stop
	dc, err := openDisplayController(rt, a.bus)
	if err != nil {
		rt.logger.Printf("display unavailable: %v", err)
	} else {
		a.display = dc
		a.push("display", dc.shutdown)
		if err := dc.start(); err != nil {
			rt.logger.Printf("display start: %v", err)
		}
		a.effects = newDisplayEffects(rt, dc)
		a.effects.start()
		a.push("effects", a.effects.shutdown)
	}

	if pin := settings.GetString(sLEDPin); pin != "" {
		lc := newLEDController(rt, a.newLed(a.bus, pin))
		if err := lc.start(); err != nil {
			rt.logger.Printf("status LED unavailable: %v", err)
		} else {
			a.leds = lc
			a.ledPin = pin
			a.push("leds", lc.shutdown)
			rt.comms.leds <- ledMessage(pin, modeOn, dPowerOnFlash)
		}
	}

	pins := buttonPins(settings)
	a.buttons = newButtonsController(rt, a.bus)
	if err := a.buttons.setupButtons(pins); err != nil {
		return errors.Wrap(err, "buttons")
	}
	a.push("buttons", a.buttons.shutdown)

	if settings.GetBool(sButtonSimulated) {
		if a.sim == nil {
			rt.logger.Println("keyboard buttons need gpioSimulated, ignoring")
		} else {
			kb := newKeyButtons(rt, a.sim, pins)
			if err := kb.start(); err != nil {
				rt.logger.Printf("keyboard unavailable: %v", err)
			} else {
				a.keys = kb
				a.push("keyboard", kb.shutdown)
			}
		}
	}

	sink, err := a.newSink(rt)
	if err != nil {
		return errors.Wrap(err, "audio")
	}
	asset := filepath.Join(settings.GetString(sAssetPath), settings.GetString(sMP3File))
	if _, err := os.Stat(asset); err != nil {
		// reported now, every play reports it again until the asset is fixed
		rt.reportError(errors.Wrapf(errDecodeUnavailable, "%v", err))
	}
	a.player = newPlaybackController(rt, a.newDecoder(), sink, asset)
	a.push("playback", a.player.shutdown)

	a.router = newEventRouter(rt, a.player)
	a.router.start()
	a.push("router", a.router.shutdown)

	a.watcher = newPlaybackWatcher(rt, a.player, a.ledPin, a.effects != nil)
	a.watcher.start()
	a.push("watcher", a.watcher.shutdown)

	a.buttons.start()
	rt.logger.Println("started")
	return nil
}

func (a *app) shutdown() {
	for i := len(a.releases) - 1; i >= 0; i-- {
		r := a.releases[i]
		a.rt.logger.Printf("releasing %s", r.name)
		r.fn()
	}
	a.releases = nil
}
