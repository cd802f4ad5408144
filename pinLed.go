package main

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio"
)

// pinLed drives LEDs on output pins opened through the bus
type pinLed struct {
	bus    peripheralBus
	names  []string
	mu     sync.Mutex
	pins   map[string]pinHandle
	logger flogger
}

func newPinLed(bus peripheralBus, names ...string) *pinLed {
	return &pinLed{bus: bus, names: names, pins: make(map[string]pinHandle)}
}

func (pl *pinLed) init(rt runtimeConfig) error {
	pl.logger = rt.logger
	for _, n := range pl.names {
		pin, err := pl.bus.openGpio(n, dirOut, false)
		if err != nil {
			pl.close()
			return errors.Wrapf(err, "led %s", n)
		}
		pl.mu.Lock()
		pl.pins[n] = pin
		pl.mu.Unlock()
	}
	return nil
}

func (pl *pinLed) set(name string, on bool) error {
	pl.mu.Lock()
	pin, ok := pl.pins[name]
	pl.mu.Unlock()
	if !ok {
		return errors.Wrapf(errPinNotFound, "led %s", name)
	}
	level := rpio.Low
	if on {
		level = rpio.High
	}
	return pin.write(level)
}

func (pl *pinLed) close() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	for n, pin := range pl.pins {
		pin.release()
		delete(pl.pins, n)
	}
}
