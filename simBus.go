package main

import (
	"sync"

	"dscheirer.com/nprplayer/i2c"
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio"
)

// simBus is an in-memory board, pins keep their state between opens so the
// keyboard and the tests can reach them by name
type simBus struct {
	locks  pinLocks
	mu     sync.Mutex
	pins   map[int]*simPin
	noI2c  bool // pretend the backpack is not wired
	noGpio bool
	closed bool
	logger flogger
}

type simPin struct {
	mu       sync.Mutex
	bus      *simBus
	num      int
	label    string
	dir      pinDirection
	level    rpio.State
	lost     bool
	released bool
	writes   []rpio.State
}

func newSimBus() *simBus {
	return &simBus{pins: make(map[int]*simPin), logger: &ThreadLogger{name: "SimBus"}}
}

func (sb *simBus) openGpio(name string, dir pinDirection, pullup bool) (pinHandle, error) {
	if sb.noGpio {
		return nil, errors.Wrap(errBusUnavailable, "gpio")
	}
	num, err := parsePinName(name)
	if err != nil {
		return nil, err
	}
	if err := sb.locks.lockGpio(num, name); err != nil {
		return nil, err
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()
	p := &simPin{bus: sb, num: num, label: name, dir: dir}
	// idle level follows the pull resistor
	if dir == dirIn && pullup {
		p.level = rpio.High
	} else {
		p.level = rpio.Low
	}
	sb.pins[num] = p
	return p, nil
}

func (sb *simBus) openI2c(bus int, address uint8) (i2cHandle, error) {
	if sb.noI2c {
		return nil, errors.Wrapf(errBusUnavailable, "i2c-%d", bus)
	}
	if err := sb.locks.lockI2c(bus, address); err != nil {
		return nil, err
	}
	dev, _ := i2c.Open(address, bus, true)
	return &lockedI2c{i2cHandle: dev, unlock: func() { sb.locks.unlockI2c(bus, address) }}, nil
}

func (sb *simBus) close() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.closed = true
	return nil
}

// pin finds the last opened pin by name, nil if never opened
func (sb *simBus) pin(name string) *simPin {
	num, err := parsePinName(name)
	if err != nil {
		return nil
	}
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.pins[num]
}

func (p *simPin) name() string {
	return p.label
}

func (p *simPin) direction() pinDirection {
	return p.dir
}

func (p *simPin) read() (rpio.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lost {
		return rpio.Low, errors.Wrapf(errPinLost, "'%s'", p.label)
	}
	return p.level, nil
}

func (p *simPin) write(level rpio.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dir != dirOut {
		return errors.Errorf("%s is an input", p.label)
	}
	if p.lost {
		return errors.Wrapf(errPinLost, "'%s'", p.label)
	}
	p.level = level
	p.writes = append(p.writes, level)
	return nil
}

func (p *simPin) release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.released {
		p.released = true
		p.bus.locks.unlockGpio(p.num)
	}
	return nil
}

// setLevel drives an input from the outside
func (p *simPin) setLevel(level rpio.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

func (p *simPin) getLevel() rpio.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// unplug makes the next read fail
func (p *simPin) unplug() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lost = true
}

func (p *simPin) isReleased() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}
