package main

import (
	"sync"

	"dscheirer.com/nprplayer/i2c"
	"github.com/pkg/errors"
	// gpio lib
	"github.com/stianeikeland/go-rpio"
)

// rpioBus is the Raspberry Pi: memory mapped GPIO through rpio and
// /dev/i2c-N for the backpack
type rpioBus struct {
	locks    pinLocks
	mu       sync.Mutex
	gpioOpen bool
	i2cSim   bool
	logger   flogger
}

type rpioPin struct {
	bus   *rpioBus
	num   int
	label string
	dir   pinDirection
	rpin  rpio.Pin
	once  sync.Once
}

func newRpioBus(settings configSettings) *rpioBus {
	return &rpioBus{
		i2cSim: settings.GetBool(sI2CSimulated),
		logger: &ThreadLogger{name: "Bus"},
	}
}

// the gpio memory map is opened on the first pin
func (rb *rpioBus) openMem() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.gpioOpen {
		return nil
	}
	if err := rpio.Open(); err != nil {
		return errors.Wrapf(errBusUnavailable, "gpio: %v", err)
	}
	rb.gpioOpen = true
	return nil
}

func (rb *rpioBus) openGpio(name string, dir pinDirection, pullup bool) (pinHandle, error) {
	num, err := parsePinName(name)
	if err != nil {
		return nil, err
	}
	if err := rb.openMem(); err != nil {
		return nil, err
	}
	if err := rb.locks.lockGpio(num, name); err != nil {
		return nil, err
	}

	p := &rpioPin{bus: rb, num: num, label: name, dir: dir, rpin: rpio.Pin(num)}
	if dir == dirOut {
		p.rpin.Output()
	} else {
		p.rpin.Input()
		if pullup {
			p.rpin.PullUp() // GND => button press
		} else {
			p.rpin.PullDown() // +V -> button press
		}
	}
	rb.logger.Printf("opened %s (BCM%d)", name, num)
	return p, nil
}

func (rb *rpioBus) openI2c(bus int, address uint8) (i2cHandle, error) {
	if err := rb.locks.lockI2c(bus, address); err != nil {
		return nil, err
	}
	dev, err := i2c.Open(address, bus, rb.i2cSim)
	if err != nil {
		rb.locks.unlockI2c(bus, address)
		return nil, errors.Wrapf(errBusUnavailable, "i2c-%d: %v", bus, err)
	}
	rb.logger.Printf("opened i2c-%d at 0x%02x", dev.Bus(), dev.Address())
	return &lockedI2c{i2cHandle: dev, unlock: func() { rb.locks.unlockI2c(bus, address) }}, nil
}

func (rb *rpioBus) close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if n := rb.locks.openCount(); n > 0 {
		rb.logger.Printf("closing with %d handles still open", n)
	}
	if !rb.gpioOpen {
		return nil
	}
	rb.gpioOpen = false
	return rpio.Close()
}

func (p *rpioPin) name() string {
	return p.label
}

func (p *rpioPin) direction() pinDirection {
	return p.dir
}

// read never fails, rpio reads the mapped GPIO registers and has no way to
// tell that a pin went away
func (p *rpioPin) read() (rpio.State, error) {
	return p.rpin.Read(), nil
}

func (p *rpioPin) write(level rpio.State) error {
	if p.dir != dirOut {
		return errors.Errorf("%s is an input", p.label)
	}
	p.rpin.Write(level)
	return nil
}

func (p *rpioPin) release() error {
	p.once.Do(func() {
		if p.dir == dirOut {
			p.rpin.Low()
		}
		p.bus.locks.unlockGpio(p.num)
	})
	return nil
}
