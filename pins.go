package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// highest BCM line on the 40 pin header
const maxBCM = 27

// parsePinName accepts "BCM21", "GPIO21" or "21"
func parsePinName(name string) (int, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for _, prefix := range []string{"BCM", "GPIO"} {
		if strings.HasPrefix(n, prefix) {
			n = strings.TrimPrefix(n, prefix)
			break
		}
	}
	num, err := strconv.Atoi(n)
	if err != nil || num < 0 || num > maxBCM {
		return 0, errors.Wrapf(errPinNotFound, "'%s'", name)
	}
	return num, nil
}

// pinLocks enforces one owner per GPIO line and per I2C address
type pinLocks struct {
	mu   sync.Mutex
	gpio map[int]string
	i2c  map[string]bool
}

func i2cKey(bus int, address uint8) string {
	return fmt.Sprintf("%d/0x%02x", bus, address)
}

func (pl *pinLocks) lockGpio(num int, name string) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.gpio == nil {
		pl.gpio = make(map[int]string)
	}
	if owner, ok := pl.gpio[num]; ok {
		return errors.Wrapf(errPinInUse, "'%s' already open as '%s'", name, owner)
	}
	pl.gpio[num] = name
	return nil
}

func (pl *pinLocks) unlockGpio(num int) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	delete(pl.gpio, num)
}

func (pl *pinLocks) lockI2c(bus int, address uint8) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.i2c == nil {
		pl.i2c = make(map[string]bool)
	}
	k := i2cKey(bus, address)
	if pl.i2c[k] {
		return errors.Wrapf(errPinInUse, "i2c %s", k)
	}
	pl.i2c[k] = true
	return nil
}

func (pl *pinLocks) unlockI2c(bus int, address uint8) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	delete(pl.i2c, i2cKey(bus, address))
}

func (pl *pinLocks) openCount() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.gpio) + len(pl.i2c)
}

// lockedI2c gives the address back to the bus on Close
type lockedI2c struct {
	i2cHandle
	unlock func()
	once   sync.Once
}

func (l *lockedI2c) Close() error {
	err := l.i2cHandle.Close()
	l.once.Do(l.unlock)
	return err
}
