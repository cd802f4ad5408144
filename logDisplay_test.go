package main

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// logDisplay records what would have been shown
type logDisplay struct {
	mu         sync.Mutex
	banner     string
	curDisplay string
	blinkRate  uint8
	columns    [4]uint16
	audit      []string
}

func (ld *logDisplay) record(s string) {
	ld.audit = append(ld.audit, s)
}

func (ld *logDisplay) clear() error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	ld.curDisplay = ""
	ld.columns = [4]uint16{}
	ld.record("clear")
	return nil
}

func (ld *logDisplay) showBanner() error {
	ld.mu.Lock()
	b := ld.banner
	ld.mu.Unlock()
	return ld.show(b)
}

func (ld *logDisplay) show(e string) error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if e != ld.curDisplay {
		ld.record(e)
	}
	ld.curDisplay = e
	return nil
}

func (ld *logDisplay) showRight(e string) error {
	return ld.show(e)
}

func (ld *logDisplay) writeRaw(column int, segments uint16) error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if column < 0 || column >= len(ld.columns) {
		return errors.Wrapf(errInvalidColumn, "column %d", column)
	}
	ld.curDisplay = ""
	ld.columns[column] = segments
	ld.record(fmt.Sprintf("col %d %04x", column, segments))
	return nil
}

func (ld *logDisplay) setBlinkRate(r uint8) error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	ld.blinkRate = r
	return nil
}

func (ld *logDisplay) current() (string, uint8) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.curDisplay, ld.blinkRate
}
