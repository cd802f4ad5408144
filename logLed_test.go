package main

import (
	"fmt"
	"sync"
)

type logLed struct {
	mu         sync.Mutex
	leds       map[string]bool
	audit      []string
	disableLog bool
	closed     bool
	logger     flogger
}

func (ll *logLed) init(rt runtimeConfig) error {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.leds = make(map[string]bool)
	ll.audit = make([]string, 0)
	ll.logger = &ThreadLogger{name: "LEDs"}
	return nil
}

func (ll *logLed) set(pin string, on bool) error {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.leds[pin] = on
	if !ll.disableLog {
		ll.logger.Printf("Set LED %v to %v", pin, on)
	}
	ll.audit = append(ll.audit, fmt.Sprintf("Set LED %v to %v", pin, on))
	return nil
}

func (ll *logLed) get(pin string) bool {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return ll.leds[pin]
}

func (ll *logLed) auditLen() int {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return len(ll.audit)
}

func (ll *logLed) close() {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.closed = true
}
