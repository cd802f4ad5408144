// utility functions
package main

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	dPlaybackWatch = 250 * time.Millisecond
	dLEDSleep      = 10 * time.Millisecond
	dKeyHold       = 100 * time.Millisecond
	dSinkTick      = 20 * time.Millisecond
)

type commChannels struct {
	quit     chan struct{}
	quitOnce *sync.Once
	presses  chan pressEvent
	effects  chan displayEffect
	leds     chan ledEffect
	errors   chan error
}

type runtimeConfig struct {
	comms    commChannels
	clock    clockwork.Clock
	settings configSettings
	logger   flogger
}

func initCommChannels() commChannels {
	return commChannels{
		quit:     make(chan struct{}),
		quitOnce: &sync.Once{},
		// presses are never dropped, a full queue blocks the button poller
		presses: make(chan pressEvent, 16),
		effects: make(chan displayEffect, 1),
		leds:    make(chan ledEffect, 4),
		errors:  make(chan error, 16),
	}
}

func initRuntime(settings configSettings, clock clockwork.Clock) runtimeConfig {
	return runtimeConfig{
		comms:    initCommChannels(),
		clock:    clock,
		settings: settings,
		logger:   &ThreadLogger{name: "Main"},
	}
}

// withLogger gives a worker its own named logger
func (rt runtimeConfig) withLogger(name string) runtimeConfig {
	rt.logger = &ThreadLogger{name: name}
	return rt
}

func (rt runtimeConfig) requestQuit() {
	rt.comms.quitOnce.Do(func() {
		close(rt.comms.quit)
	})
}

func (rt runtimeConfig) quitting() bool {
	select {
	case <-rt.comms.quit:
		return true
	default:
		return false
	}
}

// reportError hands a runtime failure to whoever is watching, it never blocks
func (rt runtimeConfig) reportError(err error) {
	rt.logger.Println(err.Error())
	select {
	case rt.comms.errors <- err:
	default:
	}
}

func clamp(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
