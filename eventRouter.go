package main

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// eventRouter turns button presses into playback commands, one at a time and
// in the order they were queued
type eventRouter struct {
	rt         runtimeConfig
	player     playbackCommands
	seekAmount time.Duration
	started    bool
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func newEventRouter(rt runtimeConfig, player playbackCommands) *eventRouter {
	return &eventRouter{
		rt:         rt.withLogger("Router"),
		player:     player,
		seekAmount: rt.settings.GetDuration(sSeekAmount),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (er *eventRouter) route(e pressEvent) error {
	switch e.id {
	case btnPlayPause:
		return er.player.togglePlayPause()
	case btnRewind:
		return er.player.seekRelative(-er.seekAmount)
	case btnFastForward:
		return er.player.seekRelative(er.seekAmount)
	}
	return errors.Errorf("unhandled button %s", e.id)
}

func (er *eventRouter) start() {
	er.started = true
	go er.runRouter()
}

func (er *eventRouter) runRouter() {
	defer close(er.done)
	defer func() {
		er.rt.logger.Println("exiting runRouter")
	}()

	comms := er.rt.comms
	for {
		select {
		case <-er.stop:
			return
		case <-comms.quit:
			er.rt.logger.Println("quit from runRouter")
			return
		case e := <-comms.presses:
			er.rt.logger.Printf("%s (queued at %s)", e.id, e.when.Format("15:04:05.000"))
			if err := er.route(e); err != nil {
				er.rt.reportError(errors.Wrapf(err, "%s", e.id))
			}
		}
	}
}

func (er *eventRouter) shutdown() {
	er.stopOnce.Do(func() {
		close(er.stop)
	})
	if er.started {
		<-er.done
	}
}
