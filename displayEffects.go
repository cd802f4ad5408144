package main

import (
	"fmt"
	"sync"
	"time"

	"dscheirer.com/nprplayer/alphanum_backpack"
)

type displayEffect struct {
	id  int
	val interface{}
}

type displayPrint struct {
	s string
	d time.Duration
}

const (
	modeBanner   = "banner"
	modePosition = "position"
)

const (
	eBanner = iota
	ePosition
	ePrint
)

// channel messaging functions
func bannerEffect() displayEffect {
	return displayEffect{id: eBanner}
}

func positionEffect(s playbackState) displayEffect {
	return displayEffect{id: ePosition, val: s}
}

func printEffect(s string, d time.Duration) displayEffect {
	return displayEffect{id: ePrint, val: displayPrint{s: s, d: d}}
}

func toPrint(val interface{}) (*displayPrint, error) {
	switch v := val.(type) {
	case displayPrint:
		return &v, nil
	default:
		return nil, fmt.Errorf("Bad type: %T", v)
	}
}

func toPlaybackState(val interface{}) (*playbackState, error) {
	switch v := val.(type) {
	case playbackState:
		return &v, nil
	default:
		return nil, fmt.Errorf("Bad type: %T", v)
	}
}

// formatPosition is M.SS, it tops out at 99.59
func formatPosition(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	if m > 99 {
		m, s = 99, 59
	}
	return fmt.Sprintf("%d.%02d", m, s)
}

// displayEffects owns the display once it is started, everything else
// asks for output over comms.effects
type displayEffects struct {
	rt       runtimeConfig
	display  display
	mode     string
	last     *playbackState
	hold     time.Time // a print stays up until then
	holding  bool
	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newDisplayEffects(rt runtimeConfig, d display) *displayEffects {
	return &displayEffects{
		rt:      rt.withLogger("Effects"),
		display: d,
		mode:    rt.settings.GetString(sDisplayMode),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (de *displayEffects) start() {
	de.started = true
	go de.runEffects()
}

func (de *displayEffects) logErr(err error) {
	if err != nil {
		de.rt.logger.Printf("Error: %s", err.Error())
	}
}

// redraw puts the current mode back on the display
func (de *displayEffects) redraw() {
	if de.mode != modePosition || de.last == nil {
		de.logErr(de.display.showBanner())
		return
	}
	var blink uint8 = alphanum_backpack.BLINK_OFF
	if de.last.status == statusPaused {
		blink = alphanum_backpack.BLINK_1HZ
	}
	de.logErr(de.display.setBlinkRate(blink))
	de.logErr(de.display.showRight(formatPosition(de.last.position)))
}

func (de *displayEffects) handle(e displayEffect) {
	switch e.id {
	case eBanner:
		de.mode = modeBanner
		de.redraw()
	case ePosition:
		st, err := toPlaybackState(e.val)
		if err != nil {
			de.logErr(err)
			return
		}
		de.last = st
		if !de.holding {
			de.redraw()
		}
	case ePrint:
		v, err := toPrint(e.val)
		if err != nil {
			de.logErr(err)
			return
		}
		de.rt.logger.Printf("Print: %s (%v)", v.s, v.d)
		de.logErr(de.display.setBlinkRate(alphanum_backpack.BLINK_OFF))
		de.logErr(de.display.show(v.s))
		de.hold = de.rt.clock.Now().Add(v.d)
		de.holding = true
	default:
		de.rt.logger.Printf("Unhandled %d", e.id)
	}
}

// tick ends a print whose time is up
func (de *displayEffects) tick(now time.Time) {
	if de.holding && !now.Before(de.hold) {
		de.holding = false
		de.redraw()
	}
}

func (de *displayEffects) runEffects() {
	defer close(de.done)
	defer func() {
		de.rt.logger.Println("exiting runEffects")
	}()

	comms := de.rt.comms
	for {
		select {
		case <-de.stop:
			return
		case <-comms.quit:
			de.rt.logger.Println("quit from runEffects")
			return
		case e := <-comms.effects:
			de.handle(e)
		case <-de.rt.clock.After(dPlaybackWatch):
			de.tick(de.rt.clock.Now())
		}
	}
}

func (de *displayEffects) shutdown() {
	de.stopOnce.Do(func() {
		close(de.stop)
	})
	if de.started {
		<-de.done
	}
}
