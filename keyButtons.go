package main

import (
	"github.com/nsf/termbox-go"
	"github.com/stianeikeland/go-rpio"
)

// keyButtons drives simulated button pins from the keyboard, a key press
// holds the pin active for dKeyHold
type keyButtons struct {
	rt   runtimeConfig
	bus  *simBus
	keys map[byte]buttonMap
	done chan struct{}
}

func newKeyButtons(rt runtimeConfig, bus *simBus, pins map[buttonID]buttonMap) *keyButtons {
	kb := &keyButtons{
		rt:   rt.withLogger("Keyboard"),
		bus:  bus,
		keys: make(map[byte]buttonMap),
		done: make(chan struct{}),
	}
	for _, bm := range pins {
		if bm.key != "" {
			kb.keys[bm.key[0]] = bm
		}
	}
	return kb
}

func (kb *keyButtons) start() error {
	err := termbox.Init()
	if err != nil {
		return err
	}

	termbox.SetInputMode(termbox.InputEsc)
	termbox.Flush()

	go kb.checkKeyboard()
	return nil
}

func (kb *keyButtons) checkKeyboard() {
	defer close(kb.done)
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			// add an exit key
			if ev.Key == termbox.KeyCtrlC {
				kb.rt.logger.Println("exit requested")
				kb.rt.requestQuit()
				return
			}
			if !kb.press(byte(ev.Ch)) {
				kb.rt.logger.Printf("no button on '%c'", ev.Ch)
			}
		case termbox.EventInterrupt:
			return
		case termbox.EventError:
			kb.rt.logger.Println(ev.Err.Error())
			return
		}
	}
}

// press holds the bound pin active, false if no button has this key
func (kb *keyButtons) press(ch byte) bool {
	bm, ok := kb.keys[ch]
	if !ok {
		return false
	}
	pin := kb.bus.pin(bm.pin)
	if pin == nil {
		return false
	}
	active, idle := rpio.High, rpio.Low
	if bm.pullup {
		active, idle = rpio.Low, rpio.High
	}
	pin.setLevel(active)
	go func() {
		kb.rt.clock.Sleep(dKeyHold)
		pin.setLevel(idle)
	}()
	return true
}

func (kb *keyButtons) shutdown() {
	termbox.Interrupt()
	<-kb.done
	termbox.Close()
}
