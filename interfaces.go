package main

import (
	"io"
	"time"

	"github.com/stianeikeland/go-rpio"
)

type pinDirection int

const (
	dirIn pinDirection = iota
	dirOut
)

// peripheralBus owns the raw hardware, every handle it gives out is
// exclusive until released
type peripheralBus interface {
	openGpio(name string, dir pinDirection, pullup bool) (pinHandle, error)
	openI2c(bus int, address uint8) (i2cHandle, error)
	close() error
}

type pinHandle interface {
	name() string
	direction() pinDirection
	read() (rpio.State, error)
	write(level rpio.State) error
	release() error
}

type i2cHandle interface {
	io.Writer
	io.ByteWriter
	Close() error
}

// audioDecoder turns an asset into a seekable PCM stream
type audioDecoder interface {
	openAsset(path string) (audioStream, error)
}

// audioStream is signed 16 bit little endian PCM with a read cursor
type audioStream interface {
	io.Reader
	format() (rate int, channels int)
	seek(pos time.Duration) error
	position() time.Duration
	duration() time.Duration
	close() error
}

// audioSink pulls PCM from a stream while started
type audioSink interface {
	start(s audioStream) error
	stop() error
	close() error
}

// bufferingSink reads ahead of what is heard. buffered is how far, and seek
// moves the stream and throws the read-ahead away
type bufferingSink interface {
	audioSink
	buffered() time.Duration
	seek(pos time.Duration) error
}

// display is the surface the display effects loop draws on
type display interface {
	clear() error
	showBanner() error
	show(text string) error
	showRight(text string) error
	writeRaw(column int, segments uint16) error
	setBlinkRate(r uint8) error
}

type led interface {
	init(rt runtimeConfig) error
	set(pin string, on bool) error
	close()
}

// playbackCommands is what the event router drives
type playbackCommands interface {
	togglePlayPause() error
	seekRelative(delta time.Duration) error
}
