package main

import (
	"testing"

	"dscheirer.com/nprplayer/alphanum_backpack"
	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func testDisplay(t *testing.T, rt runtimeConfig) (*displayController, *fakeI2c) {
	dev := &fakeI2c{}
	bus := &i2cSimBus{simBus: newSimBus(), dev: dev}
	dc, err := openDisplayController(rt, bus)
	assert.NilError(t, err)
	return dc, dev
}

// columnWrites are the [addr, lo, hi] writes after open
func columnWrites(dev *fakeI2c) [][]byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	var ret [][]byte
	for _, w := range dev.writes {
		if len(w) == 3 {
			ret = append(ret, w)
		}
	}
	return ret
}

func TestDisplayBanner(t *testing.T) {
	rt, _, _ := testRuntime()
	dc, dev := testDisplay(t, rt)
	assert.NilError(t, dc.start())

	frame := dc.frame()
	for i := 0; i < 3; i++ {
		assert.Assert(t, frame[i] != 0, "column %d is blank", i)
	}
	assert.Equal(t, frame[3], uint16(0))

	// last four column writes are the banner
	w := columnWrites(dev)
	assert.Assert(t, len(w) >= 4)
	w = w[len(w)-4:]
	for i := 0; i < 4; i++ {
		assert.Equal(t, int(w[i][0]), i*2)
		assert.Equal(t, uint16(w[i][1])|uint16(w[i][2])<<8, frame[i])
	}

	dc.shutdown()
	assert.Assert(t, dev.closed)
}

func TestDisplayBannerColumns(t *testing.T) {
	rt, _, _ := testRuntime()
	rt.settings.settings[sBannerColumns] = "0x2136, 0x00F3"
	dc, _ := testDisplay(t, rt)
	assert.NilError(t, dc.clear())
	assert.NilError(t, dc.showBanner())

	frame := dc.frame()
	assert.Equal(t, frame[0], uint16(0x2136))
	assert.Equal(t, frame[1], uint16(0x00F3))
	assert.Equal(t, frame[2], uint16(0))
}

func TestDisplayShowTruncates(t *testing.T) {
	rt, _, _ := testRuntime()
	dc, _ := testDisplay(t, rt)

	assert.NilError(t, dc.show("ABCDEF"))
	ab, err := alphanum_backpack.Encode("ABCD", false)
	assert.NilError(t, err)
	assert.Equal(t, dc.frame(), ab)

	assert.NilError(t, dc.showMax("ABCD", 2))
	frame := dc.frame()
	assert.Equal(t, frame[2], uint16(0))
	assert.Equal(t, frame[3], uint16(0))
}

func TestDisplayInvalidColumn(t *testing.T) {
	rt, _, _ := testRuntime()
	dc, dev := testDisplay(t, rt)
	before := len(columnWrites(dev))

	err := dc.writeRaw(4, 0xFFFF)
	assert.Assert(t, errors.Is(err, errInvalidColumn))
	err = dc.writeRaw(-1, 0xFFFF)
	assert.Assert(t, errors.Is(err, errInvalidColumn))
	assert.Equal(t, len(columnWrites(dev)), before)

	assert.NilError(t, dc.writeRaw(3, 0x4000))
	assert.Equal(t, dc.frame()[3], uint16(0x4000))
}

func TestDisplayWriteFailure(t *testing.T) {
	rt, _, _ := testRuntime()
	dc, dev := testDisplay(t, rt)
	assert.NilError(t, dc.clear())

	dev.mu.Lock()
	dev.failAt = dev.nWrites + 3
	dev.mu.Unlock()

	err := dc.show("NPR")
	assert.Assert(t, errors.Is(err, errIO))
	// the first two columns made it out
	frame := dc.frame()
	assert.Assert(t, frame[0] != 0)
	assert.Assert(t, frame[1] != 0)
	assert.Equal(t, frame[2], uint16(0))
}

func TestDisplayUnknownCharacter(t *testing.T) {
	rt, _, _ := testRuntime()
	dc, dev := testDisplay(t, rt)
	before := len(columnWrites(dev))

	assert.Assert(t, dc.show("N~R") != nil)
	assert.Equal(t, len(columnWrites(dev)), before)
}

func TestDisplayMissing(t *testing.T) {
	rt, _, _ := testRuntime()
	bus := newSimBus()
	bus.noI2c = true
	_, err := openDisplayController(rt, bus)
	assert.Assert(t, errors.Is(err, errBusUnavailable))
}
