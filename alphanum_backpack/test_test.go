package alphanum_backpack

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

type recordBus struct {
	writes  [][]byte
	failAt  int // fail the Nth Write call (1 based), 0 never
	nWrites int
}

func (r *recordBus) Write(b []byte) (int, error) {
	r.nWrites++
	if r.failAt > 0 && r.nWrites == r.failAt {
		return 0, errors.New("nack")
	}
	r.writes = append(r.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (r *recordBus) WriteByte(c byte) error {
	r.writes = append(r.writes, []byte{c})
	return nil
}

func setup(t *testing.T) (*Alphanum, *recordBus) {
	bus := &recordBus{}
	display, err := Open(bus)
	assert.NilError(t, err)
	bus.writes = nil
	return display, bus
}

func TestOpenSequence(t *testing.T) {
	bus := &recordBus{}
	_, err := Open(bus)
	assert.NilError(t, err)
	assert.DeepEqual(t, bus.writes, [][]byte{{i2cOSC_ON}, {i2cBRIGHTNESS_CMD | BRIGHTNESS_MAX}})
}

func TestPrintLeftJustified(t *testing.T) {
	display, bus := setup(t)

	assert.NilError(t, display.Print("NPR"))
	// one write per column, left to right, trailing column blank
	assert.Equal(t, len(bus.writes), Digits)
	assert.DeepEqual(t, bus.writes[0], []byte{0, 0x36, 0x21})
	assert.DeepEqual(t, bus.writes[1], []byte{2, 0xF3, 0x00})
	assert.DeepEqual(t, bus.writes[2], []byte{4, 0xF3, 0x20})
	assert.DeepEqual(t, bus.writes[3], []byte{6, 0x00, 0x00})

	frame := display.Frame()
	nonZero := 0
	for _, m := range frame {
		if m != 0 {
			nonZero++
		}
	}
	assert.Equal(t, nonZero, 3)
	assert.Equal(t, frame[3], uint16(0))
}

func TestPrintTruncates(t *testing.T) {
	display, _ := setup(t)
	assert.NilError(t, display.Print("ABCDEF"))
	a, _ := Mask('A', false)
	d, _ := Mask('D', false)
	assert.Equal(t, display.Frame()[0], a)
	assert.Equal(t, display.Frame()[3], d)
}

func TestPrintRight(t *testing.T) {
	display, _ := setup(t)
	assert.NilError(t, display.PrintRight("1.25"))
	one, _ := Mask('1', true)
	five, _ := Mask('5', false)
	frame := display.Frame()
	assert.Equal(t, frame[0], uint16(0))
	assert.Equal(t, frame[1], one)
	assert.Equal(t, frame[3], five)
}

func TestDecimals(t *testing.T) {
	frame, err := Encode("..A.", false)
	assert.NilError(t, err)
	a, _ := Mask('A', true)
	assert.Equal(t, frame[0], uint16(DECIMAL_MASK))
	assert.Equal(t, frame[1], uint16(DECIMAL_MASK))
	assert.Equal(t, frame[2], a)
	assert.Equal(t, frame[3], uint16(0))
}

func TestLowerCaseFallback(t *testing.T) {
	lower, err := Mask('n', false)
	assert.NilError(t, err)
	upper, _ := Mask('N', false)
	assert.Equal(t, lower, upper)
}

func TestBadCharacter(t *testing.T) {
	display, bus := setup(t)
	err := display.Print("A~")
	assert.ErrorContains(t, err, "Bad value")
	// nothing goes out when the text can't be encoded
	assert.Equal(t, len(bus.writes), 0)
}

func TestWriteColumnBounds(t *testing.T) {
	display, bus := setup(t)
	assert.Equal(t, display.WriteColumn(-1, 1), ErrInvalidColumn)
	assert.Equal(t, display.WriteColumn(Digits, 1), ErrInvalidColumn)
	assert.Equal(t, len(bus.writes), 0)
	assert.NilError(t, display.WriteColumn(2, 0xBEEF))
	assert.DeepEqual(t, bus.writes[0], []byte{4, 0xEF, 0xBE})
}

func TestPartialFrameOnFailure(t *testing.T) {
	display, bus := setup(t)
	assert.NilError(t, display.Print("8888"))
	bus.nWrites = 0
	bus.failAt = 3

	err := display.Print("AAAA")
	assert.ErrorContains(t, err, "nack")
	a, _ := Mask('A', false)
	eight, _ := Mask('8', false)
	// first two columns made it, the rest keep the old frame
	assert.DeepEqual(t, display.Frame(), [Digits]uint16{a, a, eight, eight})
}

func TestBlinkAndBrightness(t *testing.T) {
	display, bus := setup(t)
	assert.ErrorContains(t, display.SetBrightness(16), "Bad brightness")
	assert.ErrorContains(t, display.SetBlinkRate(4), "Bad blink")
	assert.NilError(t, display.SetBlinkRate(BLINK_1HZ))
	assert.DeepEqual(t, bus.writes, [][]byte{{i2cDISPLAY_ON | BLINK_1HZ<<1}})
	assert.NilError(t, display.Shutdown())
	assert.DeepEqual(t, bus.writes[1:], [][]byte{{i2cDISPLAY_OFF}, {i2cOSC_OFF}})
}

func TestDump(t *testing.T) {
	eight, _ := Mask('8', true)
	out := Dump([Digits]uint16{eight, 0, 0, 0})
	assert.Assert(t, len(out) > 0)
	assert.Equal(t, out[:7], "\n ---  ")
}
