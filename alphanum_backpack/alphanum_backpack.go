// Package alphanum_backpack drives a 4 digit, 14 segment HT16K33 backpack
// one column (digit) at a time.
package alphanum_backpack

import (
	"errors"
	"fmt"
	"io"
	"log"
)

// Bus is the I2C write surface the backpack needs
type Bus interface {
	io.Writer
	io.ByteWriter
}

// oscillator on/off
const i2cOSC_ON = 0x21
const i2cOSC_OFF = 0x20

// display on/off and 2 "blink" bits in position 2+1
const i2cDISPLAY_ON = 0x81
const i2cDISPLAY_OFF = 0x80

// 0x0 -> 0xF brightness levels
const i2cBRIGHTNESS_CMD = 0xE0
const BRIGHTNESS_MAX = 15

// export blink rates
const BLINK_OFF = 0
const BLINK_2HZ = 1
const BLINK_1HZ = 2
const BLINK_HALFHZ = 3

// Digits is the physical column count
const Digits = 4

// segment bit positions
const (
	SEG_A = iota // top
	SEG_B        // top right
	SEG_C        // bottom right
	SEG_D        // bottom
	SEG_E        // bottom left
	SEG_F        // top left
	SEG_G1       // middle left
	SEG_G2       // middle right
	SEG_H        // diagonal top left
	SEG_J        // top center
	SEG_K        // diagonal top right
	SEG_L        // diagonal bottom left
	SEG_M        // bottom center
	SEG_N        // diagonal bottom right
	SEG_DP       // decimal point
)

const DECIMAL_MASK = 1 << SEG_DP

var ErrInvalidColumn = errors.New("invalid column")

// translate characters to bitmasks, lower case falls back to upper case
var glyphs = map[byte]uint16{
	' ':  0x0000,
	'!':  0x0006,
	'"':  0x0220,
	'#':  0x12CE,
	'$':  0x12ED,
	'%':  0x0C24,
	'&':  0x235D,
	'\'': 0x0400,
	'(':  0x2400,
	')':  0x0900,
	'*':  0x3FC0,
	'+':  0x12C0,
	',':  0x0800,
	'-':  0x00C0,
	'/':  0x0C00,
	'0':  0x0C3F,
	'1':  0x0006,
	'2':  0x00DB,
	'3':  0x008F,
	'4':  0x00E6,
	'5':  0x2069,
	'6':  0x00FD,
	'7':  0x0007,
	'8':  0x00FF,
	'9':  0x00EF,
	':':  0x1200,
	'<':  0x2400,
	'=':  0x00C8,
	'>':  0x0900,
	'?':  0x1083,
	'@':  0x02BB,
	'A':  0x00F7,
	'B':  0x128F,
	'C':  0x0039,
	'D':  0x120F,
	'E':  0x00F9,
	'F':  0x0071,
	'G':  0x00BD,
	'H':  0x00F6,
	'I':  0x1200,
	'J':  0x001E,
	'K':  0x2470,
	'L':  0x0038,
	'M':  0x0536,
	'N':  0x2136,
	'O':  0x003F,
	'P':  0x00F3,
	'Q':  0x203F,
	'R':  0x20F3,
	'S':  0x00ED,
	'T':  0x1201,
	'U':  0x003E,
	'V':  0x0C30,
	'W':  0x2836,
	'X':  0x2D00,
	'Y':  0x1500,
	'Z':  0x0C09,
	'[':  0x0039,
	'\\': 0x2100,
	']':  0x000F,
	'^':  0x0C03,
	'_':  0x0008,
	'|':  0x1200,
}

// Alphanum keeps the last frame that made it to the device
type Alphanum struct {
	dev   Bus
	frame [Digits]uint16
	blink byte
	dump  bool
}

// Open turns on the oscillator and sets full brightness, the display
// stays dark until Enable(true)
func Open(dev Bus) (*Alphanum, error) {
	a := &Alphanum{dev: dev, blink: BLINK_OFF}
	if err := a.dev.WriteByte(i2cOSC_ON); err != nil {
		return nil, err
	}
	if err := a.SetBrightness(BRIGHTNESS_MAX); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Alphanum) DebugDump(on bool) {
	a.dump = on
}

// Enable switches the display on (with the current blink rate) or off
func (a *Alphanum) Enable(on bool) error {
	// blink rate is bits 2 and 1 of the display command
	var val byte = i2cDISPLAY_ON | (a.blink << 1)
	if !on {
		val = i2cDISPLAY_OFF
	}
	return a.dev.WriteByte(val)
}

func (a *Alphanum) SetBrightness(level uint8) error {
	if level > BRIGHTNESS_MAX {
		return fmt.Errorf("Bad brightness level: %d", level)
	}
	return a.dev.WriteByte(i2cBRIGHTNESS_CMD | level)
}

func (a *Alphanum) SetBlinkRate(rate uint8) error {
	if rate > BLINK_HALFHZ {
		return fmt.Errorf("Bad blink rate: %d", rate)
	}
	a.blink = rate
	// one assumes you want the display on now?
	return a.Enable(true)
}

// Shutdown blanks the display and stops the oscillator
func (a *Alphanum) Shutdown() error {
	if err := a.Enable(false); err != nil {
		return err
	}
	return a.dev.WriteByte(i2cOSC_OFF)
}

// Frame returns the columns as last written to the device
func (a *Alphanum) Frame() [Digits]uint16 {
	return a.frame
}

// WriteColumn writes one digit: the RAM address (2 bytes per digit) then the mask
// low byte first
func (a *Alphanum) WriteColumn(column int, mask uint16) error {
	if column < 0 || column >= Digits {
		return ErrInvalidColumn
	}
	buf := []byte{byte(column * 2), byte(mask & 0xff), byte(mask >> 8)}
	if _, err := a.dev.Write(buf); err != nil {
		return err
	}
	a.frame[column] = mask
	return nil
}

// WriteFrame writes the columns left to right and stops at the first failure
func (a *Alphanum) WriteFrame(frame [Digits]uint16) error {
	for i := 0; i < Digits; i++ {
		if err := a.WriteColumn(i, frame[i]); err != nil {
			return err
		}
	}
	if a.dump {
		log.Println(Dump(a.frame))
	}
	return nil
}

// Clear writes zero to every column
func (a *Alphanum) Clear() error {
	return a.WriteFrame([Digits]uint16{})
}

// Print is left justified: it truncates to the digit count and blanks the rest
func (a *Alphanum) Print(msg string) error {
	frame, err := Encode(msg, false)
	if err != nil {
		return err
	}
	return a.WriteFrame(frame)
}

// PrintRight is right justified, blank padded on the left
func (a *Alphanum) PrintRight(msg string) error {
	frame, err := Encode(msg, true)
	if err != nil {
		return err
	}
	return a.WriteFrame(frame)
}

func altCase(char uint8) uint8 {
	if char >= 'A' && char <= 'Z' {
		return char + 'a' - 'A'
	} else if char >= 'a' && char <= 'z' {
		return char + 'A' - 'a'
	}
	return char
}

// Mask is the glyph for one character
func Mask(char uint8, decimalOn bool) (uint16, error) {
	val, ok := glyphs[char]
	if !ok {
		val, ok = glyphs[altCase(char)]
		if !ok {
			return 0, fmt.Errorf("Bad value: %q", string(char))
		}
	}
	if decimalOn {
		val |= DECIMAL_MASK
	}
	return val, nil
}

// split a message in display cells, a '.' rides on the cell before it.
// a leading '.' or a second '.' in a row gets a blank cell of its own
func cells(msg string) ([]uint16, error) {
	ret := make([]uint16, 0, len(msg))
	for i := 0; i < len(msg); i++ {
		target := msg[i]
		dotOn := false
		if target == '.' {
			target = ' '
			dotOn = true
		} else if i+1 < len(msg) && msg[i+1] == '.' {
			dotOn = true
			i++
		}
		mask, err := Mask(target, dotOn)
		if err != nil {
			return nil, err
		}
		ret = append(ret, mask)
	}
	return ret, nil
}

// Encode maps a message to a frame, truncating what does not fit
func Encode(msg string, right bool) ([Digits]uint16, error) {
	var frame [Digits]uint16
	c, err := cells(msg)
	if err != nil {
		return frame, err
	}
	if len(c) > Digits {
		if right {
			c = c[len(c)-Digits:]
		} else {
			c = c[:Digits]
		}
	}
	offset := 0
	if right {
		offset = Digits - len(c)
	}
	copy(frame[offset:], c)
	return frame, nil
}

func on(mask uint16, seg uint, s string) string {
	if mask&(1<<seg) != 0 {
		return s
	}
	return " "
}

// Dump renders a frame as ASCII art, 5 rows per digit
func Dump(frame [Digits]uint16) string {
	rows := make([]string, 5)
	for _, m := range frame {
		top := on(m, SEG_A, "-")
		bot := on(m, SEG_D, "-")
		rows[0] += " " + top + top + top + "  "
		rows[1] += on(m, SEG_F, "|") + on(m, SEG_H, "\\") + on(m, SEG_J, "|") + on(m, SEG_K, "/") + on(m, SEG_B, "|") + " "
		rows[2] += " " + on(m, SEG_G1, "-") + " " + on(m, SEG_G2, "-") + "  "
		rows[3] += on(m, SEG_E, "|") + on(m, SEG_L, "/") + on(m, SEG_M, "|") + on(m, SEG_N, "\\") + on(m, SEG_C, "|") + " "
		rows[4] += " " + bot + bot + bot + on(m, SEG_DP, ".") + " "
	}
	line := "\n"
	for _, r := range rows {
		line += r + "\n"
	}
	return line
}
