package main

import (
	"dscheirer.com/nprplayer/alphanum_backpack"
	"github.com/pkg/errors"
)

// displayController owns the backpack on the I2C bus. A failed write leaves
// the frame as far as it got, the next clear/show puts it back in sync
type displayController struct {
	rt  runtimeConfig
	dev i2cHandle
	ab  *alphanum_backpack.Alphanum
}

func openDisplayController(rt runtimeConfig, bus peripheralBus) (*displayController, error) {
	rt = rt.withLogger("Display")
	settings := rt.settings
	dev, err := bus.openI2c(settings.GetInt(sI2CBus), settings.GetByte(sI2CDev))
	if err != nil {
		return nil, err
	}
	ab, err := alphanum_backpack.Open(dev)
	if err != nil {
		dev.Close()
		return nil, errors.Wrapf(errIO, "display open: %v", err)
	}
	ab.DebugDump(settings.GetBool(sDebug))

	dc := &displayController{rt: rt, dev: dev, ab: ab}
	if err := dc.setBrightness(settings.GetByte(sBrightness)); err != nil {
		dc.rt.logger.Println(err.Error())
	}
	return dc, nil
}

func (dc *displayController) ioError(op string, err error) error {
	err = errors.Wrapf(errIO, "%s: %v", op, err)
	dc.rt.logger.Println(err.Error())
	return err
}

// start lights the display with a blank frame and the banner
func (dc *displayController) start() error {
	if err := dc.ab.Enable(true); err != nil {
		return dc.ioError("enable", err)
	}
	if err := dc.clear(); err != nil {
		return err
	}
	return dc.showBanner()
}

func (dc *displayController) showBanner() error {
	settings := dc.rt.settings
	cols, err := settings.GetColumns(sBannerColumns)
	if err != nil {
		dc.rt.logger.Println(err.Error())
	}
	if len(cols) == 0 {
		return dc.show(settings.GetString(sBanner))
	}
	for i, c := range cols {
		if err := dc.writeRaw(i, c); err != nil {
			return err
		}
	}
	return nil
}

func (dc *displayController) clear() error {
	if err := dc.ab.Clear(); err != nil {
		return dc.ioError("clear", err)
	}
	return nil
}

// show is left justified, columns past the text are written blank
func (dc *displayController) show(text string) error {
	return dc.showMax(text, alphanum_backpack.Digits)
}

// showMax shows at most maxLen cells of text
func (dc *displayController) showMax(text string, maxLen int) error {
	frame, err := alphanum_backpack.Encode(text, false)
	if err != nil {
		dc.rt.logger.Println(err.Error())
		return err
	}
	for i := range frame {
		if i >= maxLen {
			frame[i] = 0
		}
	}
	if err := dc.ab.WriteFrame(frame); err != nil {
		return dc.ioError("show", err)
	}
	return nil
}

func (dc *displayController) showRight(text string) error {
	if err := dc.ab.PrintRight(text); err != nil {
		return dc.ioError("show", err)
	}
	return nil
}

// writeRaw skips the glyph table
func (dc *displayController) writeRaw(column int, segments uint16) error {
	if column < 0 || column >= alphanum_backpack.Digits {
		return errors.Wrapf(errInvalidColumn, "column %d", column)
	}
	if err := dc.ab.WriteColumn(column, segments); err != nil {
		return dc.ioError("write column", err)
	}
	return nil
}

func (dc *displayController) setBlinkRate(r uint8) error {
	return dc.ab.SetBlinkRate(r)
}

func (dc *displayController) setBrightness(level uint8) error {
	return dc.ab.SetBrightness(level)
}

func (dc *displayController) frame() [alphanum_backpack.Digits]uint16 {
	return dc.ab.Frame()
}

func (dc *displayController) shutdown() {
	if err := dc.ab.Shutdown(); err != nil {
		dc.rt.logger.Println(err.Error())
	}
	dc.dev.Close()
}
