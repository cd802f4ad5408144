package main

import (
	"github.com/pkg/errors"
)

// error kinds, wrapped with context where they are raised and
// checked with errors.Is by the callers
var (
	errBusUnavailable    = errors.New("bus unavailable")
	errPinNotFound       = errors.New("pin not found")
	errPinInUse          = errors.New("pin in use")
	errPinLost           = errors.New("pin lost")
	errDecodeUnavailable = errors.New("decode unavailable")
	errInvalidColumn     = errors.New("invalid column")
	errIO                = errors.New("i/o error")
)
