//go:build noaudio
// +build noaudio

package main

import (
	"github.com/pkg/errors"
)

func init() {
	features = append(features, "noaudio")
}

func newHardwareSink(kind string) (audioSink, error) {
	return nil, errors.Wrapf(errIO, "built without audio, '%s' is not available", kind)
}
