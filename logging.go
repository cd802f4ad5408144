package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

type flogger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// ThreadLogger tags every line with the worker that wrote it
type ThreadLogger struct {
	name string
}

func (tl *ThreadLogger) Printf(format string, v ...interface{}) {
	log.Printf(tl.name+": "+format, v...)
}

func (tl *ThreadLogger) Println(v ...interface{}) {
	log.Println(tl.name + ": " + fmt.Sprint(v...))
}

// setupLogging sends the standard logger to stderr and, when a log file is
// configured, to a rotating file as well
func setupLogging(settings configSettings, quiet bool) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var out []io.Writer
	if !quiet {
		out = append(out, os.Stderr)
	}

	var lj *lumberjack.Logger
	if fname := settings.GetString(sLogFile); fname != "" {
		lj = &lumberjack.Logger{
			Filename:   fname,
			MaxSize:    settings.GetInt(sLogMaxSize),
			MaxBackups: settings.GetInt(sLogMaxBackups),
		}
		out = append(out, lj)
	}

	if len(out) == 0 {
		log.SetOutput(io.Discard)
		return nopCloser{}, nil
	}
	log.SetOutput(io.MultiWriter(out...))
	if lj == nil {
		return nopCloser{}, nil
	}
	return lj, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
