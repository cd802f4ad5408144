package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
)

// nprplayer -config={config file}

var features = []string{}

func main() {
	// read config information
	settings := initSettings(parseFlags())

	logFile, err := setupLogging(settings, false)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer logFile.Close()

	rt := initRuntime(settings, clockwork.NewRealClock())
	rt.logger.Printf("features: %s", strings.Join(features, ", "))
	settings.Dump(rt.logger)

	a := newApp(rt)
	if err := a.start(); err != nil {
		rt.logger.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigs:
		rt.logger.Printf("got %v", s)
	case <-rt.comms.quit:
	}

	a.shutdown()
}
