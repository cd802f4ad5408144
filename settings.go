package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
)

// setting names
const (
	sGPIOSimulated   = "gpioSimulated"
	sI2CSimulated    = "i2cSimulated"
	sI2CBus          = "i2cBus"
	sI2CDev          = "i2cDevice"
	sButtonSimulated = "buttonSimulated"
	sPlayPauseBtn    = "buttonPlayPause"
	sRewindBtn       = "buttonRewind"
	sFastFwdBtn      = "buttonFastForward"
	sLEDPin          = "ledPin"
	sDebounce        = "debounce"
	sPollInterval    = "pollInterval"
	sSeekAmount      = "seekAmount"
	sAssetPath       = "assetPath"
	sMP3File         = "mp3File"
	sAudioOutput     = "audioOutput"
	sDisplayMode     = "displayMode"
	sBanner          = "banner"
	sBannerColumns   = "bannerColumns"
	sBrightness      = "brightness"
	sDebug           = "debugDump"
	sLogFile         = "logFile"
	sLogMaxSize      = "logMaxSize"
	sLogMaxBackups   = "logMaxBackups"
)

// buttonMap binds a GPIO line to a button, key is for keyboard simulation
type buttonMap struct {
	pin    string
	pullup bool
	key    string
}

// keep settings generic, type-convert on the fly
type configSettings struct {
	settings map[string]interface{}
}

func defaultSettings() configSettings {
	s := make(map[string]interface{})

	// setting the type here makes the conversion "automatic" later
	on := true
	if runtime.GOARCH == "arm" {
		on = false
	}
	s[sGPIOSimulated] = on
	s[sI2CSimulated] = on
	s[sI2CBus] = 1
	s[sI2CDev] = byte(0x70)
	s[sButtonSimulated] = false
	// rainbow hat A, B, C
	s[sPlayPauseBtn] = buttonMap{pin: "BCM21", pullup: true, key: "a"}
	s[sRewindBtn] = buttonMap{pin: "BCM20", pullup: true, key: "b"}
	s[sFastFwdBtn] = buttonMap{pin: "BCM16", pullup: true, key: "c"}
	s[sLEDPin] = "BCM6"
	s[sDebounce], _ = time.ParseDuration("30ms")
	s[sPollInterval], _ = time.ParseDuration("5ms")
	s[sSeekAmount], _ = time.ParseDuration("5s")
	s[sAssetPath] = "/etc/default/nprplayer"
	s[sMP3File] = "baby_talk.mp3"
	s[sAudioOutput] = "portaudio"
	s[sDisplayMode] = "banner"
	s[sBanner] = "NPR"
	s[sBannerColumns] = ""
	s[sBrightness] = byte(15)
	s[sDebug] = false
	s[sLogFile] = "/var/log/nprplayer.log"
	s[sLogMaxSize] = 10
	s[sLogMaxBackups] = 3

	return configSettings{settings: s}
}

func buttonMapFromJSON(data []byte, key string, def buttonMap) (buttonMap, error) {
	bm := def
	if v, err := jsonparser.GetString(data, key, "pin"); err == nil {
		bm.pin = v
	}
	if v, err := jsonparser.GetString(data, key, "key"); err == nil {
		bm.key = v
	}
	if _, _, _, err := jsonparser.Get(data, key, "pullup"); err == nil {
		v, err := jsonparser.GetBoolean(data, key, "pullup")
		if err != nil {
			return bm, errors.Wrapf(err, "%s.pullup", key)
		}
		bm.pullup = v
	}
	return bm, nil
}

func (s *configSettings) settingsFromJSON(data []byte) error {
	tmp := defaultSettings()
	for k, initVal := range tmp.settings {
		// ignore missing fields
		_, _, _, err := jsonparser.Get(data, k)
		if err != nil {
			continue
		}

		switch initVal.(type) {
		case uint8:
			var val int64
			val, err = jsonparser.GetInt(data, k)
			if err != nil {
				// try strconv ParseInt, "0x70" is nicer than 112
				valString, err2 := jsonparser.GetString(data, k)
				if err2 == nil {
					val, err = strconv.ParseInt(valString, 0, 64)
				}
			}
			if err == nil && (val < 0 || val > 255) {
				err = fmt.Errorf("out of range: %d", val)
			}
			if err == nil {
				s.settings[k] = byte(val)
			}
		case int:
			var val int64
			val, err = jsonparser.GetInt(data, k)
			if err == nil {
				s.settings[k] = int(val)
			}
		case bool:
			var bVal bool
			bVal, err = jsonparser.GetBoolean(data, k)
			if err != nil {
				// try "true" and "false"
				str, _ := jsonparser.GetString(data, k)
				switch strings.ToLower(str) {
				case "true":
					bVal, err = true, nil
				case "false":
					bVal, err = false, nil
				}
			}
			if err == nil {
				s.settings[k] = bVal
			}
		case time.Duration:
			var dur string
			dur, err = jsonparser.GetString(data, k)
			if err == nil {
				var dur2 time.Duration
				dur2, err = time.ParseDuration(dur)
				if err == nil {
					s.settings[k] = dur2
				}
			}
		case string:
			s.settings[k], err = jsonparser.GetString(data, k)
		case buttonMap:
			s.settings[k], err = buttonMapFromJSON(data, k, initVal.(buttonMap))
		default:
			err = fmt.Errorf("Bad type: %T", initVal)
		}
		if err != nil {
			return errors.Wrapf(err, "setting %s", k)
		}
	}
	return nil
}

func loadSettings(configFile string) (configSettings, error) {
	s := defaultSettings()
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return s, errors.Wrapf(err, "could not load conf file '%s'", configFile)
	}
	if err := s.settingsFromJSON(data); err != nil {
		return s, err
	}
	return s, nil
}

func initSettings(configFile string) configSettings {
	log.Printf("Reading configuration from '%s'", configFile)
	s, err := loadSettings(configFile)
	if err != nil {
		log.Fatal(err.Error())
	}
	return s
}

func parseFlags() string {
	configFile := flag.String("config", "/etc/default/nprplayer/nprplayer.conf", "config file path")
	flag.Parse()
	return *configFile
}

func (s *configSettings) GetString(key string) string {
	switch v := s.settings[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func (s *configSettings) GetBool(key string) bool {
	switch v := s.settings[key].(type) {
	case bool:
		return v
	default:
		return false
	}
}

func (s *configSettings) GetDuration(key string) time.Duration {
	switch v := s.settings[key].(type) {
	case time.Duration:
		return v
	default:
		return -1
	}
}

func (s *configSettings) GetByte(key string) byte {
	switch v := s.settings[key].(type) {
	case byte:
		return v
	case int: // cast to byte
		return byte(v)
	default:
		return 0
	}
}

func (s *configSettings) GetInt(key string) int {
	switch v := s.settings[key].(type) {
	case int:
		return v
	default:
		return 0
	}
}

func (s *configSettings) GetButtonMap(key string) buttonMap {
	switch v := s.settings[key].(type) {
	case buttonMap:
		return v
	default:
		return buttonMap{}
	}
}

// GetColumns reads a comma separated list of raw segment masks ("0x37,243")
func (s *configSettings) GetColumns(key string) ([]uint16, error) {
	str := strings.TrimSpace(s.GetString(key))
	if str == "" {
		return nil, nil
	}
	parts := strings.Split(str, ",")
	ret := make([]uint16, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 0, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "setting %s", key)
		}
		ret = append(ret, uint16(v))
	}
	return ret, nil
}

func (s *configSettings) Dump(logger flogger) {
	for k, v := range s.settings {
		logger.Printf("%s : %T: %v", k, v, v)
	}
}
