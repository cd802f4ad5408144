package main

import (
	"os"
	"sync"

	"github.com/bobertlo/go-mpg123/mpg123"
	"github.com/pkg/errors"
)

// mp3Decoder decodes an asset once and keeps the PCM, every open after
// that is a fresh cursor on the same clip
type mp3Decoder struct {
	mu     sync.Mutex
	clips  map[string]*pcmClip
	logger flogger
}

func newMP3Decoder() *mp3Decoder {
	return &mp3Decoder{clips: make(map[string]*pcmClip), logger: &ThreadLogger{name: "Decoder"}}
}

func (md *mp3Decoder) openAsset(path string) (audioStream, error) {
	md.mu.Lock()
	defer md.mu.Unlock()

	clip, ok := md.clips[path]
	if !ok {
		var err error
		clip, err = md.decode(path)
		if err != nil {
			return nil, errors.Wrapf(errDecodeUnavailable, "%s: %v", path, err)
		}
		md.clips[path] = clip
	}
	return newPCMStream(clip), nil
}

func (md *mp3Decoder) decode(fname string) (*pcmClip, error) {
	if _, err := os.Stat(fname); err != nil {
		return nil, err
	}

	decoder, err := mpg123.NewDecoder("")
	if err != nil {
		return nil, err
	}
	if err = decoder.Open(fname); err != nil {
		return nil, err
	}
	defer decoder.Close()

	// get audio format information
	rate, channels, _ := decoder.GetFormat()
	if rate <= 0 || channels <= 0 {
		return nil, errors.Errorf("no audio format (rate %d, channels %d)", rate, channels)
	}

	// make sure output format does not change
	decoder.FormatNone()
	decoder.Format(rate, channels, mpg123.ENC_SIGNED_16)

	var data []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := decoder.Read(buf)
		data = append(data, buf[:n]...)
		if err == mpg123.EOF {
			break
		}
		if err != nil {
			if len(data) == 0 {
				return nil, err
			}
			// keep what decoded, a damaged tail should not lose the whole asset
			md.logger.Printf("%s: stopped decoding at %d bytes: %v", fname, len(data), err)
			break
		}
	}
	if len(data) == 0 {
		return nil, errors.New("no audio data")
	}

	clip := &pcmClip{data: data, rate: int(rate), channels: channels}
	md.logger.Printf("decoded %s: %d Hz, %d channels, %v", fname, rate, channels, newPCMStream(clip).duration())
	return clip, nil
}
