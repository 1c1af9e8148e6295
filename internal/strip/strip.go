// Package strip pushes whole frames to addressable LED hardware.
//
// Backends:
//
//	opc     Open Pixel Control over TCP (fadecandy server, gl_server, ...)
//	artnet  ArtDmx over UDP, universe 0, RGB packed from channel 1
//	ws281x  direct GPIO drive on a Raspberry Pi (build tag ws281x)
//	log     no hardware, frames are logged at debug level
package strip

import (
	"fmt"
	"log/slog"
	"strings"
)

// RGB is one pixel as sent to the hardware.
type RGB struct {
	R, G, B uint8
}

// Strip renders a complete frame. Render is the only hardware I/O point.
type Strip interface {
	Render(pixels []RGB) error
	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend  string // opc, artnet, ws281x, log
	Address  string // host:port for opc and artnet
	Channel  int    // OPC channel or Art-Net universe
	LEDCount int
	GPIOPin  int // ws281x only
}

// Wire limits: an OPC message carries a 16-bit byte length and an 8-bit
// channel; Art-Net universes are 15-bit.
const (
	maxOPCPixels      = 0xffff / 3
	maxOPCChannel     = 0xff
	maxArtNetUniverse = 0x7fff
)

// New opens the configured backend.
func New(cfg Config, logger *slog.Logger) (Strip, error) {
	if cfg.LEDCount <= 0 {
		return nil, fmt.Errorf("LED count must be positive, got %d", cfg.LEDCount)
	}

	switch strings.ToLower(cfg.Backend) {
	case "opc":
		if cfg.LEDCount > maxOPCPixels {
			return nil, fmt.Errorf("OPC carries at most %d LEDs, got %d", maxOPCPixels, cfg.LEDCount)
		}
		if cfg.Channel < 0 || cfg.Channel > maxOPCChannel {
			return nil, fmt.Errorf("OPC channel must be 0-%d, got %d", maxOPCChannel, cfg.Channel)
		}
		return newOPC(cfg.Address, uint8(cfg.Channel), logger), nil
	case "artnet":
		last := cfg.Channel + (cfg.LEDCount*3-1)/artNetUniverseSize
		if cfg.Channel < 0 || last > maxArtNetUniverse {
			return nil, fmt.Errorf("universes %d-%d outside the Art-Net range 0-%d", cfg.Channel, last, maxArtNetUniverse)
		}
		return newArtNet(cfg.Address, cfg.Channel, logger)
	case "ws281x":
		return newWS281x(cfg.GPIOPin, cfg.LEDCount, logger)
	case "log", "", "none":
		return newLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown strip backend %q", cfg.Backend)
	}
}

// flatten packs pixels as consecutive R,G,B bytes.
func flatten(pixels []RGB) []byte {
	data := make([]byte, 0, len(pixels)*3)
	for _, p := range pixels {
		data = append(data, p.R, p.G, p.B)
	}
	return data
}
