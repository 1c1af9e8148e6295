//go:build ws281x

package strip

import (
	"fmt"
	"log/slog"
	"sync"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// ws281x drives a WS2812 strip from the Pi's PWM/PCM peripheral.
// Needs root and libws2811 at build time.
type ws281x struct {
	dev    *ws2811.WS2811
	count  int
	logger *slog.Logger
	mu     sync.Mutex
}

func newWS281x(gpioPin, ledCount int, logger *slog.Logger) (Strip, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = gpioPin
	opt.Channels[0].LedCount = ledCount
	// Brightness is applied by the palette.
	opt.Channels[0].Brightness = 255

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ws281x device: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize ws281x on GPIO %d: %w", gpioPin, err)
	}

	logger.Info("ws281x strip initialized", "gpio", gpioPin, "leds", ledCount)
	return &ws281x{dev: dev, count: ledCount, logger: logger}, nil
}

// Render copies the frame into the channel buffer and pushes it out.
func (w *ws281x) Render(pixels []RGB) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	leds := w.dev.Leds(0)
	for i := range leds {
		var p RGB
		if i < len(pixels) {
			p = pixels[i]
		}
		leds[i] = uint32(p.R)<<16 | uint32(p.G)<<8 | uint32(p.B)
	}
	if err := w.dev.Render(); err != nil {
		return fmt.Errorf("failed to render ws281x frame: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the peripheral.
func (w *ws281x) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	leds := w.dev.Leds(0)
	for i := range leds {
		leds[i] = 0
	}
	_ = w.dev.Render()
	w.dev.Fini()
	return nil
}
