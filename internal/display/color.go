package display

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/smazurov/liftlights/internal/lifts"
	"github.com/smazurov/liftlights/internal/strip"
)

// Color is the closed set of indicator states an LED can show.
type Color uint8

// Indicator colours. Black doubles as off and unknown.
const (
	Black Color = iota
	Green
	Red
	Yellow
)

var colorNames = [...]string{
	Black:  "black",
	Green:  "green",
	Red:    "red",
	Yellow: "yellow",
}

// String returns the lowercase colour name.
func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// MarshalText encodes the colour by name for JSON responses.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ColorFor maps a reported status to its indicator colour. Unrecognized and
// absent statuses are Black; the function is total over all inputs.
func ColorFor(r lifts.Report) Color {
	if !r.Present {
		return Black
	}
	switch r.Status {
	case lifts.StatusOpen:
		return Green
	case lifts.StatusClosed:
		return Red
	case lifts.StatusHold, lifts.StatusScheduled:
		return Yellow
	default:
		return Black
	}
}

// Palette converts indicator colours to strip pixels at a fixed brightness.
type Palette struct {
	colors     [len(colorNames)]colorful.Color
	brightness float64
}

// Full-intensity hues, matching the usual WS2812 named colours.
var defaultHex = [...]string{
	Black:  "#000000",
	Green:  "#00FF00",
	Red:    "#FF0000",
	Yellow: "#FFFF00",
}

// NewPalette builds the palette with brightness in 0..255, the range LED
// strip libraries use for their global brightness.
func NewPalette(brightness int) Palette {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 255 {
		brightness = 255
	}

	p := Palette{brightness: float64(brightness) / 255}
	for i, hex := range defaultHex {
		c, _ := colorful.Hex(hex)
		p.colors[i] = c
	}
	return p
}

// RGB returns the scaled pixel for c.
func (p Palette) RGB(c Color) strip.RGB {
	if int(c) >= len(p.colors) {
		return strip.RGB{}
	}
	base := p.colors[c]
	scaled := colorful.Color{
		R: base.R * p.brightness,
		G: base.G * p.brightness,
		B: base.B * p.brightness,
	}
	r, g, b := scaled.Clamped().RGB255()
	return strip.RGB{R: r, G: g, B: b}
}
