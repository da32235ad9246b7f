// Package device decodes the capability tokens Xiino puts in its request
// path and adapts responses to what the device can display.
package device

import (
	"log/slog"
	"strconv"
)

// Fallbacks used when Xiino sends something we can't parse.
const (
	DefaultScreenWidth    = 153
	DefaultColourDepth    = 16
	DefaultGrayscaleDepth = 4
)

//go:generate go tool golang.org/x/tools/cmd/stringer -type=ScreenMode -linecomment

type ScreenMode int

const (
	Grayscale ScreenMode = iota // Grayscale/Monochrome
	Colour                      // Colour
)

// Capabilities is what a Xiino client told us about its display. It is
// built once per request by Decode and never changed afterwards.
type Capabilities struct {
	ScreenWidth  uint32
	ScreenMode   ScreenMode
	ScreenDepth  uint32
	TextEncoding string
}

// HighDensity reports whether the device is wider than the original
// 153px Palm viewport.
func (c Capabilities) HighDensity() bool {
	return c.ScreenWidth > DefaultScreenWidth
}

func (c Capabilities) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("width", uint64(c.ScreenWidth)),
		slog.String("mode", c.ScreenMode.String()),
		slog.Uint64("depth", uint64(c.ScreenDepth)),
		slog.String("encoding", c.TextEncoding))
}

// Decode turns the colour depth, screen width and text encoding path
// segments into Capabilities. It never fails: anything malformed degrades
// to the documented fallback.
//
//	colourDepth:  "c16" (colour, 16) or "g4" (grayscale, 4)
//	screenWidth:  "w320"
//	textEncoding: "eUTF-8"
func Decode(colourDepth, screenWidth, textEncoding string) Capabilities {
	mode := Grayscale
	if head(colourDepth) == 'c' {
		mode = Colour
	}

	depth, ok := parseUint(tail(colourDepth))
	if !ok {
		depth = DefaultGrayscaleDepth
		if mode == Colour {
			depth = DefaultColourDepth
		}
	}

	width, ok := parseUint(tail(screenWidth))
	if !ok {
		width = DefaultScreenWidth
	}

	return Capabilities{
		ScreenWidth:  width,
		ScreenMode:   mode,
		ScreenDepth:  depth,
		TextEncoding: tail(textEncoding),
	}
}

func head(token string) byte {
	if token == "" {
		return 0
	}
	return token[0]
}

// tail drops the one byte type tag every token starts with.
func tail(token string) string {
	if len(token) < 2 {
		return ""
	}
	return token[1:]
}

func parseUint(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
