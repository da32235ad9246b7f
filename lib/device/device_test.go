package device

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	for _, tt := range []struct {
		name                   string
		depth, width, encoding string
		want                   Capabilities
	}{
		{
			name:     "colour",
			depth:    "c16",
			width:    "w320",
			encoding: "eUTF-8",
			want:     Capabilities{ScreenWidth: 320, ScreenMode: Colour, ScreenDepth: 16, TextEncoding: "UTF-8"},
		},
		{
			name:     "grayscale",
			depth:    "g2",
			width:    "w160",
			encoding: "eISO-8859-1",
			want:     Capabilities{ScreenWidth: 160, ScreenMode: Grayscale, ScreenDepth: 2, TextEncoding: "ISO-8859-1"},
		},
		{
			name:     "colour-unparsable-depth",
			depth:    "cX",
			width:    "w153",
			encoding: "eUTF-8",
			want:     Capabilities{ScreenWidth: 153, ScreenMode: Colour, ScreenDepth: DefaultColourDepth, TextEncoding: "UTF-8"},
		},
		{
			name:     "grayscale-unparsable-depth",
			depth:    "gX",
			width:    "w153",
			encoding: "eUTF-8",
			want:     Capabilities{ScreenWidth: 153, ScreenMode: Grayscale, ScreenDepth: DefaultGrayscaleDepth, TextEncoding: "UTF-8"},
		},
		{
			name:     "unknown-mode",
			depth:    "zX",
			width:    "w153",
			encoding: "eUTF-8",
			want:     Capabilities{ScreenWidth: 153, ScreenMode: Grayscale, ScreenDepth: DefaultGrayscaleDepth, TextEncoding: "UTF-8"},
		},
		{
			name:     "unknown-mode-with-depth",
			depth:    "z8",
			width:    "w153",
			encoding: "eUTF-8",
			want:     Capabilities{ScreenWidth: 153, ScreenMode: Grayscale, ScreenDepth: 8, TextEncoding: "UTF-8"},
		},
		{
			name:     "unparsable-width",
			depth:    "c16",
			width:    "wabc",
			encoding: "eUTF-8",
			want:     Capabilities{ScreenWidth: DefaultScreenWidth, ScreenMode: Colour, ScreenDepth: 16, TextEncoding: "UTF-8"},
		},
		{
			name:     "negative-width",
			depth:    "c16",
			width:    "w-320",
			encoding: "eUTF-8",
			want:     Capabilities{ScreenWidth: DefaultScreenWidth, ScreenMode: Colour, ScreenDepth: 16, TextEncoding: "UTF-8"},
		},
		{
			name:     "empty-tokens",
			depth:    "",
			width:    "",
			encoding: "",
			want:     Capabilities{ScreenWidth: DefaultScreenWidth, ScreenMode: Grayscale, ScreenDepth: DefaultGrayscaleDepth, TextEncoding: ""},
		},
		{
			name:     "single-byte-tokens",
			depth:    "c",
			width:    "w",
			encoding: "e",
			want:     Capabilities{ScreenWidth: DefaultScreenWidth, ScreenMode: Colour, ScreenDepth: DefaultColourDepth, TextEncoding: ""},
		},
		{
			name:     "multibyte-first-rune",
			depth:    "ç16",
			width:    "w200",
			encoding: "éUTF-8",
			want:     Capabilities{ScreenWidth: 200, ScreenMode: Grayscale, ScreenDepth: DefaultGrayscaleDepth, TextEncoding: "\xa9UTF-8"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.depth, tt.width, tt.encoding)
			if got != tt.want {
				t.Errorf("Decode(%q, %q, %q) = %+v, want %+v", tt.depth, tt.width, tt.encoding, got, tt.want)
			}
		})
	}
}

func TestScreenModeString(t *testing.T) {
	if got := Colour.String(); got != "Colour" {
		t.Errorf("Colour.String() = %q", got)
	}

	if got := Grayscale.String(); got != "Grayscale/Monochrome" {
		t.Errorf("Grayscale.String() = %q", got)
	}
}

func TestHighDensity(t *testing.T) {
	if Decode("c16", "w153", "eUTF-8").HighDensity() {
		t.Error("153px device reported as high density")
	}

	if !Decode("c16", "w320", "eUTF-8").HighDensity() {
		t.Error("320px device not reported as high density")
	}
}

func TestEncode(t *testing.T) {
	for _, tt := range []struct {
		name     string
		encoding string
		page     string
		want     string
		err      error
	}{
		{
			name:     "utf-8-passthrough",
			encoding: "eUTF-8",
			page:     "<p>café</p>",
			want:     "<p>café</p>",
		},
		{
			name:     "empty-means-utf-8",
			encoding: "e",
			page:     "<p>café</p>",
			want:     "<p>café</p>",
		},
		{
			name:     "latin-1",
			encoding: "eISO-8859-1",
			page:     "<p>café</p>",
			want:     "<p>caf\xe9</p>",
		},
		{
			name:     "shift-jis",
			encoding: "eShift_JIS",
			page:     "ok",
			want:     "ok",
		},
		{
			name:     "unknown",
			encoding: "eKLINGON-1",
			page:     "<p>café</p>",
			want:     "<p>café</p>",
			err:      ErrUnknownEncoding,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			caps := Decode("c16", "w153", tt.encoding)

			got, err := caps.Encode(tt.page)
			if !errors.Is(err, tt.err) {
				t.Errorf("wanted error %v, got: %v", tt.err, err)
			}

			if string(got) != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.page, got, tt.want)
			}
		})
	}
}

func TestCharset(t *testing.T) {
	for _, tt := range []struct {
		token string
		want  string
	}{
		{"eISO-8859-1", "ISO-8859-1"},
		{"eShift_JIS", "Shift_JIS"},
		{"eUTF-8", "utf-8"},
		{"e", "utf-8"},
		{"eNOT-A-CHARSET", "utf-8"},
	} {
		t.Run(tt.token, func(t *testing.T) {
			if got := Decode("c16", "w153", tt.token).Charset(); got != tt.want {
				t.Errorf("Charset() = %q, want %q", got, tt.want)
			}
		})
	}
}
