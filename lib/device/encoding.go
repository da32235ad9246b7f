package device

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var ErrUnknownEncoding = errors.New("device: unknown text encoding")

// Encoding looks up the text encoding the device asked for. An empty name
// means the device didn't say, which we treat as UTF-8.
func (c Capabilities) Encoding() (encoding.Encoding, error) {
	name := strings.TrimSpace(c.TextEncoding)
	if name == "" {
		return unicode.UTF8, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}

	return enc, nil
}

// Charset is the name to label a page with once it has been through
// Encode. Devices get back the name they asked for, or utf-8 when that
// name is unknown.
func (c Capabilities) Charset() string {
	enc, err := c.Encoding()
	if err != nil || enc == unicode.UTF8 {
		return "utf-8"
	}

	return strings.TrimSpace(c.TextEncoding)
}

// Encode converts a UTF-8 page into the device's text encoding. Runes the
// target charset can't represent are replaced rather than failing the
// whole page. Unknown encodings leave the page as UTF-8.
func (c Capabilities) Encode(page string) ([]byte, error) {
	enc, err := c.Encoding()
	if err != nil {
		return []byte(page), err
	}

	if enc == unicode.UTF8 {
		return []byte(page), nil
	}

	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(page)
	if err != nil {
		return []byte(page), fmt.Errorf("device: can't encode page as %s: %w", c.TextEncoding, err)
	}

	return []byte(out), nil
}
