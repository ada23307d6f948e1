package appender

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Converter turns encoded event bytes into the string payload handed to a
// [Writer].
type Converter interface {
	Convert(encoded []byte) (string, error)
}

// StringConverter decodes payload bytes using an IANA charset, or base64
// encodes them when Binary is set. The zero value passes UTF-8 through
// unchanged.
type StringConverter struct {
	// Charset is the IANA name of the encoder's output charset. Empty means UTF-8.
	Charset string

	// Binary base64 encodes the payload instead of decoding it as text.
	Binary bool
}

// Validate checks that Charset is known.
func (c StringConverter) Validate() error {
	_, err := c.encoding()
	return err
}

// Convert implements [Converter].
func (c StringConverter) Convert(encoded []byte) (string, error) {
	if c.Binary {
		return base64.StdEncoding.EncodeToString(encoded), nil
	}

	enc, err := c.encoding()
	if err != nil {
		return "", err
	}

	if enc == nil {
		return string(encoded), nil
	}

	decoded, err := enc.NewDecoder().Bytes(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode payload as %s: %w", c.Charset, err)
	}

	return string(decoded), nil
}

// encoding returns nil for UTF-8, which needs no decoding.
//
//nolint:ireturn // encoding.Encoding is the x/text contract
func (c StringConverter) encoding() (encoding.Encoding, error) {
	if c.Charset == "" {
		return nil, nil //nolint:nilnil
	}

	enc, err := ianaindex.IANA.Encoding(c.Charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", c.Charset, err)
	}

	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", c.Charset)
	}

	if name, _ := ianaindex.IANA.Name(enc); name == "UTF-8" {
		return nil, nil //nolint:nilnil
	}

	return enc, nil
}
