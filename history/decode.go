package history

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textDecoder turns raw git output into Go strings under a DecodePolicy.
type textDecoder struct {
	policy DecodePolicy
}

func (d textDecoder) decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	if d.policy == DecodeStrict {
		_, _, err := transform.Bytes(encoding.UTF8Validator, raw)
		if err == nil {
			err = encoding.ErrInvalidUTF8
		}
		return "", err
	}
	// The UTF-8 decoder from x/text replaces each invalid sequence with U+FFFD.
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
