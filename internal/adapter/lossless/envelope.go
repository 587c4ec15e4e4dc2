package lossless

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"tokentrim/internal/domain"
)

const (
	envelopeOpen  = "<<TTLB:1>>"
	envelopeClose = "<</TTLB>>"

	annotatedTitle     = "LOSSLESS BUNDLE"
	annotatedSeparator = "----- BEGIN BUNDLE -----\n"
)

var ErrEnvelope = errors.New("lossless: envelope sentinels not found")

// EncodeEnvelope wraps compact bundle JSON in sentinels for consumers that
// already understand the format. Angle brackets in the payload are escaped
// so a file body can never close the envelope early.
func EncodeEnvelope(b domain.LosslessBundle) (string, error) {
	data, err := marshalBundle(b, false, true)
	if err != nil {
		return "", err
	}
	return envelopeOpen + string(data) + envelopeClose, nil
}

// DecodeEnvelope finds the sentinels anywhere in s and parses what lies
// between them.
func DecodeEnvelope(s string) (domain.LosslessBundle, error) {
	start := strings.Index(s, envelopeOpen)
	if start < 0 {
		return domain.LosslessBundle{}, ErrEnvelope
	}
	start += len(envelopeOpen)
	end := strings.Index(s[start:], envelopeClose)
	if end < 0 {
		return domain.LosslessBundle{}, ErrEnvelope
	}
	return UnmarshalBundle([]byte(s[start : start+end]))
}

const annotatedHeader = annotatedTitle + ` (format version %d)

This bundle restores the original files exactly. To decode a file:
  1. Read its "body" byte by byte.
  2. A 0x10 byte escapes the byte after it: output that byte as is.
  3. A 0x02 byte opens a placeholder: read up to the next 0x03 byte.
     The bytes between are a key of "key_width" digits.
     Output decode_table[key] in place of the placeholder.
  4. Output every other byte unchanged.
JSON escapes the marker bytes as \u0002, \u0003 and \u0010.

`

// WriteAnnotated writes decoding instructions followed by indented bundle
// JSON, for consumers that do not know the format.
func WriteAnnotated(w io.Writer, b domain.LosslessBundle) error {
	data, err := MarshalBundle(b, true)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, annotatedHeader, FormatVersion); err != nil {
		return err
	}
	if _, err := io.WriteString(w, annotatedSeparator); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
