// Package textio turns uploaded bytes into text.
package textio

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// sniffLen bounds how much of a file is inspected for binary content.
const sniffLen = 8000

// DecodeBytes returns data as text: UTF-8 when valid, otherwise decoded
// as ISO-8859-1, which maps every byte to a rune.
func DecodeBytes(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
	return string(out)
}

// IsBinary reports content that is not text: PDFs and anything with a NUL
// byte near the start.
func IsBinary(data []byte) bool {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return true
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}
