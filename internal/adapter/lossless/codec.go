// Package lossless implements a dictionary substitution codec whose output
// always decodes back to the exact input bytes.
package lossless

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"tokentrim/internal/domain"
)

// Reserved bytes. Placeholders are StartMarker key EndMarker; a reserved
// byte that occurs in the input is written as Escape followed by the byte.
const (
	StartMarker byte = 0x02
	EndMarker   byte = 0x03
	Escape      byte = 0x10
)

const (
	DefaultMinPatternLength = 24
	DefaultMinOccurrences   = 2
	DefaultKeyWidth         = 4
)

var (
	ErrReconstruction = errors.New("lossless: reconstruction failed")
	ErrMissingKey     = fmt.Errorf("%w: key missing from decode table", ErrReconstruction)
	ErrMalformedBody  = fmt.Errorf("%w: malformed body", ErrReconstruction)
)

// Codec replaces repeated line bodies with fixed-width keys.
type Codec struct {
	MinPatternLength int
	MinOccurrences   int
	KeyWidth         int
}

func NewCodec() *Codec {
	return &Codec{
		MinPatternLength: DefaultMinPatternLength,
		MinOccurrences:   DefaultMinOccurrences,
		KeyWidth:         DefaultKeyWidth,
	}
}

func (c *Codec) settings() (minLen, minOcc, width int) {
	minLen, minOcc, width = c.MinPatternLength, c.MinOccurrences, c.KeyWidth
	if minLen < 1 {
		minLen = DefaultMinPatternLength
	}
	if minOcc < 1 {
		minOcc = DefaultMinOccurrences
	}
	if width < 1 {
		width = DefaultKeyWidth
	}
	return minLen, minOcc, width
}

// Encode compresses text. Decoding the result returns text unchanged.
func (c *Codec) Encode(text, filename, language string) domain.LosslessEncodedFile {
	minLen, minOcc, width := c.settings()

	patterns := candidates(text, minLen, minOcc)
	for {
		m := newMatcher(patterns, minLen)
		uses, _ := m.substitute(text, nil)
		keyLen := keyWidth(width, len(patterns))

		var kept []string
		for _, p := range patterns {
			n := uses[p]
			saved := n*len(p) - n*(keyLen+2) - (keyLen + len(p))
			if n >= minOcc && saved > 0 {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(patterns) {
			break
		}
		patterns = kept
	}

	keyLen := keyWidth(width, len(patterns))
	m := newMatcher(patterns, minLen)
	_, order := m.substitute(text, nil)

	keys := make(map[string]string, len(order))
	table := make(map[string]string, len(order))
	for i, p := range order {
		key := fmt.Sprintf("%0*d", keyLen, i)
		keys[p] = key
		table[key] = p
	}

	var body strings.Builder
	body.Grow(len(text))
	m.substitute(text, func(literal, pattern string) {
		if pattern != "" {
			body.WriteByte(StartMarker)
			body.WriteString(keys[pattern])
			body.WriteByte(EndMarker)
			return
		}
		writeEscaped(&body, literal)
	})

	encoded := body.Len()
	for k, p := range table {
		encoded += len(k) + len(p)
	}

	return domain.LosslessEncodedFile{
		Filename:         filename,
		Language:         language,
		OriginalSize:     len(text),
		EncodedSize:      encoded,
		PatternsCount:    len(table),
		CompressionRatio: ratio(len(text), encoded),
		SpaceSavedPct:    savedPct(len(text), encoded),
		KeyWidth:         keyLen,
		DecodeTable:      table,
		Body:             body.String(),
	}
}

// Decode reverses Encode. It fails when the body references a key that
// the table lacks or when a placeholder or escape is cut short.
func (c *Codec) Decode(file domain.LosslessEncodedFile) (string, error) {
	return Decode(file)
}

func Decode(file domain.LosslessEncodedFile) (string, error) {
	body := file.Body
	var out strings.Builder
	out.Grow(file.OriginalSize)

	for i := 0; i < len(body); i++ {
		switch body[i] {
		case Escape:
			if i+1 >= len(body) {
				return "", fmt.Errorf("%w: dangling escape at offset %d", ErrMalformedBody, i)
			}
			i++
			out.WriteByte(body[i])
		case StartMarker:
			end := strings.IndexByte(body[i+1:], EndMarker)
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated placeholder at offset %d", ErrMalformedBody, i)
			}
			key := body[i+1 : i+1+end]
			if file.KeyWidth > 0 && len(key) != file.KeyWidth {
				return "", fmt.Errorf("%w: key %q is not %d bytes wide", ErrMalformedBody, key, file.KeyWidth)
			}
			pattern, ok := file.DecodeTable[key]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
			}
			out.WriteString(pattern)
			i += end + 1
		case EndMarker:
			return "", fmt.Errorf("%w: stray end marker at offset %d", ErrMalformedBody, i)
		default:
			out.WriteByte(body[i])
		}
	}
	return out.String(), nil
}

const reservedBytes = "\x02\x03\x10"

func reserved(c byte) bool {
	return c == StartMarker || c == EndMarker || c == Escape
}

func writeEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		if reserved(s[i]) {
			b.WriteByte(Escape)
		}
		b.WriteByte(s[i])
	}
}

// candidates returns trimmed line bodies that are long enough, free of
// reserved bytes and repeated often enough, longest first.
func candidates(text string, minLen, minOcc int) []string {
	counts := make(map[string]int)
	for _, line := range strings.Split(text, "\n") {
		body := strings.TrimSpace(line)
		if len(body) < minLen || strings.ContainsAny(body, reservedBytes) {
			continue
		}
		counts[body]++
	}

	var out []string
	for p, n := range counts {
		if n >= minOcc {
			out = append(out, p)
		}
	}
	sortPatterns(out)
	return out
}

// sortPatterns orders longest first, then lexically.
func sortPatterns(p []string) {
	sort.Slice(p, func(i, j int) bool {
		if len(p[i]) != len(p[j]) {
			return len(p[i]) > len(p[j])
		}
		return p[i] < p[j]
	})
}

func keyWidth(min, n int) int {
	if n <= 1 {
		return min
	}
	if d := len(strconv.Itoa(n - 1)); d > min {
		return d
	}
	return min
}

func ratio(original, encoded int) float64 {
	if encoded == 0 {
		return 0
	}
	return round2(float64(original) / float64(encoded))
}

func savedPct(original, encoded int) float64 {
	if original == 0 {
		return 0
	}
	return round2((1 - float64(encoded)/float64(original)) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
