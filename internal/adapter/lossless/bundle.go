package lossless

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"tokentrim/internal/domain"
)

// FormatVersion is the bundle layout written by this package.
const FormatVersion = 1

var (
	ErrFormatMarker       = fmt.Errorf("%w: bundle is not marked lossless", ErrReconstruction)
	ErrUnsupportedVersion = errors.New("lossless: unsupported bundle format version")
	ErrInvalidUTF8        = errors.New("lossless: file is not valid UTF-8")
)

func NewBundle(files []domain.LosslessEncodedFile, now time.Time) domain.LosslessBundle {
	if files == nil {
		files = []domain.LosslessEncodedFile{}
	}
	return domain.LosslessBundle{
		Lossless:      true,
		FormatVersion: FormatVersion,
		GeneratedAt:   now.UTC().Truncate(time.Second),
		Files:         files,
	}
}

// Validate rejects content that JSON cannot carry byte for byte.
func Validate(b domain.LosslessBundle) error {
	for _, f := range b.Files {
		if !utf8.ValidString(f.Body) {
			return fmt.Errorf("%w: %s", ErrInvalidUTF8, f.Filename)
		}
		for _, p := range f.DecodeTable {
			if !utf8.ValidString(p) {
				return fmt.Errorf("%w: %s", ErrInvalidUTF8, f.Filename)
			}
		}
	}
	return nil
}

// MarshalBundle serialises b as JSON, indented when indent is set.
func MarshalBundle(b domain.LosslessBundle, indent bool) ([]byte, error) {
	return marshalBundle(b, indent, false)
}

// marshalBundle escapes '<', '>' and '&' as \u sequences when escapeHTML is
// set, so the output never contains the envelope sentinels.
func marshalBundle(b domain.LosslessBundle, indent, escapeHTML bool) ([]byte, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(escapeHTML)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("failed to marshal bundle: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalBundle parses bundle JSON and checks the format marker.
func UnmarshalBundle(data []byte) (domain.LosslessBundle, error) {
	var probe struct {
		Lossless      *bool `json:"lossless"`
		FormatVersion int   `json:"format_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return domain.LosslessBundle{}, fmt.Errorf("failed to parse bundle: %w", err)
	}
	if probe.Lossless == nil || !*probe.Lossless {
		return domain.LosslessBundle{}, ErrFormatMarker
	}
	if probe.FormatVersion > FormatVersion {
		return domain.LosslessBundle{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, probe.FormatVersion)
	}

	var b domain.LosslessBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.LosslessBundle{}, fmt.Errorf("failed to parse bundle: %w", err)
	}
	if b.FormatVersion == 0 {
		b.FormatVersion = FormatVersion
	}
	return b, nil
}

// DecodeBundle restores every file of b, in order.
func DecodeBundle(b domain.LosslessBundle) ([]string, error) {
	if !b.Lossless {
		return nil, ErrFormatMarker
	}
	out := make([]string, len(b.Files))
	for i, f := range b.Files {
		text, err := Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Filename, err)
		}
		out[i] = text
	}
	return out, nil
}

// ParseBundle accepts any serialised form: an envelope, annotated text,
// zstd frames or plain JSON. Plain JSON and annotated text may carry the
// envelope sentinels inside file bodies, so they are recognised first.
func ParseBundle(data []byte) (domain.LosslessBundle, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case IsCompressed(data):
		return DecompressBundle(data)
	case bytes.HasPrefix(trimmed, []byte("{")):
		return UnmarshalBundle(trimmed)
	case bytes.HasPrefix(trimmed, []byte(annotatedTitle)):
		return parseAnnotated(trimmed)
	case bytes.Contains(data, []byte(envelopeOpen)):
		return DecodeEnvelope(string(data))
	}
	return parseAnnotated(trimmed)
}

func parseAnnotated(data []byte) (domain.LosslessBundle, error) {
	if i := bytes.Index(data, []byte(annotatedSeparator)); i >= 0 {
		data = data[i+len(annotatedSeparator):]
	}
	return UnmarshalBundle(bytes.TrimSpace(data))
}
