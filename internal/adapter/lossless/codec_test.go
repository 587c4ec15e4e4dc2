package lossless

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokentrim/internal/domain"
)

func repeatedSource() string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "func handler%d(w http.ResponseWriter, r *http.Request) {\n", i)
		b.WriteString("\tif err := validateRequestHeaders(r); err != nil {\n")
		b.WriteString("\t\thttp.Error(w, err.Error(), http.StatusBadRequest)\n")
		b.WriteString("\t\treturn\n")
		b.WriteString("\t}\n")
		b.WriteString("}\n\n")
	}
	return b.String()
}

func TestCodecRoundTrip(t *testing.T) {
	c := NewCodec()
	inputs := []string{
		"",
		"x",
		"short\nlines\nonly\n",
		repeatedSource(),
		"\x02\x03\x10 already has markers \x02 in it \x10",
		strings.Repeat("\x02 this line holds a start marker byte\n", 4),
		"héllo wörld, this line repeats itself\nhéllo wörld, this line repeats itself\n",
		"no trailing newline but repeated text here\nno trailing newline but repeated text here",
	}

	for _, in := range inputs {
		file := c.Encode(in, "f.go", "Go")
		out, err := c.Decode(file)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, in, out)
	}
}

func TestCodecCompressesRepeatedLines(t *testing.T) {
	c := NewCodec()
	src := repeatedSource()

	file := c.Encode(src, "handlers.go", "Go")

	assert.Equal(t, "handlers.go", file.Filename)
	assert.Equal(t, "Go", file.Language)
	assert.Equal(t, len(src), file.OriginalSize)
	assert.Equal(t, 2, file.PatternsCount)
	assert.Less(t, file.EncodedSize, file.OriginalSize)
	assert.Greater(t, file.CompressionRatio, 1.0)
	assert.Greater(t, file.SpaceSavedPct, 0.0)
	assert.Equal(t, DefaultKeyWidth, file.KeyWidth)

	assert.Equal(t, "if err := validateRequestHeaders(r); err != nil {", file.DecodeTable["0000"])
	assert.Equal(t, "http.Error(w, err.Error(), http.StatusBadRequest)", file.DecodeTable["0001"])
	assert.Contains(t, file.Body, "\t\x020000\x03\n")

	size := len(file.Body)
	for k, p := range file.DecodeTable {
		size += len(k) + len(p)
	}
	assert.Equal(t, size, file.EncodedSize)
}

func TestCodecEscapesReservedBytes(t *testing.T) {
	c := NewCodec()

	file := c.Encode("a\x02b\x03c\x10d", "bin.txt", "Plain Text")

	assert.Equal(t, "a\x10\x02b\x10\x03c\x10\x10d", file.Body)
	assert.Zero(t, file.PatternsCount)
	assert.Empty(t, file.DecodeTable)
}

func TestCodecPrunesUnprofitablePatterns(t *testing.T) {
	c := &Codec{MinPatternLength: 4, MinOccurrences: 2, KeyWidth: 4}

	file := c.Encode("abcd\nabcd\n", "f", "Plain Text")

	assert.Zero(t, file.PatternsCount, "replacing a 4 byte line twice cannot pay for its table entry")
	assert.Equal(t, "abcd\nabcd\n", file.Body)
}

func TestCodecDeterministic(t *testing.T) {
	c := NewCodec()
	src := repeatedSource()

	assert.Equal(t, c.Encode(src, "a", "Go"), c.Encode(src, "a", "Go"))
}

func TestKeyWidthGrowsWithTable(t *testing.T) {
	assert.Equal(t, 4, keyWidth(4, 0))
	assert.Equal(t, 4, keyWidth(4, 10000))
	assert.Equal(t, 5, keyWidth(4, 10001))
	assert.Equal(t, 2, keyWidth(1, 11))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		file domain.LosslessEncodedFile
		want error
	}{
		{
			name: "missing key",
			file: domain.LosslessEncodedFile{KeyWidth: 4, Body: "x\x020007\x03", DecodeTable: map[string]string{"0000": "p"}},
			want: ErrMissingKey,
		},
		{
			name: "unterminated placeholder",
			file: domain.LosslessEncodedFile{KeyWidth: 4, Body: "x\x020000"},
			want: ErrMalformedBody,
		},
		{
			name: "dangling escape",
			file: domain.LosslessEncodedFile{Body: "x\x10"},
			want: ErrMalformedBody,
		},
		{
			name: "wrong key width",
			file: domain.LosslessEncodedFile{KeyWidth: 4, Body: "\x0200\x03", DecodeTable: map[string]string{"00": "p"}},
			want: ErrMalformedBody,
		},
		{
			name: "stray end marker",
			file: domain.LosslessEncodedFile{Body: "a\x03b"},
			want: ErrMalformedBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.file)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrReconstruction)
		})
	}
}

func FuzzCodecRoundTrip(f *testing.F) {
	f.Add("")
	f.Add(repeatedSource())
	f.Add("\x02\x03\x10")
	f.Add("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\naaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n")

	c := &Codec{MinPatternLength: 8, MinOccurrences: 2, KeyWidth: 2}
	f.Fuzz(func(t *testing.T, in string) {
		file := c.Encode(in, "fuzz", "Plain Text")
		out, err := c.Decode(file)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if out != in {
			t.Fatalf("round trip mismatch: %q != %q", out, in)
		}
	})
}
