// Package huffman implements a byte-oriented Huffman entropy coder with a
// deterministic tree and exact decoding.
package huffman

import (
	"errors"
	"math"

	"tokentrim/internal/domain"
)

var ErrCorruptBitstream = errors.New("huffman: corrupt bitstream")

// Encoding is the result of coding one text.
type Encoding struct {
	Tree          *Tree
	Bits          Bitstream
	OriginalBytes int
}

// Encode builds the tree for text and codes it. Identical input always
// produces an identical tree and bitstream.
func Encode(text string) *Encoding {
	enc := &Encoding{OriginalBytes: len(text)}
	if text == "" {
		return enc
	}

	var freq [256]int
	for i := 0; i < len(text); i++ {
		freq[text[i]]++
	}
	enc.Tree = buildTree(&freq)

	codes := enc.Tree.Codes()
	for i := 0; i < len(text); i++ {
		enc.Bits.writeCode(codes[text[i]])
	}
	return enc
}

// Decode walks tree along bits and returns the original text.
func Decode(bits Bitstream, tree *Tree) (string, error) {
	if bits.Len == 0 {
		return "", nil
	}
	if tree == nil || tree.root == nil || bits.Len < 0 || bits.Len > len(bits.Bytes)*8 {
		return "", ErrCorruptBitstream
	}

	out := make([]byte, 0, bits.Len/2)
	if tree.root.leaf() {
		for i := 0; i < bits.Len; i++ {
			if bits.Bit(i) {
				return "", ErrCorruptBitstream
			}
			out = append(out, tree.root.symbol)
		}
		return string(out), nil
	}

	n := tree.root
	for i := 0; i < bits.Len; i++ {
		if bits.Bit(i) {
			n = n.right
		} else {
			n = n.left
		}
		if n.leaf() {
			out = append(out, n.symbol)
			n = tree.root
		}
	}
	if n != tree.root {
		return "", ErrCorruptBitstream
	}
	return string(out), nil
}

// CompressionRatio is original bits over compressed bits, 0 for no output.
func (e *Encoding) CompressionRatio() float64 {
	if e.Bits.Len == 0 {
		return 0
	}
	return round2(float64(e.OriginalBytes*8) / float64(e.Bits.Len))
}

// SpaceSavedPct is the share of original bits saved, 0 for empty input.
func (e *Encoding) SpaceSavedPct() float64 {
	if e.OriginalBytes == 0 {
		return 0
	}
	return round2((1 - float64(e.Bits.Len)/float64(e.OriginalBytes*8)) * 100)
}

func (e *Encoding) Result() domain.HuffmanResult {
	return domain.HuffmanResult{
		CompressedSizeBits: e.Bits.Len,
		CompressionRatio:   e.CompressionRatio(),
		SpaceSavedPct:      e.SpaceSavedPct(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
