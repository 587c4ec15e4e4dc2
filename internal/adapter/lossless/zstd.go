package lossless

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"tokentrim/internal/domain"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// CompressBundle returns compact bundle JSON in a zstd frame.
func CompressBundle(b domain.LosslessBundle) ([]byte, error) {
	data, err := MarshalBundle(b, false)
	if err != nil {
		return nil, err
	}
	return Compress(data)
}

func DecompressBundle(data []byte) (domain.LosslessBundle, error) {
	raw, err := Decompress(data)
	if err != nil {
		return domain.LosslessBundle{}, err
	}
	return UnmarshalBundle(raw)
}

// Compress compresses data using zstd.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Decompress decompresses zstd-compressed data.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress bundle: %w", err)
	}
	return out, nil
}
