package port

import "tokentrim/internal/domain"

// LosslessCodec encodes text so that decoding restores it byte for byte.
type LosslessCodec interface {
	Encode(text, filename, language string) domain.LosslessEncodedFile

	Decode(file domain.LosslessEncodedFile) (string, error)
}
