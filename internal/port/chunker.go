package port

import "tokentrim/internal/domain"

type Chunker interface {
	Chunk(text, language string) []domain.CodeChunk
}
