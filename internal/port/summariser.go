package port

import "tokentrim/internal/domain"

// Summariser derives the skeleton, architecture and compressed views of a file.
// A nil chunks slice makes the summariser chunk the text itself.
type Summariser interface {
	Summarise(text, language, filename string, chunks []domain.CodeChunk) domain.SummaryResult
}
