package port

import "tokentrim/internal/domain"

// Minifier strips non-semantic text from source.
type Minifier interface {
	Minify(text, language string, aggressive bool) domain.MinifyResult
}
