package analyzer

import "regexp"

// tokenPattern approximates BPE grouping: an optional leading space plus a
// word run, an optional leading space plus a punctuation run, or a whitespace run.
var tokenPattern = regexp.MustCompile(` ?[\p{L}\p{N}_]+| ?[^\s\v\p{Z}\p{L}\p{N}_]+|[\s\v\p{Z}]+`)

// Estimator counts tokens with a single regular expression. It holds no state
// and is safe for concurrent use.
type Estimator struct{}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// CountTokens returns the estimated token count of text.
// Empty text has zero tokens; any other text has at least one.
func (e *Estimator) CountTokens(text string) int {
	return EstimateTokens(text)
}

// EstimateTokens is the package-level form of Estimator.CountTokens.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(tokenPattern.FindAllStringIndex(text, -1))
	if n < 1 {
		return 1
	}
	return n
}
