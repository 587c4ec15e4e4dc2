package port

// TokenEstimator approximates the token count a language model would see.
type TokenEstimator interface {
	CountTokens(text string) int
}
