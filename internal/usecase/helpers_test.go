package usecase

import (
	"go.uber.org/zap"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/adapter/chunker"
	"tokentrim/internal/adapter/minifier"
	"tokentrim/internal/adapter/summariser"
)

func newTestCompressUseCase(logger *zap.Logger) *CompressUseCase {
	est := analyzer.NewEstimator()
	min := minifier.NewMinifier(est)
	ch := chunker.NewCompositeChunker(0, est, true)
	return NewCompressUseCase(min, ch, summariser.NewSummariser(min, ch, est), est, logger)
}

const repeatedPython = `import os


def load(path):
    # read the configuration file
    result = compute_value(path, retries=3)
    return result


def save(path):
    result = compute_value(path, retries=3)
    return result
`
