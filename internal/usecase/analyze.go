package usecase

import (
	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
	"tokentrim/internal/textio"
)

// AnalyzeUseCase produces the quick per-upload summary.
type AnalyzeUseCase struct {
	estimator port.TokenEstimator
}

// NewAnalyzeUseCase creates a new analyze use case.
func NewAnalyzeUseCase(estimator port.TokenEstimator) *AnalyzeUseCase {
	if estimator == nil {
		estimator = analyzer.NewEstimator()
	}
	return &AnalyzeUseCase{estimator: estimator}
}

// AnalyzeFile reports size, language and estimated tokens of an upload.
func (u *AnalyzeUseCase) AnalyzeFile(filename string, data []byte) domain.FileAnalysis {
	return domain.FileAnalysis{
		FileName:      filename,
		FileSize:      len(data),
		Language:      analyzer.DetectLanguage(filename),
		TokenEstimate: u.estimator.CountTokens(textio.DecodeBytes(data)),
	}
}
