package port

import "tokentrim/internal/domain"

// ReportCache memoises compression reports by their input. Transports own
// it; the pipeline itself keeps no state between calls.
type ReportCache interface {
	Get(filename, language string, aggressive bool, text string) (*domain.CompressionReport, bool)
	Put(filename, language string, aggressive bool, text string, report *domain.CompressionReport)
	Report(filename, language string, aggressive bool, text string, compute func() *domain.CompressionReport) *domain.CompressionReport
}
