package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

var (
	sectionSeparator = "\n" + strings.Repeat("═", 60) + "\n"
	sectionRule      = strings.Repeat("-", 40)
	numbers          = message.NewPrinter(language.English)
)

// BundleUseCase merges a chat transcript and source files into a single
// plain-text context document.
type BundleUseCase struct {
	compress  *CompressUseCase
	estimator port.TokenEstimator
}

// NewBundleUseCase creates a new bundle use case.
func NewBundleUseCase(compress *CompressUseCase, estimator port.TokenEstimator) *BundleUseCase {
	if estimator == nil {
		estimator = analyzer.NewEstimator()
	}
	return &BundleUseCase{
		compress:  compress,
		estimator: estimator,
	}
}

// RawBundle concatenates the chat and every file unchanged.
func (u *BundleUseCase) RawBundle(chat string, files []domain.SourceFile, now time.Time) string {
	files = normaliseSources(files)

	sections := []string{
		"╔══════════════════════════════════════════════════════╗\n" +
			"║        TOKENTRIM  ·  RAW CONTEXT BUNDLE              ║\n" +
			"╚══════════════════════════════════════════════════════╝\n" +
			"Generated : " + timestamp(now) + "\n" +
			"Files     : " + strconv.Itoa(len(files)) + "\n" +
			"Mode      : Uncompressed (original content)",
	}

	total := 0
	if strings.TrimSpace(chat) != "" {
		tokens := u.estimator.CountTokens(chat)
		total += tokens
		sections = append(sections, chatSection(chat, tokens))
	}

	for i, f := range files {
		tokens := u.estimator.CountTokens(f.Text)
		total += tokens
		sections = append(sections, fmt.Sprintf("[ FILE %d: %s ]  language=%s  (%s tokens)\n%s\n%s",
			i+1, f.Name, f.Language, thousands(tokens), sectionRule, strings.TrimRightFunc(f.Text, unicode.IsSpace)))
	}

	sections = append(sections, "[ END OF BUNDLE ]  Total estimated tokens: "+thousands(total))
	return strings.Join(sections, sectionSeparator)
}

// CompressedBundle runs the pipeline on every file and merges the best
// level of each behind a shared decode preamble.
func (u *BundleUseCase) CompressedBundle(ctx context.Context, chat string, files []domain.SourceFile, aggressive bool, now time.Time) string {
	files = normaliseSources(files)

	reports := make([]*domain.CompressionReport, 0, len(files))
	originalTotal, bestTotal := 0, 0
	for _, f := range files {
		r := u.compress.Compress(ctx, CompressInput{
			Text:       f.Text,
			Filename:   f.Name,
			Language:   f.Language,
			Aggressive: aggressive,
		})
		originalTotal += r.OriginalTokens
		bestTotal += r.BestTokens
		reports = append(reports, r)
	}

	overall := 0.0
	if originalTotal > 0 {
		overall = round1((1 - float64(bestTotal)/float64(originalTotal)) * 100)
	}

	sections := []string{
		"╔══════════════════════════════════════════════════════╗\n" +
			"║     TOKENTRIM  ·  COMPRESSED CONTEXT BUNDLE          ║\n" +
			"╚══════════════════════════════════════════════════════╝\n" +
			"Generated   : " + timestamp(now) + "\n" +
			"Files       : " + strconv.Itoa(len(reports)) + "\n" +
			"Mode        : Compressed (Huffman + minification + summarisation)\n" +
			"Orig tokens : " + thousands(originalTotal) + "\n" +
			"Best tokens : " + thousands(bestTotal) + "\n" +
			"Reduction   : " + formatPct(overall) + "%",
	}

	if entries := unionHashEntries(reports); len(entries) > 0 {
		lines := []string{
			"[ DECODE PREAMBLE — hash reference table for all files ]",
			sectionRule,
			"Hash references (e.g. #a1b2c3) stand for repeated code patterns.",
			"Expand them when reading the compressed sections below.",
			"",
		}
		for _, e := range entries {
			lines = append(lines, "  "+e.Key+"  →  "+preambleDisplay(e.Pattern))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if strings.TrimSpace(chat) != "" {
		sections = append(sections, chatSection(chat, u.estimator.CountTokens(chat)))
	}

	for i, r := range reports {
		view, _ := r.SummaryLevels.View(r.BestLevel)
		header := fmt.Sprintf("[ FILE %d: %s ]  level=%s  orig=%st → compressed=%st  reduction=%s%%  huffman=%.2fx",
			i+1, r.Filename, r.BestLevel, thousands(r.OriginalTokens), thousands(r.BestTokens),
			formatPct(r.OverallReductionPct), r.Huffman.CompressionRatio)
		sections = append(sections, header+"\n"+sectionRule+"\n"+strings.TrimRightFunc(view.Content, unicode.IsSpace))
	}

	sections = append(sections, fmt.Sprintf("[ END OF BUNDLE ]  Compressed tokens: %s  (was %s, saved %s%%)",
		thousands(bestTotal), thousands(originalTotal), formatPct(overall)))

	return strings.Join(sections, sectionSeparator)
}

// unionHashEntries merges the decode tables of all reports. A key keeps the
// position of its first appearance.
func unionHashEntries(reports []*domain.CompressionReport) []domain.HashEntry {
	seen := make(map[string]bool)
	var out []domain.HashEntry
	for _, r := range reports {
		for _, e := range r.HashEntries {
			if seen[e.Key] {
				continue
			}
			seen[e.Key] = true
			out = append(out, e)
		}
	}
	return out
}

func chatSection(chat string, tokens int) string {
	return fmt.Sprintf("[ CHAT ]  (%s tokens)\n%s\n%s", thousands(tokens), sectionRule, strings.TrimSpace(chat))
}

// normaliseSources names unnamed files file_N and detects missing languages.
func normaliseSources(files []domain.SourceFile) []domain.SourceFile {
	out := make([]domain.SourceFile, len(files))
	for i, f := range files {
		if f.Name == "" {
			f.Name = fmt.Sprintf("file_%d", i+1)
		}
		if f.Language == "" {
			f.Language = analyzer.DetectLanguage(f.Name)
		}
		out[i] = f
	}
	return out
}

func timestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05Z")
}

func thousands(n int) string {
	return numbers.Sprintf("%d", n)
}

// formatPct prints a percentage with at least one decimal place and no
// trailing zeros beyond it.
func formatPct(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
