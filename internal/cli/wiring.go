package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"tokentrim/config"
	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/adapter/cache"
	"tokentrim/internal/adapter/chunker"
	"tokentrim/internal/adapter/fs"
	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/adapter/minifier"
	"tokentrim/internal/adapter/store"
	"tokentrim/internal/adapter/summariser"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
	"tokentrim/internal/textio"
	"tokentrim/internal/usecase"
)

// services holds the use cases wired from the loaded config.
type services struct {
	compress *usecase.CompressUseCase
	analyze  *usecase.AnalyzeUseCase
	bundle   *usecase.BundleUseCase
	lossless *usecase.LosslessUseCase
	sources  *usecase.SourceLoader
	reports  port.ReportCache
}

func newServices(cfg *config.Config, st port.BundleStore) *services {
	log := GetLogger()
	est := analyzer.NewEstimator()
	mini := minifier.NewMinifier(est)
	ch := chunker.NewCompositeChunker(cfg.Chunk.MaxBlockTokens, est, cfg.Chunk.UseAST)
	compress := usecase.NewCompressUseCase(mini, ch, summariser.NewSummariser(mini, ch, est), est, log)

	codec := lossless.NewCodec()
	codec.MinPatternLength = cfg.Lossless.MinPatternLength
	codec.MinOccurrences = cfg.Lossless.MinOccurrences
	codec.KeyWidth = cfg.Lossless.KeyWidth

	walker := fs.NewWalker(cfg.Walk.Includes, cfg.Walk.Excludes, cfg.Walk.MaxFileBytes)

	return &services{
		compress: compress,
		analyze:  usecase.NewAnalyzeUseCase(est),
		bundle:   usecase.NewBundleUseCase(compress, est),
		lossless: usecase.NewLosslessUseCase(codec, st, log),
		sources:  usecase.NewSourceLoader(walker, log),
	}
}

// enableReportCache lets long-running commands reuse reports of repeated
// inputs.
func (s *services) enableReportCache(cfg *config.Config) {
	if cfg.Cache.Size <= 0 {
		return
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	s.reports = cache.NewReportCache(cfg.Cache.Size, ttl)
}

// compressReport runs the pipeline, answering repeated inputs from the
// report cache when one is enabled.
func (s *services) compressReport(ctx context.Context, in usecase.CompressInput) *domain.CompressionReport {
	if s.reports == nil {
		return s.compress.Compress(ctx, in)
	}
	return s.reports.Report(in.Filename, in.Language, in.Aggressive, in.Text, func() *domain.CompressionReport {
		return s.compress.Compress(ctx, in)
	})
}

// openArchive opens the bundle archive of the project directory.
func openArchive(cfg *config.Config, dir string) (*store.BoltStore, error) {
	path := cfg.ArchiveDBPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	st, err := store.NewBoltStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return st, nil
}

// loadSources reads every argument: "-" is stdin, a directory is walked
// with the configured globs, anything else is read as a file.
func loadSources(svc *services, args []string, stdin io.Reader) ([]domain.SourceFile, error) {
	var files []domain.SourceFile
	var bar *progressbar.ProgressBar

	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			files = append(files, domain.SourceFile{Name: "stdin", Language: analyzer.PlainText, Text: textio.DecodeBytes(data)})
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			text, err := fs.ReadFile(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, domain.SourceFile{Name: filepath.ToSlash(arg), Language: analyzer.DetectLanguage(arg), Text: text})
			continue
		}

		loaded, err := svc.sources.Load(arg, func(info port.FileInfo) {
			if bar == nil {
				bar = newProgressBar(-1, "Reading")
			}
			_ = bar.Add(1)
		})
		if err != nil {
			return nil, err
		}
		for _, f := range loaded {
			f.Name = filepath.ToSlash(filepath.Join(arg, f.Name))
			files = append(files, f)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return files, nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
