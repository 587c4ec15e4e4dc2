package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"tokentrim/config"
	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/adapter/chunker"
	"tokentrim/internal/adapter/fs"
	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/adapter/minifier"
	"tokentrim/internal/adapter/summariser"
	"tokentrim/internal/domain"
	"tokentrim/internal/usecase"
)

type result struct {
	path     string
	original int
	best     int
	level    string
	pct      float64
	elapsed  time.Duration
	lossless float64
}

func main() {
	dir := flag.String("dir", ".", "Directory to benchmark")
	aggressive := flag.Bool("aggressive", false, "Aggressive minification")
	top := flag.Int("top", 20, "Number of files to list")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	est := analyzer.NewEstimator()
	mini := minifier.NewMinifier(est)
	ch := chunker.NewCompositeChunker(cfg.Chunk.MaxBlockTokens, est, cfg.Chunk.UseAST)
	compress := usecase.NewCompressUseCase(mini, ch, summariser.NewSummariser(mini, ch, est), est, nil)
	codec := lossless.NewCodec()

	loader := usecase.NewSourceLoader(fs.NewWalker(cfg.Walk.Includes, cfg.Walk.Excludes, cfg.Walk.MaxFileBytes), nil)
	files, err := loader.Load(*dir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No text files found.")
		os.Exit(1)
	}

	fmt.Println("COMPRESSION BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Directory: %s\n", *dir)
	fmt.Printf("Files:     %d\n", len(files))
	fmt.Println()

	results := make([]result, 0, len(files))
	var totalOriginal, totalBest int
	var totalElapsed time.Duration
	levels := map[string]int{}

	for _, f := range files {
		start := time.Now()
		r := compress.Compress(context.Background(), usecase.CompressInput{
			Text:       f.Text,
			Filename:   f.Name,
			Language:   f.Language,
			Aggressive: *aggressive,
		})
		elapsed := time.Since(start)

		results = append(results, result{
			path:     f.Name,
			original: r.OriginalTokens,
			best:     r.BestTokens,
			level:    r.BestLevel,
			pct:      r.OverallReductionPct,
			elapsed:  elapsed,
			lossless: codec.Encode(f.Text, f.Name, f.Language).SpaceSavedPct,
		})
		totalOriginal += r.OriginalTokens
		totalBest += r.BestTokens
		totalElapsed += elapsed
		levels[r.BestLevel]++
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].original-results[i].best > results[j].original-results[j].best
	})

	fmt.Printf("Top %d files by tokens saved:\n\n", min(*top, len(results)))
	fmt.Printf("%-40s %8s %8s %7s %9s %8s\n", "file", "tokens", "best", "saved", "lossless", "time")
	fmt.Println(strings.Repeat("-", 70))
	for i, r := range results {
		if i >= *top {
			break
		}
		fmt.Printf("%-40s %8d %8d %6.1f%% %8.1f%% %8s\n",
			shortPath(r.path, 40), r.original, r.best, r.pct, r.lossless, r.elapsed.Round(time.Microsecond))
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("TOTALS:\n")
	fmt.Printf("  Original tokens: %d\n", totalOriginal)
	fmt.Printf("  Best tokens:     %d\n", totalBest)
	if totalOriginal > 0 {
		fmt.Printf("  Reduction:       %.2f%%\n", (1-float64(totalBest)/float64(totalOriginal))*100)
	}
	fmt.Printf("  Best levels:     %d minified, %d compressed\n", levels[domain.LevelMinified], levels[domain.LevelCompressed])
	fmt.Printf("  Pipeline time:   %s (%s per file)\n", totalElapsed.Round(time.Millisecond), (totalElapsed / time.Duration(len(results))).Round(time.Microsecond))
}

func shortPath(path string, width int) string {
	if len(path) <= width {
		return path
	}
	return "..." + path[len(path)-width+3:]
}
