package usecase

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/adapter/fs"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

// SourceLoader reads the text files under a path.
type SourceLoader struct {
	walker port.FileWalker
	logger *zap.Logger
}

// NewSourceLoader creates a new source loader.
func NewSourceLoader(walker port.FileWalker, logger *zap.Logger) *SourceLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourceLoader{
		walker: walker,
		logger: logger,
	}
}

// Load returns every text file under root in walk order. Binary files are
// skipped. onFile, when set, is called once per walked file.
func (l *SourceLoader) Load(root string, onFile func(port.FileInfo)) ([]domain.SourceFile, error) {
	infos, err := l.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	files := make([]domain.SourceFile, 0, len(infos))
	for _, info := range infos {
		if onFile != nil {
			onFile(info)
		}
		text, err := fs.ReadFile(info.Path)
		if errors.Is(err, fs.ErrBinary) {
			l.logger.Debug("skipping binary file", zap.String("path", info.RelPath))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", info.RelPath, err)
		}
		files = append(files, domain.SourceFile{
			Name:     info.RelPath,
			Language: analyzer.DetectLanguage(info.RelPath),
			Text:     text,
		})
	}
	return files, nil
}
