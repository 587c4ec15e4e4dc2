package usecase

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

// ErrNoArchive is returned by archive operations when no store is configured.
var ErrNoArchive = errors.New("bundle archive is not configured")

// LosslessUseCase encodes files into lossless bundles and restores them.
type LosslessUseCase struct {
	codec  port.LosslessCodec
	store  port.BundleStore
	logger *zap.Logger
}

// NewLosslessUseCase creates a new lossless use case. store may be nil.
func NewLosslessUseCase(codec port.LosslessCodec, store port.BundleStore, logger *zap.Logger) *LosslessUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LosslessUseCase{
		codec:  codec,
		store:  store,
		logger: logger,
	}
}

// Encode builds a bundle holding every file in order.
func (u *LosslessUseCase) Encode(files []domain.SourceFile, now time.Time) domain.LosslessBundle {
	encoded := make([]domain.LosslessEncodedFile, 0, len(files))
	for _, f := range normaliseSources(files) {
		ef := u.codec.Encode(f.Text, f.Name, f.Language)
		u.logger.Debug("encoded file",
			zap.String("filename", f.Name),
			zap.Int("original_size", ef.OriginalSize),
			zap.Int("encoded_size", ef.EncodedSize),
			zap.Int("patterns", ef.PatternsCount))
		encoded = append(encoded, ef)
	}
	return lossless.NewBundle(encoded, now)
}

// Decode restores every file of b exactly as it was encoded.
func (u *LosslessUseCase) Decode(b domain.LosslessBundle) ([]domain.SourceFile, error) {
	if !b.Lossless {
		return nil, lossless.ErrFormatMarker
	}
	out := make([]domain.SourceFile, 0, len(b.Files))
	for _, f := range b.Files {
		text, err := u.codec.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", f.Filename, err)
		}
		language := f.Language
		if language == "" {
			language = analyzer.DetectLanguage(f.Filename)
		}
		out = append(out, domain.SourceFile{Name: f.Filename, Language: language, Text: text})
	}
	return out, nil
}

// Archive stores b under name after checking it decodes.
func (u *LosslessUseCase) Archive(name string, b domain.LosslessBundle) (port.BundleMeta, error) {
	if u.store == nil {
		return port.BundleMeta{}, ErrNoArchive
	}
	if _, err := u.Decode(b); err != nil {
		return port.BundleMeta{}, fmt.Errorf("refusing to archive bundle: %w", err)
	}
	meta, err := u.store.Put(name, b)
	if err != nil {
		return port.BundleMeta{}, fmt.Errorf("failed to archive bundle: %w", err)
	}
	u.logger.Info("archived bundle",
		zap.String("id", meta.ID),
		zap.String("name", meta.Name),
		zap.Int("files", meta.Files),
		zap.Int("stored_size", meta.StoredSize))
	return meta, nil
}

// Restore loads an archived bundle.
func (u *LosslessUseCase) Restore(id string) (domain.LosslessBundle, error) {
	if u.store == nil {
		return domain.LosslessBundle{}, ErrNoArchive
	}
	return u.store.Get(id)
}

// Archived lists archived bundles, newest first.
func (u *LosslessUseCase) Archived() ([]port.BundleMeta, error) {
	if u.store == nil {
		return nil, ErrNoArchive
	}
	return u.store.List()
}

// Forget removes an archived bundle.
func (u *LosslessUseCase) Forget(id string) error {
	if u.store == nil {
		return ErrNoArchive
	}
	return u.store.Delete(id)
}
