package port

import (
	"time"

	"tokentrim/internal/domain"
)

// BundleStore archives finished lossless bundles.
type BundleStore interface {
	Put(name string, bundle domain.LosslessBundle) (BundleMeta, error)

	Get(id string) (domain.LosslessBundle, error)

	List() ([]BundleMeta, error)

	Delete(id string) error

	Close() error
}

type BundleMeta struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	Files        int       `json:"files"`
	OriginalSize int       `json:"original_size"`
	EncodedSize  int       `json:"encoded_size"`
	StoredSize   int       `json:"stored_size"`
}
