package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

var (
	bucketBundles = []byte("bundles")
	bucketMeta    = []byte("meta")
	bucketNames   = []byte("names")
	bucketStats   = []byte("stats")
)

// ErrNotFound is returned when no archived bundle matches an id or name.
var ErrNotFound = errors.New("bundle not found")

// BoltStore archives lossless bundles as zstd-compressed JSON in bbolt.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltStore opens or creates the archive at path and brings its schema
// up to date.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketBundles, bucketMeta, bucketStats} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db, now: time.Now}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) Put(name string, bundle domain.LosslessBundle) (port.BundleMeta, error) {
	data, err := lossless.CompressBundle(bundle)
	if err != nil {
		return port.BundleMeta{}, fmt.Errorf("failed to encode bundle: %w", err)
	}

	meta := port.BundleMeta{
		ID:         uuid.NewString(),
		Name:       name,
		CreatedAt:  s.now().UTC().Truncate(time.Second),
		Files:      len(bundle.Files),
		StoredSize: len(data),
	}
	for _, f := range bundle.Files {
		meta.OriginalSize += f.OriginalSize
		meta.EncodedSize += f.EncodedSize
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return port.BundleMeta{}, err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		id := []byte(meta.ID)
		if err := tx.Bucket(bucketBundles).Put(id, data); err != nil {
			return err
		}
		if err := tx.Bucket(bucketMeta).Put(id, metaData); err != nil {
			return err
		}
		if name != "" {
			return tx.Bucket(bucketNames).Put([]byte(name), id)
		}
		return nil
	})
	if err != nil {
		return port.BundleMeta{}, err
	}
	return meta, nil
}

// Get loads a bundle by id, or by name when no id matches. A name refers
// to the bundle most recently stored under it.
func (s *BoltStore) Get(idOrName string) (domain.LosslessBundle, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		id, ok := resolve(tx, idOrName)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, idOrName)
		}
		data = append([]byte(nil), tx.Bucket(bucketBundles).Get(id)...)
		return nil
	})
	if err != nil {
		return domain.LosslessBundle{}, err
	}

	b, err := lossless.DecompressBundle(data)
	if err != nil {
		return domain.LosslessBundle{}, fmt.Errorf("failed to read bundle %s: %w", idOrName, err)
	}
	return b, nil
}

// List returns metadata of every archived bundle, newest first.
func (s *BoltStore) List() ([]port.BundleMeta, error) {
	var metas []port.BundleMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).ForEach(func(k, v []byte) error {
			var meta port.BundleMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("corrupt metadata for %s: %w", k, err)
			}
			metas = append(metas, meta)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].CreatedAt.After(metas[j].CreatedAt)
		}
		return metas[i].ID < metas[j].ID
	})
	return metas, nil
}

func (s *BoltStore) Delete(idOrName string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		id, ok := resolve(tx, idOrName)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, idOrName)
		}

		var meta port.BundleMeta
		if data := tx.Bucket(bucketMeta).Get(id); data != nil {
			if err := json.Unmarshal(data, &meta); err != nil {
				return err
			}
		}
		if err := tx.Bucket(bucketBundles).Delete(id); err != nil {
			return err
		}
		if err := tx.Bucket(bucketMeta).Delete(id); err != nil {
			return err
		}

		names := tx.Bucket(bucketNames)
		if meta.Name != "" && string(names.Get([]byte(meta.Name))) == string(id) {
			return names.Delete([]byte(meta.Name))
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func resolve(tx *bbolt.Tx, idOrName string) ([]byte, bool) {
	if tx.Bucket(bucketBundles).Get([]byte(idOrName)) != nil {
		return []byte(idOrName), true
	}
	if names := tx.Bucket(bucketNames); names != nil {
		if id := names.Get([]byte(idOrName)); id != nil && tx.Bucket(bucketBundles).Get(id) != nil {
			return append([]byte(nil), id...), true
		}
	}
	return nil, false
}
