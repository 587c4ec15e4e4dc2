package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"tokentrim/internal/port"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// ErrSchemaTooNew is returned for archives written by a newer release.
var ErrSchemaTooNew = errors.New("archive was created by a newer version")

// SchemaVersion reads the stored schema version. A fresh database is 0.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &version); err != nil {
			version = 1
		}
		return nil
	})
	return version, err
}

func (s *BoltStore) setSchemaVersion(version int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(version)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketStats).Put(keySchemaVersion, data)
	})
}

// Migrate performs any necessary schema migrations.
func (s *BoltStore) Migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("%w (v%d > v%d)", ErrSchemaTooNew, version, CurrentSchemaVersion)
	}

	for v := version; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	if version == CurrentSchemaVersion {
		return nil
	}
	return s.setSchemaVersion(CurrentSchemaVersion)
}

// runMigration runs a specific version migration.
func (s *BoltStore) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		return nil
	case from == 1 && to == 2:
		// v2 adds the name index, rebuilt from stored metadata.
		return s.db.Update(func(tx *bbolt.Tx) error {
			names, err := tx.CreateBucketIfNotExists(bucketNames)
			if err != nil {
				return err
			}
			latest := make(map[string]time.Time)
			return tx.Bucket(bucketMeta).ForEach(func(k, v []byte) error {
				var meta port.BundleMeta
				if err := json.Unmarshal(v, &meta); err != nil {
					return err
				}
				if meta.Name == "" {
					return nil
				}
				if seen, ok := latest[meta.Name]; ok && !meta.CreatedAt.After(seen) {
					return nil
				}
				latest[meta.Name] = meta.CreatedAt
				return names.Put([]byte(meta.Name), k)
			})
		})
	default:
		return nil
	}
}
