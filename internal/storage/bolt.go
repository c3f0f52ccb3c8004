// Package storage persists user configs, run history and the latest
// filtered snapshot in a local bbolt database.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"teewatch/internal/links"
	"teewatch/internal/model"
)

const (
	bucketConfigs   = "user_configs"
	bucketSnapshots = "snapshots"
	bucketRuns      = "runs"
	bucketLinks     = "links"

	latestSnapshotKey = "latest"
)

// RunRecord is one completed scrape-and-filter pass: everything the site
// showed plus the per-user filtered sets that were current at the end of the
// pass.
type RunRecord struct {
	ID       string                      `json:"id"` // RFC3339 timestamp
	AllSlots []model.TimeSlot            `json:"all_tee_times"`
	Filtered map[string][]model.TimeSlot `json:"filtered_tee_times"`
}

type Store struct {
	db *bolt.DB
}

// NewStore opens (creating if needed) the bbolt database at path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketConfigs, bucketSnapshots, bucketRuns, bucketLinks} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutUserConfig stores a config item keyed by its id (the user's email, or
// the shared default id).
func (s *Store) PutUserConfig(item model.ConfigItem) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketConfigs))

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		return b.Put([]byte(item.ID), data)
	})
}

// GetUserConfig returns the stored config for the email, or the defaults
// with found=false when none exists.
func (s *Store) GetUserConfig(email string) (model.UserConfig, bool, error) {
	var item model.ConfigItem
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketConfigs)).Get([]byte(email))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &item)
	})
	if err != nil {
		return model.UserConfig{}, false, err
	}
	if !found {
		return model.DefaultUserConfig(), false, nil
	}
	return item.UserConfig, true, nil
}

// DeleteUserConfig removes a user's stored config.
func (s *Store) DeleteUserConfig(email string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketConfigs)).Delete([]byte(email))
	})
}

// ListUserEmails returns every email with a stored config, excluding the
// shared default item.
func (s *Store) ListUserEmails() ([]string, error) {
	var emails []string

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketConfigs)).ForEach(func(k, v []byte) error {
			id := string(k)
			if id != model.DefaultConfigID {
				emails = append(emails, id)
			}
			return nil
		})
	})
	return emails, err
}

// PublishRun appends the run to the history and overwrites the latest
// snapshot wholesale in the same transaction. Must only be called after the
// full per-user pass has completed.
func (s *Store) PublishRun(run RunRecord) error {
	if run.ID == "" {
		run.ID = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bucketRuns)).Put([]byte(run.ID), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketSnapshots)).Put([]byte(latestSnapshotKey), data)
	})
}

// LatestRun returns the most recently published run, or nil when no run has
// been published yet.
func (s *Store) LatestRun() (*RunRecord, error) {
	var run RunRecord
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketSnapshots)).Get([]byte(latestSnapshotKey))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &run)
	})
	if err != nil || !found {
		return nil, err
	}
	return &run, nil
}

// LatestFiltered returns the per-user filtered sets from the most recent
// run; nil when there is no previous run.
func (s *Store) LatestFiltered() (map[string][]model.TimeSlot, error) {
	run, err := s.LatestRun()
	if err != nil || run == nil {
		return nil, err
	}
	return run.Filtered, nil
}

// CleanupRuns deletes run records older than the cutoff and returns how many
// were removed. The latest snapshot is untouched.
func (s *Store) CleanupRuns(before time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))

		var keysToDelete [][]byte
		err := b.ForEach(func(k, v []byte) error {
			ts, err := time.Parse(time.RFC3339, string(k))
			if err != nil {
				return nil // unknown key format, leave it
			}
			if ts.Before(before) {
				keysToDelete = append(keysToDelete, k)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range keysToDelete {
			if err := b.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// BackupTo writes a consistent copy of the database to path using a read
// transaction.
func (s *Store) BackupTo(path string) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(path, 0o600)
	})
}

// PutLink stores a one-time link.
func (s *Store) PutLink(l links.Link) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshaling link: %w", err)
		}
		return tx.Bucket([]byte(bucketLinks)).Put([]byte(l.ID), data)
	})
}

// GetLink returns a link by token id, or nil when it does not exist.
func (s *Store) GetLink(id string) (*links.Link, error) {
	var l links.Link
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketLinks)).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &l)
	})
	if err != nil || !found {
		return nil, err
	}
	return &l, nil
}

// DeleteLink removes a link by token id.
func (s *Store) DeleteLink(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLinks)).Delete([]byte(id))
	})
}

// AllLinks returns every stored one-time link.
func (s *Store) AllLinks() ([]links.Link, error) {
	var all []links.Link

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLinks)).ForEach(func(k, v []byte) error {
			var l links.Link
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			all = append(all, l)
			return nil
		})
	})
	return all, err
}
