package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	recordBucketName = "records"
	pathBucketName   = "record_paths"
	runBucketName    = "scan_runs"
)

// DB defines the interface for database operations
type DB interface {
	// UpsertRecord inserts a record or overwrites the prior record for
	// the same path, preserving its ID and CreatedAt
	UpsertRecord(record *ScanRecord) error

	// GetRecord retrieves a record by ID
	GetRecord(id string) (*ScanRecord, error)

	// GetRecordByPath retrieves a record by its filesystem path
	GetRecordByPath(path string) (*ScanRecord, error)

	// ListRecords returns all records
	ListRecords() ([]*ScanRecord, error)

	// DeleteRecord removes a record and its path index entry
	DeleteRecord(id string) error

	// SaveRun saves a scan run summary
	SaveRun(run *ScanRun) error

	// GetRun retrieves a scan run by ID
	GetRun(id string) (*ScanRun, error)

	// ListRuns returns all scan runs
	ListRuns() ([]*ScanRun, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{recordBucketName, pathBucketName, runBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// UpsertRecord saves a record keyed by path. When a record for the path
// already exists the new record takes over its ID and CreatedAt, so
// repeated scans overwrite in place rather than accumulating duplicates.
func (b *BoltDB) UpsertRecord(record *ScanRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordBucketName))
		paths := tx.Bucket([]byte(pathBucketName))

		if existingID := paths.Get([]byte(record.Path)); existingID != nil {
			if data := records.Get(existingID); data != nil {
				var existing ScanRecord
				if err := json.Unmarshal(data, &existing); err != nil {
					return fmt.Errorf("unmarshaling existing record: %w", err)
				}
				record.ID = existing.ID
				record.CreatedAt = existing.CreatedAt
			}
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		if err := records.Put([]byte(record.ID), data); err != nil {
			return err
		}
		return paths.Put([]byte(record.Path), []byte(record.ID))
	})
}

// GetRecord retrieves a record by ID
func (b *BoltDB) GetRecord(id string) (*ScanRecord, error) {
	var record *ScanRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(recordBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("record not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecordByPath retrieves a record by its filesystem path
func (b *BoltDB) GetRecordByPath(path string) (*ScanRecord, error) {
	var record *ScanRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(pathBucketName)).Get([]byte(path))
		if id == nil {
			return fmt.Errorf("record not found for path: %s", path)
		}
		data := tx.Bucket([]byte(recordBucketName)).Get(id)
		if data == nil {
			return fmt.Errorf("record not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecords returns all records
func (b *BoltDB) ListRecords() ([]*ScanRecord, error) {
	records := make([]*ScanRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordBucketName)).ForEach(func(k, v []byte) error {
			var record ScanRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteRecord removes a record and its path index entry
func (b *BoltDB) DeleteRecord(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordBucketName))
		data := records.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("record not found: %s", id)
		}
		var record ScanRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("unmarshaling record: %w", err)
		}
		if err := tx.Bucket([]byte(pathBucketName)).Delete([]byte(record.Path)); err != nil {
			return err
		}
		return records.Delete([]byte(id))
	})
}

// SaveRun saves a scan run summary
func (b *BoltDB) SaveRun(run *ScanRun) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshaling run: %w", err)
		}
		return tx.Bucket([]byte(runBucketName)).Put([]byte(run.ID), data)
	})
}

// GetRun retrieves a scan run by ID
func (b *BoltDB) GetRun(id string) (*ScanRun, error) {
	var run *ScanRun
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(runBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("scan run not found: %s", id)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns all scan runs
func (b *BoltDB) ListRuns() ([]*ScanRun, error) {
	runs := make([]*ScanRun, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runBucketName)).ForEach(func(k, v []byte) error {
			var run ScanRun
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("unmarshaling run: %w", err)
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
